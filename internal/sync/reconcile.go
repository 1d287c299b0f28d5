package sync

import (
	"time"

	"github.com/nhle/ghostmail/internal/model"
)

// Result is the outcome of reconciling one fetch against the current list.
type Result struct {
	// Active is the fetched list minus expired messages, in provider order.
	Active []model.MailMessage

	// Expired holds messages at or past the retention age. They should be
	// deleted on the server.
	Expired []model.MailMessage

	// Arrivals are active messages whose ids were not in the current list.
	// Always empty when the current list is empty.
	Arrivals []model.MailMessage
}

// Reconcile partitions fetched into active and expired messages and finds
// arrivals relative to current. A non-positive retention disables expiry,
// and a message without a date never expires. A message already marked
// seen in current stays seen.
//
// removed holds ids deleted locally whose server deletion is still pending
// (true) or has failed (false). They never count as arrivals. Pending ones
// are left out of Active.
func Reconcile(current, fetched []model.MailMessage, removed map[string]bool, retention time.Duration, now time.Time) Result {
	known := make(map[string]bool, len(current))
	seen := make(map[string]bool, len(current))
	for _, m := range current {
		known[m.ID] = true
		if m.Seen {
			seen[m.ID] = true
		}
	}

	res := Result{Active: make([]model.MailMessage, 0, len(fetched))}
	for _, m := range fetched {
		if retention > 0 && !m.Date.IsZero() && m.Age(now) >= retention {
			res.Expired = append(res.Expired, m)
			continue
		}

		pending, deleted := removed[m.ID]
		if pending {
			continue
		}

		if seen[m.ID] {
			m.Seen = true
		}
		res.Active = append(res.Active, m)

		if len(current) > 0 && !known[m.ID] && !deleted {
			res.Arrivals = append(res.Arrivals, m)
		}
	}

	return res
}
