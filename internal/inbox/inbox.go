// Package inbox holds the message list of the active mailbox and applies
// user mutations to it optimistically.
package inbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/provider"
)

// BulkResult aggregates the outcome of a bulk operation.
type BulkResult struct {
	Succeeded int
	Failed    int
}

// String formats the result for a status line.
func (r BulkResult) String() string {
	if r.Failed == 0 {
		return fmt.Sprintf("%d done", r.Succeeded)
	}
	return fmt.Sprintf("%d done, %d failed", r.Succeeded, r.Failed)
}

// Inbox is the in-memory message state of one mailbox. It is safe for
// concurrent use.
type Inbox struct {
	provider provider.Provider

	mu       sync.Mutex
	mailbox  model.Mailbox
	messages []model.MailMessage
	account  *model.AccountDetails
	loaded   bool

	// removed maps ids deleted locally to whether they stay hidden: true
	// while the server delete is pending or done, false once it failed.
	// Entries go away when the server stops listing the id.
	removed map[string]bool
}

// New creates an empty inbox.
func New(p provider.Provider) *Inbox {
	return &Inbox{provider: p}
}

// Reset switches the inbox to mb, clearing messages and account details.
func (in *Inbox) Reset(mb model.Mailbox) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.mailbox = mb
	in.messages = nil
	in.account = nil
	in.loaded = false
	in.removed = nil
}

// Mailbox returns the mailbox the inbox currently shows.
func (in *Inbox) Mailbox() model.Mailbox {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.mailbox
}

// UpdateToken replaces the bearer token after a refresh. It is ignored when
// mailboxID is no longer current.
func (in *Inbox) UpdateToken(mailboxID, token string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.mailbox.ID == mailboxID {
		in.mailbox.Token = token
	}
}

// Messages returns a copy of the current message list.
func (in *Inbox) Messages() []model.MailMessage {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := make([]model.MailMessage, len(in.messages))
	copy(out, in.messages)
	return out
}

// Snapshot returns a copy of the message list together with the ids
// deleted locally, read under one lock.
func (in *Inbox) Snapshot() ([]model.MailMessage, map[string]bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	msgs := make([]model.MailMessage, len(in.messages))
	copy(msgs, in.messages)

	removed := make(map[string]bool, len(in.removed))
	for id, hidden := range in.removed {
		removed[id] = hidden
	}
	return msgs, removed
}

// Account returns the last known quota details, or nil.
func (in *Inbox) Account() *model.AccountDetails {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.account == nil {
		return nil
	}
	cp := *in.account
	return &cp
}

// Loaded reports whether at least one fetch has been applied since Reset.
func (in *Inbox) Loaded() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.loaded
}

// Unread counts messages not yet seen.
func (in *Inbox) Unread() int {
	in.mu.Lock()
	defer in.mu.Unlock()

	n := 0
	for _, m := range in.messages {
		if !m.Seen {
			n++
		}
	}
	return n
}

// Apply installs a reconciled message list. It returns false and changes
// nothing when mailboxID is not the current mailbox. A nil account keeps
// the previous details.
func (in *Inbox) Apply(mailboxID string, active []model.MailMessage, account *model.AccountDetails) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.mailbox.ID != mailboxID {
		return false
	}

	in.messages = append([]model.MailMessage(nil), active...)
	for _, m := range in.messages {
		if hidden, ok := in.removed[m.ID]; ok && !hidden {
			delete(in.removed, m.ID)
		}
	}
	if account != nil {
		cp := *account
		in.account = &cp
	}
	in.loaded = true
	return true
}

// Settle forgets locally deleted ids the server no longer lists.
func (in *Inbox) Settle(mailboxID string, listed []model.MailMessage) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.mailbox.ID != mailboxID || len(in.removed) == 0 {
		return
	}
	present := make(map[string]bool, len(listed))
	for _, m := range listed {
		present[m.ID] = true
	}
	for id := range in.removed {
		if !present[id] {
			delete(in.removed, id)
		}
	}
}

// MarkSeen flags a message as read locally, then on the server. The local
// flag is restored when the server call fails.
func (in *Inbox) MarkSeen(ctx context.Context, id string) error {
	in.mu.Lock()
	i := in.indexOf(id)
	if i < 0 {
		in.mu.Unlock()
		return fmt.Errorf("message %s: %w", id, provider.ErrNotFound)
	}
	if in.messages[i].Seen {
		in.mu.Unlock()
		return nil
	}
	in.messages[i].Seen = true
	token, mailboxID := in.mailbox.Token, in.mailbox.ID
	in.mu.Unlock()

	if err := in.provider.MarkSeen(ctx, token, id, true); err != nil {
		in.mu.Lock()
		if in.mailbox.ID == mailboxID {
			if j := in.indexOf(id); j >= 0 {
				in.messages[j].Seen = false
			}
		}
		in.mu.Unlock()
		return fmt.Errorf("marking %s seen: %w", id, err)
	}
	return nil
}

// Delete removes a message locally, then on the server. The message is put
// back at its old position when the server call fails.
func (in *Inbox) Delete(ctx context.Context, id string) error {
	in.mu.Lock()
	i := in.indexOf(id)
	if i < 0 {
		in.mu.Unlock()
		return fmt.Errorf("message %s: %w", id, provider.ErrNotFound)
	}
	removed := in.messages[i]
	in.messages = append(in.messages[:i:i], in.messages[i+1:]...)
	in.markRemoved(id)
	token, mailboxID := in.mailbox.Token, in.mailbox.ID
	in.mu.Unlock()

	if err := in.provider.DeleteMessage(ctx, token, id); err != nil {
		in.mu.Lock()
		if in.mailbox.ID == mailboxID && in.indexOf(id) < 0 {
			if i > len(in.messages) {
				i = len(in.messages)
			}
			in.messages = append(in.messages[:i:i], append([]model.MailMessage{removed}, in.messages[i:]...)...)
			delete(in.removed, id)
		}
		in.mu.Unlock()
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	return nil
}

// BulkDelete removes every listed message locally, then issues one server
// call per id concurrently and waits for all of them. Failed deletions are
// not restored locally; the next poll brings them back without reporting
// them as new.
func (in *Inbox) BulkDelete(ctx context.Context, ids []string) BulkResult {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	in.mu.Lock()
	kept := in.messages[:0:0]
	for _, m := range in.messages {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	in.messages = kept
	for _, id := range ids {
		in.markRemoved(id)
	}
	token, mailboxID := in.mailbox.Token, in.mailbox.ID
	in.mu.Unlock()

	return fanOut(ids, func(id string) error {
		err := in.provider.DeleteMessage(ctx, token, id)
		if err != nil {
			in.mu.Lock()
			if _, ok := in.removed[id]; ok && in.mailbox.ID == mailboxID {
				in.removed[id] = false
			}
			in.mu.Unlock()
		}
		return err
	})
}

// BulkMarkSeen flags every listed message as read locally, then on the
// server, one concurrent call per id.
func (in *Inbox) BulkMarkSeen(ctx context.Context, ids []string) BulkResult {
	mark := make(map[string]bool, len(ids))
	for _, id := range ids {
		mark[id] = true
	}

	in.mu.Lock()
	for i := range in.messages {
		if mark[in.messages[i].ID] {
			in.messages[i].Seen = true
		}
	}
	token := in.mailbox.Token
	in.mu.Unlock()

	return fanOut(ids, func(id string) error {
		return in.provider.MarkSeen(ctx, token, id, true)
	})
}

// Open fetches the full content of a message and marks it seen. A message
// missing from the local list is marked seen on the server directly.
func (in *Inbox) Open(ctx context.Context, id string) (*model.FullMessage, error) {
	token := in.Mailbox().Token

	full, err := in.provider.Message(ctx, token, id)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", id, err)
	}

	if in.contains(id) {
		err = in.MarkSeen(ctx, id)
	} else if !full.Seen {
		err = in.provider.MarkSeen(ctx, token, id, true)
	}
	if err != nil {
		// The body is still worth showing.
		full.Seen = false
		return full, nil
	}
	full.Seen = true
	return full, nil
}

// Source fetches the raw RFC 5322 source of a message.
func (in *Inbox) Source(ctx context.Context, id string) ([]byte, error) {
	raw, err := in.provider.Source(ctx, in.Mailbox().Token, id)
	if err != nil {
		return nil, fmt.Errorf("fetching source of %s: %w", id, err)
	}
	return raw, nil
}

func (in *Inbox) contains(id string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.indexOf(id) >= 0
}

// markRemoved must be called with mu held.
func (in *Inbox) markRemoved(id string) {
	if in.removed == nil {
		in.removed = make(map[string]bool)
	}
	in.removed[id] = true
}

// indexOf must be called with mu held.
func (in *Inbox) indexOf(id string) int {
	for i, m := range in.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// fanOut runs call for every id concurrently and waits for all to settle.
func fanOut(ids []string, call func(id string) error) BulkResult {
	var (
		wg  conc.WaitGroup
		mu  sync.Mutex
		res BulkResult
	)

	for _, id := range ids {
		id := id
		wg.Go(func() {
			err := call(id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				return
			}
			res.Succeeded++
		})
	}
	wg.Wait()

	return res
}
