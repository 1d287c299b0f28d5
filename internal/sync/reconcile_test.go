package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/ghostmail/internal/model"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

const week = 7 * 24 * time.Hour

func msg(id string, age time.Duration) model.MailMessage {
	return model.MailMessage{ID: id, Subject: "subject " + id, Date: now.Add(-age)}
}

func idsOf(msgs []model.MailMessage) []string {
	out := []string{}
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestReconcileFirstPopulationHasNoArrivals(t *testing.T) {
	res := Reconcile(nil, []model.MailMessage{msg("m1", time.Hour)}, nil, week, now)
	assert.Equal(t, []string{"m1"}, idsOf(res.Active))
	assert.Empty(t, res.Arrivals)
	assert.Empty(t, res.Expired)
}

func TestReconcileDetectsArrivalOnce(t *testing.T) {
	m1 := msg("m1", time.Hour)
	m1.Seen = false

	first := Reconcile(nil, []model.MailMessage{m1}, nil, week, now)

	m2 := msg("m2", time.Minute)
	second := Reconcile(first.Active, []model.MailMessage{m2, m1}, nil, week, now)
	assert.Equal(t, []string{"m2"}, idsOf(second.Arrivals))
	assert.Equal(t, []string{"m2", "m1"}, idsOf(second.Active), "provider order is kept")
	assert.False(t, second.Active[1].Seen, "msg1 read state unchanged")

	third := Reconcile(second.Active, []model.MailMessage{m2, m1}, nil, week, now)
	assert.Empty(t, third.Arrivals)
}

func TestReconcileExpiresByAge(t *testing.T) {
	old := msg("old", 8*24*time.Hour)
	edge := msg("edge", week)
	fresh := msg("fresh", week-time.Second)

	res := Reconcile([]model.MailMessage{fresh}, []model.MailMessage{fresh, edge, old}, nil, week, now)
	assert.Equal(t, []string{"fresh"}, idsOf(res.Active))
	assert.Equal(t, []string{"edge", "old"}, idsOf(res.Expired))
	assert.Empty(t, res.Arrivals, "expired messages are never arrivals")
}

func TestReconcileZeroRetentionDisablesExpiry(t *testing.T) {
	res := Reconcile(nil, []model.MailMessage{msg("ancient", 400*24*time.Hour)}, nil, 0, now)
	assert.Equal(t, []string{"ancient"}, idsOf(res.Active))
	assert.Empty(t, res.Expired)
}

func TestReconcileKeepsLocalSeen(t *testing.T) {
	local := msg("m1", time.Hour)
	local.Seen = true
	remote := msg("m1", time.Hour)

	res := Reconcile([]model.MailMessage{local}, []model.MailMessage{remote}, nil, week, now)
	assert.True(t, res.Active[0].Seen)
}

func TestReconcileDropsVanishedMessages(t *testing.T) {
	res := Reconcile(
		[]model.MailMessage{msg("m1", time.Hour), msg("m2", time.Hour)},
		[]model.MailMessage{msg("m2", time.Hour)},
		nil, week, now,
	)
	assert.Equal(t, []string{"m2"}, idsOf(res.Active))
	assert.Empty(t, res.Arrivals)
}

func TestReconcileUndatedMessageNeverExpires(t *testing.T) {
	undated := model.MailMessage{ID: "m1", Subject: "no date"}

	res := Reconcile(nil, []model.MailMessage{undated}, nil, week, now)
	assert.Equal(t, []string{"m1"}, idsOf(res.Active))
	assert.Empty(t, res.Expired)
}

func TestReconcileRemovedMessagesAreNotArrivals(t *testing.T) {
	m1, m2, m3 := msg("m1", time.Hour), msg("m2", time.Hour), msg("m3", time.Minute)
	current := []model.MailMessage{m2}
	removed := map[string]bool{"m1": false, "m3": true}

	res := Reconcile(current, []model.MailMessage{m3, m1, m2}, removed, week, now)
	assert.Equal(t, []string{"m1", "m2"}, idsOf(res.Active), "pending deletes stay hidden, failed ones come back")
	assert.Empty(t, res.Arrivals)
}
