package inbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/provider"
	"github.com/nhle/ghostmail/tests/testutil"
)

var box = model.Mailbox{ID: "box1", Address: "ghost_1@mail.test", Token: "tok"}

func newLoadedInbox(t *testing.T, ids ...string) (*Inbox, *testutil.FakeProvider) {
	t.Helper()

	p := testutil.NewFakeProvider()
	var msgs []model.MailMessage
	for _, id := range ids {
		msgs = append(msgs, model.MailMessage{ID: id, Subject: "subject " + id})
	}
	p.SetInbox(box.Token, msgs...)

	in := New(p)
	in.Reset(box)
	require.True(t, in.Apply(box.ID, msgs, &model.AccountDetails{Quota: 100, Used: 10}))
	return in, p
}

func ids(msgs []model.MailMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestResetClearsState(t *testing.T) {
	in, _ := newLoadedInbox(t, "m1", "m2")
	assert.True(t, in.Loaded())
	require.NotNil(t, in.Account())

	other := model.Mailbox{ID: "box2", Address: "b@mail.test", Token: "t2"}
	in.Reset(other)

	assert.Empty(t, in.Messages())
	assert.Nil(t, in.Account())
	assert.False(t, in.Loaded())
	assert.Equal(t, other, in.Mailbox())
}

func TestApplyDropsStaleMailbox(t *testing.T) {
	in, _ := newLoadedInbox(t, "m1")

	ok := in.Apply("old-box", []model.MailMessage{{ID: "x"}}, nil)
	assert.False(t, ok)
	assert.Equal(t, []string{"m1"}, ids(in.Messages()))
}

func TestApplyKeepsAccountWhenNil(t *testing.T) {
	in, _ := newLoadedInbox(t, "m1")

	require.True(t, in.Apply(box.ID, nil, nil))
	require.NotNil(t, in.Account())
	assert.Equal(t, int64(100), in.Account().Quota)
}

func TestMarkSeen(t *testing.T) {
	in, p := newLoadedInbox(t, "m1", "m2")

	require.NoError(t, in.MarkSeen(context.Background(), "m1"))
	assert.True(t, in.Messages()[0].Seen)
	assert.Equal(t, 1, in.Unread())

	_, seen := p.Snapshot()
	assert.Equal(t, []string{"m1"}, seen)

	require.NoError(t, in.MarkSeen(context.Background(), "m1"))
	_, seen = p.Snapshot()
	assert.Len(t, seen, 1, "already seen messages are not re-sent")
}

func TestMarkSeenRollsBackOnFailure(t *testing.T) {
	in, p := newLoadedInbox(t, "m1")
	p.SeenErr["m1"] = errors.New("server error")

	err := in.MarkSeen(context.Background(), "m1")
	require.Error(t, err)
	assert.False(t, in.Messages()[0].Seen)
}

func TestMarkSeenUnknownMessage(t *testing.T) {
	in, _ := newLoadedInbox(t, "m1")
	assert.ErrorIs(t, in.MarkSeen(context.Background(), "zz"), provider.ErrNotFound)
}

func TestDelete(t *testing.T) {
	in, p := newLoadedInbox(t, "m1", "m2", "m3")

	require.NoError(t, in.Delete(context.Background(), "m2"))
	assert.Equal(t, []string{"m1", "m3"}, ids(in.Messages()))

	deleted, _ := p.Snapshot()
	assert.Equal(t, []string{"m2"}, deleted)
}

func TestDeleteRestoresPositionOnFailure(t *testing.T) {
	in, p := newLoadedInbox(t, "m1", "m2", "m3")
	p.DeleteErr["m2"] = errors.New("server error")

	require.Error(t, in.Delete(context.Background(), "m2"))
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(in.Messages()))
}

func TestBulkDeleteAggregatesResults(t *testing.T) {
	in, p := newLoadedInbox(t, "m1", "m2", "m3", "m4")
	p.DeleteErr["m3"] = errors.New("boom")

	res := in.BulkDelete(context.Background(), []string{"m1", "m2", "m3"})
	assert.Equal(t, BulkResult{Succeeded: 2, Failed: 1}, res)
	assert.Equal(t, "2 done, 1 failed", res.String())
	assert.Equal(t, []string{"m4"}, ids(in.Messages()), "removal is optimistic for every id")

	deleted, _ := p.Snapshot()
	assert.ElementsMatch(t, []string{"m1", "m2"}, deleted)
}

func TestBulkMarkSeen(t *testing.T) {
	in, p := newLoadedInbox(t, "m1", "m2", "m3")
	p.SeenErr["m2"] = errors.New("boom")

	res := in.BulkMarkSeen(context.Background(), []string{"m1", "m2"})
	assert.Equal(t, BulkResult{Succeeded: 1, Failed: 1}, res)
	assert.Equal(t, 1, in.Unread())
	assert.Equal(t, "1 done", BulkResult{Succeeded: 1}.String())
}

func TestOpenMarksSeen(t *testing.T) {
	in, p := newLoadedInbox(t, "m1")
	p.Bodies["m1"] = &model.FullMessage{
		MailMessage: model.MailMessage{ID: "m1", Subject: "hi"},
		Text:        "hello",
	}

	full, err := in.Open(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "hello", full.Text)
	assert.True(t, full.Seen)
	assert.True(t, in.Messages()[0].Seen)
}

func TestOpenMissingMessage(t *testing.T) {
	in, _ := newLoadedInbox(t, "m1")
	_, err := in.Open(context.Background(), "m1")
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestUpdateTokenIgnoresOtherMailbox(t *testing.T) {
	in, _ := newLoadedInbox(t)
	in.UpdateToken("other", "x")
	assert.Equal(t, "tok", in.Mailbox().Token)
	in.UpdateToken(box.ID, "fresh")
	assert.Equal(t, "fresh", in.Mailbox().Token)
}

func TestOpenUnlistedMessageMarksSeenRemotely(t *testing.T) {
	in, p := newLoadedInbox(t, "m1")
	p.Bodies["m40"] = &model.FullMessage{
		MailMessage: model.MailMessage{ID: "m40", Subject: "older"},
		Text:        "from page four",
	}

	full, err := in.Open(context.Background(), "m40")
	require.NoError(t, err)
	assert.True(t, full.Seen)

	_, seen := p.Snapshot()
	assert.Equal(t, []string{"m40"}, seen)
	assert.Equal(t, []string{"m1"}, ids(in.Messages()), "local list is untouched")
}

func TestDeleteTracksRemovedIDs(t *testing.T) {
	in, p := newLoadedInbox(t, "m1", "m2", "m3")
	p.DeleteErr["m3"] = errors.New("server error")

	require.NoError(t, in.Delete(context.Background(), "m1"))
	require.Error(t, in.Delete(context.Background(), "m3"))

	_, removed := in.Snapshot()
	assert.Equal(t, map[string]bool{"m1": true}, removed, "a restored message is not tracked")
}

func TestBulkDeleteFailureKeepsRemovedID(t *testing.T) {
	in, p := newLoadedInbox(t, "m1", "m2")
	p.DeleteErr["m1"] = errors.New("boom")

	in.BulkDelete(context.Background(), []string{"m1", "m2"})

	_, removed := in.Snapshot()
	assert.Equal(t, map[string]bool{"m1": false, "m2": true}, removed)
}

func TestApplyAndSettleForgetRemovedIDs(t *testing.T) {
	in, p := newLoadedInbox(t, "m1", "m2", "m3")
	p.DeleteErr["m1"] = errors.New("boom")
	in.BulkDelete(context.Background(), []string{"m1", "m2"})

	m1 := model.MailMessage{ID: "m1"}
	m3 := model.MailMessage{ID: "m3"}
	require.True(t, in.Apply(box.ID, []model.MailMessage{m1, m3}, nil))
	_, removed := in.Snapshot()
	assert.Equal(t, map[string]bool{"m2": true}, removed, "a failed delete is forgotten once listed again")

	in.Settle(box.ID, []model.MailMessage{m1, m3})
	_, removed = in.Snapshot()
	assert.Empty(t, removed)
}

func TestResetForgetsRemovedIDs(t *testing.T) {
	in, _ := newLoadedInbox(t, "m1")
	require.NoError(t, in.Delete(context.Background(), "m1"))

	in.Reset(box)
	_, removed := in.Snapshot()
	assert.Empty(t, removed)
}
