package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ghostmail/internal/inbox"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/store"
	"github.com/nhle/ghostmail/tests/testutil"
)

var (
	boxA = model.Mailbox{ID: "a", Address: "a@mail.test", Token: "tok-a"}
	boxB = model.Mailbox{ID: "b", Address: "b@mail.test", Token: "tok-b"}
)

type pollerFixture struct {
	p    *testutil.FakeProvider
	in   *inbox.Inbox
	kv   store.Store
	poll *Poller
}

func newPollerFixture(t *testing.T, opts Options) *pollerFixture {
	t.Helper()

	if opts.Now == nil {
		opts.Now = func() time.Time { return now }
	}
	if opts.Retention == 0 {
		opts.Retention = week
	}
	if opts.MaxPages == 0 {
		opts.MaxPages = 3
	}

	f := &pollerFixture{
		p:  testutil.NewFakeProvider(),
		kv: testutil.NewTestStore(t),
	}
	f.in = inbox.New(f.p)
	f.poll = New(f.p, f.in, f.kv, opts)
	t.Cleanup(f.poll.Stop)
	return f
}

// next waits for the next emitted result.
func (f *pollerFixture) next(t *testing.T) SyncResultMsg {
	t.Helper()

	select {
	case msg := <-f.poll.resultCh:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for sync result")
		return SyncResultMsg{}
	}
}

func TestSyncOnceArrivalScenario(t *testing.T) {
	f := newPollerFixture(t, Options{})
	ctx := context.Background()
	f.in.Reset(boxA)

	m1 := msg("m1", time.Hour)
	f.p.SetInbox(boxA.Token, m1)

	first := f.poll.SyncOnce(ctx)
	require.NoError(t, first.Error)
	assert.Empty(t, first.Arrivals)
	assert.Equal(t, []string{"m1"}, idsOf(f.in.Messages()))
	require.NotNil(t, f.in.Account())

	m2 := msg("m2", time.Minute)
	f.p.SetInbox(boxA.Token, m2, m1)

	second := f.poll.SyncOnce(ctx)
	require.NoError(t, second.Error)
	assert.Equal(t, []string{"m2"}, idsOf(second.Arrivals))
	assert.Equal(t, []string{"m2", "m1"}, idsOf(f.in.Messages()))
	assert.False(t, f.in.Messages()[1].Seen)

	unread, err := f.kv.GetUnreadNotifications(ctx, boxA.ID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "m2", unread[0].MessageID)

	third := f.poll.SyncOnce(ctx)
	assert.Empty(t, third.Arrivals)
}

func TestSyncOnceExpiresOldMessages(t *testing.T) {
	f := newPollerFixture(t, Options{})
	f.in.Reset(boxA)

	old := msg("old", 8*24*time.Hour)
	fresh := msg("fresh", time.Hour)
	f.p.SetInbox(boxA.Token, fresh, old)

	res := f.poll.SyncOnce(context.Background())
	require.NoError(t, res.Error)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, []string{"fresh"}, idsOf(f.in.Messages()))

	require.NoError(t, f.poll.Wait(context.Background()))
	deleted, _ := f.p.Snapshot()
	assert.Equal(t, []string{"old"}, deleted)
}

func TestSyncOnceExpiryDeleteFailureIsNotRetried(t *testing.T) {
	f := newPollerFixture(t, Options{})
	f.in.Reset(boxA)
	f.p.DeleteErr["old"] = errors.New("server error")
	f.p.SetInbox(boxA.Token, msg("old", 8*24*time.Hour))

	res := f.poll.SyncOnce(context.Background())
	require.NoError(t, res.Error)
	f.poll.deletes.Wait()
	assert.Empty(t, f.in.Messages())
}

func TestSyncOnceFailureLeavesStateUnchanged(t *testing.T) {
	f := newPollerFixture(t, Options{})
	f.in.Reset(boxA)
	f.p.SetInbox(boxA.Token, msg("m1", time.Hour))
	require.NoError(t, f.poll.SyncOnce(context.Background()).Error)

	f.p.ListErr = errors.New("connection reset")
	res := f.poll.SyncOnce(context.Background())
	require.Error(t, res.Error)
	assert.False(t, res.AuthError)
	assert.Equal(t, []string{"m1"}, idsOf(f.in.Messages()))
}

func TestSyncOnceReportsAuthError(t *testing.T) {
	f := newPollerFixture(t, Options{})
	f.in.Reset(boxA)
	f.p.ExpiredAuth = map[string]bool{boxA.Token: true}

	res := f.poll.SyncOnce(context.Background())
	assert.True(t, res.AuthError)
	assert.Equal(t, boxA.ID, res.MailboxID)
}

func TestSyncOnceAccountFailureKeepsMessages(t *testing.T) {
	f := newPollerFixture(t, Options{})
	f.in.Reset(boxA)
	f.p.AccountErr = errors.New("quota unavailable")
	f.p.SetInbox(boxA.Token, msg("m1", time.Hour))

	res := f.poll.SyncOnce(context.Background())
	require.NoError(t, res.Error)
	assert.Len(t, f.in.Messages(), 1)
	assert.Nil(t, f.in.Account())
}

func TestFetchAllFollowsPages(t *testing.T) {
	f := newPollerFixture(t, Options{MaxPages: 2})
	f.p.PageSize = 2
	f.in.Reset(boxA)
	f.p.SetInbox(boxA.Token,
		msg("m1", time.Minute), msg("m2", time.Minute),
		msg("m3", time.Minute), msg("m4", time.Minute),
		msg("m5", time.Minute),
	)

	require.NoError(t, f.poll.SyncOnce(context.Background()).Error)
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, idsOf(f.in.Messages()), "bounded by max pages")
}

func TestActivatePollsImmediatelyAndOnInterval(t *testing.T) {
	f := newPollerFixture(t, Options{Interval: 20 * time.Millisecond})
	f.p.SetInbox(boxA.Token, msg("m1", time.Hour))

	f.poll.Activate(boxA)

	first := f.next(t)
	assert.Equal(t, boxA.ID, first.MailboxID)
	assert.Empty(t, first.Arrivals)

	f.p.SetInbox(boxA.Token, msg("m2", time.Minute), msg("m1", time.Hour))

	var arrivals []model.MailMessage
	for i := 0; i < 10 && len(arrivals) == 0; i++ {
		arrivals = f.next(t).Arrivals
	}
	assert.Equal(t, []string{"m2"}, idsOf(arrivals))
}

func TestActivateSwitchClearsStateBeforeFetch(t *testing.T) {
	f := newPollerFixture(t, Options{Interval: time.Hour})
	f.p.SetInbox(boxA.Token, msg("a1", time.Hour))
	f.p.SetInbox(boxB.Token, msg("b1", time.Hour))

	f.poll.Activate(boxA)
	f.next(t)
	require.Equal(t, []string{"a1"}, idsOf(f.in.Messages()))

	block := make(chan struct{})
	f.p.ListHook = func(token string) {
		if token == boxB.Token {
			<-block
		}
	}

	f.poll.Activate(boxB)
	assert.Empty(t, f.in.Messages(), "messages cleared before the first fetch")
	assert.Nil(t, f.in.Account())

	close(block)
	res := f.next(t)
	assert.Equal(t, boxB.ID, res.MailboxID)
	assert.Empty(t, res.Arrivals, "first population of the new mailbox")
	assert.Equal(t, []string{"b1"}, idsOf(f.in.Messages()))
}

func TestStaleResultIsDiscarded(t *testing.T) {
	f := newPollerFixture(t, Options{Interval: time.Hour})
	f.p.SetInbox(boxA.Token, msg("a1", time.Hour))
	f.p.SetInbox(boxB.Token, msg("b1", time.Hour))

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	f.p.ListHook = func(token string) {
		if token == boxA.Token {
			started <- struct{}{}
			<-release
		}
	}

	f.in.Reset(boxA)
	done := make(chan SyncResultMsg, 1)
	go func() { done <- f.poll.cycle(context.Background(), boxA.ID) }()
	<-started

	f.in.Reset(boxB)
	close(release)

	res := <-done
	assert.True(t, res.Stale)
	assert.Empty(t, f.in.Messages(), "old mailbox data never reaches the new inbox")
}

func TestRefreshTriggersCycle(t *testing.T) {
	f := newPollerFixture(t, Options{Interval: time.Hour})
	f.p.SetInbox(boxA.Token, msg("a1", time.Hour))

	f.poll.Activate(boxA)
	f.next(t)

	f.p.SetInbox(boxA.Token, msg("a2", time.Minute), msg("a1", time.Hour))
	f.poll.Refresh()

	res := f.next(t)
	assert.Equal(t, []string{"a2"}, idsOf(res.Arrivals))
}

func TestWaitForNextResult(t *testing.T) {
	f := newPollerFixture(t, Options{})
	f.poll.sendResult(SyncResultMsg{MailboxID: "x"})

	got := f.poll.WaitForNextResult()()
	assert.Equal(t, SyncResultMsg{MailboxID: "x"}, got)
}

func TestSyncOnceKeepsUndatedMessages(t *testing.T) {
	f := newPollerFixture(t, Options{})
	f.in.Reset(boxA)
	f.p.SetInbox(boxA.Token, model.MailMessage{ID: "undated", Subject: "no date"})

	res := f.poll.SyncOnce(context.Background())
	require.NoError(t, res.Error)
	assert.Zero(t, res.Expired)
	assert.Equal(t, []string{"undated"}, idsOf(f.in.Messages()))

	require.NoError(t, f.poll.Wait(context.Background()))
	deleted, _ := f.p.Snapshot()
	assert.Empty(t, deleted)
}

func TestFailedBulkDeleteIsNotReportedAsNew(t *testing.T) {
	f := newPollerFixture(t, Options{})
	f.in.Reset(boxA)
	f.p.SetInbox(boxA.Token, msg("m1", time.Hour), msg("m2", time.Hour))
	require.NoError(t, f.poll.SyncOnce(context.Background()).Error)

	f.p.DeleteErr["m1"] = errors.New("server error")
	bulk := f.in.BulkDelete(context.Background(), []string{"m1"})
	require.Equal(t, 1, bulk.Failed)

	res := f.poll.SyncOnce(context.Background())
	require.NoError(t, res.Error)
	assert.Empty(t, res.Arrivals)
	assert.Equal(t, []string{"m1", "m2"}, idsOf(f.in.Messages()), "the message comes back")

	notes, err := f.kv.GetUnreadNotifications(context.Background(), boxA.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)

	res = f.poll.SyncOnce(context.Background())
	assert.Empty(t, res.Arrivals)
}

func TestPendingDeleteStaysHiddenUntilServerDropsIt(t *testing.T) {
	f := newPollerFixture(t, Options{})
	f.in.Reset(boxA)
	m1, m2 := msg("m1", time.Hour), msg("m2", time.Hour)
	f.p.SetInbox(boxA.Token, m1, m2)
	require.NoError(t, f.poll.SyncOnce(context.Background()).Error)

	require.NoError(t, f.in.Delete(context.Background(), "m1"))
	// The listing lags behind the delete.
	f.p.SetInbox(boxA.Token, m1, m2)

	res := f.poll.SyncOnce(context.Background())
	require.NoError(t, res.Error)
	assert.Empty(t, res.Arrivals)
	assert.Equal(t, []string{"m2"}, idsOf(f.in.Messages()))

	f.p.SetInbox(boxA.Token, m2)
	require.NoError(t, f.poll.SyncOnce(context.Background()).Error)
	_, removed := f.in.Snapshot()
	assert.Empty(t, removed)
}

func TestWaitHonoursContext(t *testing.T) {
	f := newPollerFixture(t, Options{})
	f.poll.deletes.Add(1)
	defer f.poll.deletes.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.poll.Wait(ctx), context.DeadlineExceeded)
}

func TestConcurrentActivateKeepsInboxOnPolledMailbox(t *testing.T) {
	f := newPollerFixture(t, Options{Interval: time.Hour})
	f.p.SetInbox(boxA.Token, msg("a1", time.Hour))
	f.p.SetInbox(boxB.Token, msg("b1", time.Hour))

	var wg gosync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); f.poll.Activate(boxA) }()
		go func() { defer wg.Done(); f.poll.Activate(boxB) }()
	}
	wg.Wait()

	current := f.in.Mailbox().ID
	deadline := time.After(5 * time.Second)
	for {
		f.poll.Refresh()
		select {
		case res := <-f.poll.resultCh:
			if res.MailboxID == current && !res.Stale {
				return
			}
		case <-deadline:
			t.Fatalf("the surviving loop never polled %s", current)
		}
	}
}
