package sync

import (
	"context"
	"fmt"
	"log"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/ghostmail/internal/inbox"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/provider"
	"github.com/nhle/ghostmail/internal/store"
)

// SyncResultMsg is a tea.Msg sent when a poll cycle completes.
type SyncResultMsg struct {
	MailboxID string
	Address   string

	// Arrivals are the messages that appeared since the previous cycle.
	Arrivals []model.MailMessage

	// Expired counts messages dropped for age in this cycle.
	Expired int

	// Stale is set when the mailbox was switched while the cycle ran; the
	// result was discarded.
	Stale bool

	Error error

	// AuthError is set when the provider rejected the mailbox token.
	AuthError bool
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// Options tunes the poller.
type Options struct {
	Interval  time.Duration
	Retention time.Duration
	MaxPages  int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig builds Options from the poll configuration.
func OptionsFromConfig(cfg model.PollConfig) Options {
	return Options{
		Interval:  cfg.Interval(),
		Retention: cfg.Retention(),
		MaxPages:  cfg.MaxPages,
	}
}

// Poller polls the active mailbox on a fixed interval, reconciles each
// fetch into the inbox, and reports results as tea messages.
type Poller struct {
	provider provider.Provider
	inbox    *inbox.Inbox
	store    store.Store
	opts     Options

	resultCh chan SyncResultMsg

	mu        gosync.Mutex
	stopCh    chan struct{}
	triggerCh chan struct{}

	// deletes tracks fire-and-forget expiry deletions.
	deletes gosync.WaitGroup
}

// New creates a new Poller.
func New(p provider.Provider, in *inbox.Inbox, s store.Store, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Poller{
		provider: p,
		inbox:    in,
		store:    s,
		opts:     opts,
		resultCh: make(chan SyncResultMsg, 16),
	}
}

// Activate stops polling the previous mailbox, clears the inbox, and starts
// polling mb: once immediately, then every interval.
func (p *Poller) Activate(mb model.Mailbox) {
	stop := make(chan struct{})
	trigger := make(chan struct{}, 1)

	p.mu.Lock()
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.stopCh = stop
	p.triggerCh = trigger
	p.inbox.Reset(mb)
	p.mu.Unlock()

	go p.pollMailbox(mb.ID, stop, trigger)
}

// Stop halts the polling loop. Requests already in flight complete and
// their results are delivered.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopCh == nil {
		return
	}
	close(p.stopCh)
	p.stopCh = nil
	p.triggerCh = nil
}

// Wait blocks until pending expiry deletions finish or ctx is done.
func (p *Poller) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.deletes.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh triggers an immediate poll of the active mailbox.
func (p *Poller) Refresh() tea.Cmd {
	p.mu.Lock()
	trigger := p.triggerCh
	p.mu.Unlock()

	if trigger == nil {
		return nil
	}
	select {
	case trigger <- struct{}{}:
	default:
		// A refresh is already pending.
	}
	return nil
}

// SyncOnce runs one cycle for the inbox's current mailbox and returns its
// result without emitting it.
func (p *Poller) SyncOnce(ctx context.Context) SyncResultMsg {
	return p.cycle(ctx, p.inbox.Mailbox().ID)
}

// pollMailbox runs the polling loop for one mailbox. Cycles run on this
// goroutine so they never overlap; ticks missed during a slow cycle are
// dropped by the ticker.
func (p *Poller) pollMailbox(mailboxID string, stop <-chan struct{}, trigger <-chan struct{}) {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.runCycle(mailboxID)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.runCycle(mailboxID)
		case <-trigger:
			p.runCycle(mailboxID)
		}
	}
}

func (p *Poller) runCycle(mailboxID string) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	p.sendResult(p.cycle(ctx, mailboxID))
}

// cycle fetches, reconciles and applies one poll of mailboxID.
func (p *Poller) cycle(ctx context.Context, mailboxID string) SyncResultMsg {
	mb := p.inbox.Mailbox()
	if mb.ID != mailboxID {
		return SyncResultMsg{MailboxID: mailboxID, Stale: true}
	}
	result := SyncResultMsg{MailboxID: mb.ID, Address: mb.Address}
	current, removed := p.inbox.Snapshot()

	fetched, err := p.fetchAll(ctx, mb.Token)
	if err != nil {
		log.Printf("sync: fetching %s: %v", mb.Address, err)
		result.Error = err
		result.AuthError = provider.IsAuthError(err)
		return result
	}

	account, err := p.provider.Account(ctx, mb.Token)
	if err != nil {
		log.Printf("sync: fetching account of %s: %v", mb.Address, err)
		account = nil
	}

	res := Reconcile(current, fetched, removed, p.opts.Retention, p.opts.Now())

	for _, m := range res.Expired {
		p.expire(mb, m)
	}
	result.Expired = len(res.Expired)

	if !p.inbox.Apply(mb.ID, res.Active, account) {
		result.Stale = true
		return result
	}
	p.inbox.Settle(mb.ID, fetched)

	for _, m := range res.Arrivals {
		n := model.Notification{
			MailboxID: mb.ID,
			MessageID: m.ID,
			Message:   fmt.Sprintf("New message from %s: %s", m.Sender(), m.Subject),
			CreatedAt: p.opts.Now(),
		}
		if err := p.store.CreateNotification(ctx, n); err != nil {
			log.Printf("sync: saving notification for %s: %v", m.ID, err)
		}
	}
	result.Arrivals = res.Arrivals

	return result
}

// fetchAll reads list pages until the provider's total is reached, a page
// comes back empty, or MaxPages is hit.
func (p *Poller) fetchAll(ctx context.Context, token string) ([]model.MailMessage, error) {
	var all []model.MailMessage
	for page := 1; page <= p.opts.MaxPages; page++ {
		res, err := p.provider.Messages(ctx, token, page)
		if err != nil {
			return nil, err
		}
		all = append(all, res.Messages...)
		if len(res.Messages) == 0 || len(all) >= res.Total {
			break
		}
	}
	return all, nil
}

// expire deletes an aged-out message on the server without waiting.
// Failures are logged and not retried.
func (p *Poller) expire(mb model.Mailbox, m model.MailMessage) {
	p.deletes.Add(1)
	go func() {
		defer p.deletes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if err := p.provider.DeleteMessage(ctx, mb.Token, m.ID); err != nil {
			log.Printf("sync: deleting expired message %s of %s: %v", m.ID, mb.Address, err)
		}
	}()
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// This should be called after processing a SyncResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}
