package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/provider"
)

// FakeProvider is an in-memory provider.Provider. Each token owns one
// inbox. Exported fields may be set before use; call the methods under
// test concurrently as needed.
type FakeProvider struct {
	mu sync.Mutex

	// DomainList is returned by Domains. Defaults to one active domain.
	DomainList []model.Domain

	// Inboxes maps a token to its messages, newest first.
	Inboxes map[string][]model.MailMessage

	// Bodies maps a message id to its full content.
	Bodies map[string]*model.FullMessage

	// Passwords maps an address to its password, filled by CreateAccount.
	Passwords map[string]string

	// Quota is reported by Account.
	Quota int64

	// PageSize splits Messages into pages. Zero means one page.
	PageSize int

	// Failure injection.
	CreateErr   error
	ListErr     error
	AccountErr  error
	DeleteErr   map[string]error
	SeenErr     map[string]error
	ExpiredAuth map[string]bool

	// Call records.
	Deleted         []string
	MarkedSeen      []string
	DeletedAccounts []string
	ListCalls       int

	// ListHook runs at the start of Messages, outside the lock.
	ListHook func(token string)

	nextID int
}

// NewFakeProvider returns a FakeProvider with one active domain.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		DomainList: []model.Domain{{ID: "d1", Domain: "mail.test", IsActive: true}},
		Inboxes:    make(map[string][]model.MailMessage),
		Bodies:     make(map[string]*model.FullMessage),
		Passwords:  make(map[string]string),
		DeleteErr:  make(map[string]error),
		SeenErr:    make(map[string]error),
		Quota:      40_000_000,
	}
}

var _ provider.Provider = (*FakeProvider)(nil)

// SetInbox replaces the messages visible to token.
func (f *FakeProvider) SetInbox(token string, msgs ...model.MailMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Inboxes[token] = append([]model.MailMessage(nil), msgs...)
}

// Snapshot returns copies of the call records.
func (f *FakeProvider) Snapshot() (deleted, seen []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Deleted...), append([]string(nil), f.MarkedSeen...)
}

func (f *FakeProvider) Domains(context.Context) ([]model.Domain, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Domain(nil), f.DomainList...), nil
}

func (f *FakeProvider) CreateAccount(_ context.Context, address, password string) (*provider.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.nextID++
	f.Passwords[address] = password
	return &provider.Account{ID: fmt.Sprintf("acc-%d", f.nextID), Address: address, Quota: f.Quota}, nil
}

func (f *FakeProvider) Token(_ context.Context, address, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Passwords[address] != password {
		return "", &provider.AuthError{Address: address, Message: "invalid credentials"}
	}
	f.nextID++
	return fmt.Sprintf("tok-%d", f.nextID), nil
}

func (f *FakeProvider) DeleteAccount(_ context.Context, _, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeletedAccounts = append(f.DeletedAccounts, accountID)
	return nil
}

func (f *FakeProvider) Account(_ context.Context, token string) (*model.AccountDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.AccountErr != nil {
		return nil, f.AccountErr
	}
	var used int64
	for _, m := range f.Inboxes[token] {
		used += m.Size
	}
	return &model.AccountDetails{Quota: f.Quota, Used: used}, nil
}

func (f *FakeProvider) Messages(_ context.Context, token string, page int) (*provider.Page, error) {
	if f.ListHook != nil {
		f.ListHook(token)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.ListCalls++
	if f.ExpiredAuth[token] {
		return nil, &provider.AuthError{Message: "expired token"}
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	all := f.Inboxes[token]
	msgs := all
	if f.PageSize > 0 {
		start := (page - 1) * f.PageSize
		if start >= len(all) {
			msgs = nil
		} else {
			end := start + f.PageSize
			if end > len(all) {
				end = len(all)
			}
			msgs = all[start:end]
		}
	} else if page > 1 {
		msgs = nil
	}

	return &provider.Page{Messages: append([]model.MailMessage(nil), msgs...), Total: len(all)}, nil
}

func (f *FakeProvider) Message(_ context.Context, _, id string) (*model.FullMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	full, ok := f.Bodies[id]
	if !ok {
		return nil, provider.ErrNotFound
	}
	cp := *full
	return &cp, nil
}

func (f *FakeProvider) DeleteMessage(_ context.Context, token, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.DeleteErr[id]; err != nil {
		return err
	}
	f.Deleted = append(f.Deleted, id)

	msgs := f.Inboxes[token]
	for i, m := range msgs {
		if m.ID == id {
			f.Inboxes[token] = append(msgs[:i:i], msgs[i+1:]...)
			break
		}
	}
	return nil
}

func (f *FakeProvider) MarkSeen(_ context.Context, token, id string, seen bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.SeenErr[id]; err != nil {
		return err
	}
	f.MarkedSeen = append(f.MarkedSeen, id)

	for i, m := range f.Inboxes[token] {
		if m.ID == id {
			f.Inboxes[token][i].Seen = seen
		}
	}
	return nil
}

func (f *FakeProvider) Source(_ context.Context, _, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	full, ok := f.Bodies[id]
	if !ok {
		return nil, provider.ErrNotFound
	}
	return []byte(fmt.Sprintf("From: %s\r\nSubject: %s\r\n\r\n%s", full.From, full.Subject, full.Text)), nil
}
