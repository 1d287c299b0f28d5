package provider

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/ghostmail/internal/model"
)

// AuthError indicates that a bearer token was rejected by the provider.
// It is returned by provider clients when a 401 response is received.
type AuthError struct {
	Address string
	Message string
}

func (e *AuthError) Error() string {
	if e.Address == "" {
		return fmt.Sprintf("auth error: %s", e.Message)
	}
	return fmt.Sprintf("auth error (%s): %s", e.Address, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ErrNotFound is returned when the provider has no such resource.
var ErrNotFound = errors.New("not found")

// ErrNoDomains is returned when the provider offers no active domain.
var ErrNoDomains = errors.New("no domains available")

// Page is one page of a message listing.
type Page struct {
	Messages []model.MailMessage
	Total    int
}

// Account is the provider's record of a created mailbox account.
type Account struct {
	ID      string
	Address string
	Quota   int64
	Used    int64
}

// Provider is the contract a disposable-mail backend must implement.
// Every call that acts on a mailbox takes its bearer token.
type Provider interface {
	// Domains lists the domains available for new accounts.
	Domains(ctx context.Context) ([]model.Domain, error)

	// CreateAccount registers address with password.
	CreateAccount(ctx context.Context, address, password string) (*Account, error)

	// Token exchanges credentials for a bearer token.
	Token(ctx context.Context, address, password string) (string, error)

	// DeleteAccount removes the account from the provider.
	DeleteAccount(ctx context.Context, token, accountID string) error

	// Account returns quota details for the token's account.
	Account(ctx context.Context, token string) (*model.AccountDetails, error)

	// Messages returns one page (1-based) of the inbox, newest first.
	Messages(ctx context.Context, token string, page int) (*Page, error)

	// Message returns the full content of a message.
	Message(ctx context.Context, token, id string) (*model.FullMessage, error)

	// DeleteMessage removes a message.
	DeleteMessage(ctx context.Context, token, id string) error

	// MarkSeen sets the read state of a message.
	MarkSeen(ctx context.Context, token, id string, seen bool) error

	// Source returns the raw RFC 5322 source of a message.
	Source(ctx context.Context, token, id string) ([]byte, error)
}

// Credentials are the generated login for a new mailbox. The password is
// needed later to re-issue an expired token.
type Credentials struct {
	Mailbox  model.Mailbox
	Password string
}

// NewMailbox creates a fresh account on the first active domain and logs
// in to it. The address is prefix followed by the current Unix time in
// milliseconds.
func NewMailbox(ctx context.Context, p Provider, prefix string) (*Credentials, error) {
	domains, err := p.Domains(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing domains: %w", err)
	}

	var domain string
	for _, d := range domains {
		if d.IsActive {
			domain = d.Domain
			break
		}
	}
	if domain == "" {
		return nil, ErrNoDomains
	}

	password, err := randomPassword()
	if err != nil {
		return nil, err
	}

	address := fmt.Sprintf("%s%d@%s", prefix, time.Now().UnixMilli(), domain)

	acct, err := p.CreateAccount(ctx, address, password)
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", address, err)
	}

	token, err := p.Token(ctx, address, password)
	if err != nil {
		return nil, fmt.Errorf("getting access token for %s: %w", address, err)
	}
	if token == "" {
		return nil, fmt.Errorf("getting access token for %s: empty token", address)
	}

	return &Credentials{
		Mailbox: model.Mailbox{
			Address: address,
			Token:   token,
			ID:      acct.ID,
		},
		Password: password,
	}, nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
