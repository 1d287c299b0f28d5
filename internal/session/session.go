// Package session owns the set of disposable identities, which one is
// active, and the display theme. Every mutation persists the full set.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/nhle/ghostmail/internal/credential"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/provider"
	"github.com/nhle/ghostmail/internal/store"
)

// Keys under which session state is persisted.
const (
	KeyIdentities = "ghostmail.identities"
	KeyActive     = "ghostmail.active"
	KeyTheme      = "ghostmail.theme"
)

// Themes lists the selectable themes in cycle order.
var Themes = []string{"dark", "light", "blue"}

// ErrUnknownIdentity is returned when an id matches no stored identity.
var ErrUnknownIdentity = errors.New("unknown identity")

// ErrUnknownTheme is returned by SetTheme for a name not in Themes.
var ErrUnknownTheme = errors.New("unknown theme")

// Secrets stores mailbox passwords. Implemented by credential.Keyring and
// credential.Memory.
type Secrets interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Store is the session state backed by a key-value store.
type Store struct {
	kv       store.Store
	provider provider.Provider
	secrets  Secrets
	prefix   string

	mu         sync.Mutex
	identities []model.Mailbox
	activeID   string
	theme      string
}

// New creates a session store. Call Restore before use.
func New(kv store.Store, p provider.Provider, secrets Secrets, addressPrefix string) *Store {
	return &Store{
		kv:       kv,
		provider: p,
		secrets:  secrets,
		prefix:   addressPrefix,
		theme:    Themes[0],
	}
}

// Restore loads persisted identities. Corrupt data is discarded; when no
// usable identity remains a fresh one is created. Ids assigned to stored
// identities that lacked one are written back.
func (s *Store) Restore(ctx context.Context) error {
	identities, assigned, err := s.loadIdentities(ctx)
	if err != nil {
		log.Printf("session: discarding stored identities: %v", err)
		if delErr := s.kv.Delete(ctx, KeyIdentities); delErr != nil {
			return fmt.Errorf("clearing identities: %w", delErr)
		}
		identities = nil
	}

	activeID, err := s.kv.Get(ctx, KeyActive)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("reading active identity: %w", err)
	}

	theme, err := s.kv.Get(ctx, KeyTheme)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("reading theme: %w", err)
	}

	s.mu.Lock()
	s.identities = identities
	s.activeID = activeID
	if isTheme(theme) {
		s.theme = theme
	}
	if _, ok := s.indexOf(s.activeID); !ok && len(s.identities) > 0 {
		s.activeID = s.identities[0].ID
	}
	empty := len(s.identities) == 0
	s.mu.Unlock()

	if empty {
		_, err := s.Add(ctx)
		return err
	}
	if assigned {
		return s.persist(ctx)
	}
	return nil
}

// loadIdentities reads and validates the stored identity array. assigned
// reports whether any identity was given a new id.
func (s *Store) loadIdentities(ctx context.Context) (identities []model.Mailbox, assigned bool, err error) {
	raw, err := s.kv.Get(ctx, KeyIdentities)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if err := json.Unmarshal([]byte(raw), &identities); err != nil {
		return nil, false, fmt.Errorf("decoding identities: %w", err)
	}
	for i, mb := range identities {
		if !mb.Valid() {
			return nil, false, fmt.Errorf("identity %d has no address or token", i)
		}
		if mb.ID == "" {
			identities[i].ID = uuid.New().String()
			assigned = true
		}
	}
	return identities, assigned, nil
}

// Identities returns a copy of all identities in creation order.
func (s *Store) Identities() []model.Mailbox {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Mailbox, len(s.identities))
	copy(out, s.identities)
	return out
}

// Active returns the active identity.
func (s *Store) Active() (model.Mailbox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexOf(s.activeID)
	if !ok {
		return model.Mailbox{}, false
	}
	return s.identities[i], true
}

// Theme returns the current theme name.
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// Add creates a new account with the provider and makes it active.
func (s *Store) Add(ctx context.Context) (model.Mailbox, error) {
	creds, err := provider.NewMailbox(ctx, s.provider, s.prefix)
	if err != nil {
		return model.Mailbox{}, fmt.Errorf("creating identity: %w", err)
	}

	mb := creds.Mailbox
	if mb.ID == "" {
		mb.ID = uuid.New().String()
	}

	if err := s.secrets.Set(credential.MailboxKey(mb.ID), creds.Password); err != nil {
		log.Printf("session: saving password for %s: %v", mb.Address, err)
	}

	s.mu.Lock()
	s.identities = append(s.identities, mb)
	s.activeID = mb.ID
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return mb, err
	}
	return mb, nil
}

// Remove deletes an identity. Removing the last identity first creates a
// replacement so the set is never empty. The server-side account is deleted
// best-effort.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	i, ok := s.indexOf(id)
	last := len(s.identities) == 1
	var removed model.Mailbox
	if ok {
		removed = s.identities[i]
	}
	s.mu.Unlock()

	if !ok {
		return ErrUnknownIdentity
	}

	if last {
		if _, err := s.Add(ctx); err != nil {
			return fmt.Errorf("creating replacement identity: %w", err)
		}
	}

	s.mu.Lock()
	if i, ok := s.indexOf(id); ok {
		s.identities = append(s.identities[:i:i], s.identities[i+1:]...)
	}
	if s.activeID == id {
		s.activeID = ""
		if len(s.identities) > 0 {
			s.activeID = s.identities[0].ID
		}
	}
	s.mu.Unlock()

	if removed.ID != "" {
		if err := s.provider.DeleteAccount(ctx, removed.Token, removed.ID); err != nil {
			log.Printf("session: deleting account %s: %v", removed.Address, err)
		}
	}
	if err := s.secrets.Delete(credential.MailboxKey(removed.ID)); err != nil {
		log.Printf("session: dropping password for %s: %v", removed.Address, err)
	}
	if err := s.kv.DeleteNotifications(ctx, removed.ID); err != nil {
		log.Printf("session: dropping notifications for %s: %v", removed.Address, err)
	}

	return s.persist(ctx)
}

// Switch makes id the active identity.
func (s *Store) Switch(ctx context.Context, id string) (model.Mailbox, error) {
	s.mu.Lock()
	i, ok := s.indexOf(id)
	if !ok {
		s.mu.Unlock()
		return model.Mailbox{}, ErrUnknownIdentity
	}
	s.activeID = id
	mb := s.identities[i]
	s.mu.Unlock()

	if err := s.kv.Put(ctx, KeyActive, id); err != nil {
		return mb, fmt.Errorf("saving active identity: %w", err)
	}
	return mb, nil
}

// SetTheme selects and persists a theme.
func (s *Store) SetTheme(ctx context.Context, name string) error {
	if !isTheme(name) {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}

	s.mu.Lock()
	s.theme = name
	s.mu.Unlock()

	if err := s.kv.Put(ctx, KeyTheme, name); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	return nil
}

// NextTheme advances to the theme after the current one.
func (s *Store) NextTheme(ctx context.Context) (string, error) {
	current := s.Theme()
	next := Themes[0]
	for i, t := range Themes {
		if t == current {
			next = Themes[(i+1)%len(Themes)]
			break
		}
	}
	return next, s.SetTheme(ctx, next)
}

// RefreshToken re-issues the bearer token of an identity using the password
// kept in the secret store.
func (s *Store) RefreshToken(ctx context.Context, id string) (model.Mailbox, error) {
	s.mu.Lock()
	i, ok := s.indexOf(id)
	var mb model.Mailbox
	if ok {
		mb = s.identities[i]
	}
	s.mu.Unlock()

	if !ok {
		return model.Mailbox{}, ErrUnknownIdentity
	}

	password, err := s.secrets.Get(credential.MailboxKey(id))
	if err != nil {
		return mb, fmt.Errorf("loading password for %s: %w", mb.Address, err)
	}

	token, err := s.provider.Token(ctx, mb.Address, password)
	if err != nil {
		return mb, fmt.Errorf("refreshing token for %s: %w", mb.Address, err)
	}
	mb.Token = token

	s.mu.Lock()
	if i, ok := s.indexOf(id); ok {
		s.identities[i] = mb
	}
	s.mu.Unlock()

	return mb, s.persist(ctx)
}

// Export writes the identities to w as "json" or "yaml".
func (s *Store) Export(w io.Writer, format string) error {
	backup := struct {
		Active     string          `json:"active" yaml:"active"`
		Identities []model.Mailbox `json:"identities" yaml:"identities"`
	}{}

	s.mu.Lock()
	backup.Active = s.activeID
	backup.Identities = make([]model.Mailbox, len(s.identities))
	copy(backup.Identities, s.identities)
	s.mu.Unlock()

	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(backup)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(backup); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// persist writes the identity array and the active id.
func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	data, err := json.Marshal(s.identities)
	activeID := s.activeID
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding identities: %w", err)
	}

	if err := s.kv.Put(ctx, KeyIdentities, string(data)); err != nil {
		return fmt.Errorf("saving identities: %w", err)
	}
	if err := s.kv.Put(ctx, KeyActive, activeID); err != nil {
		return fmt.Errorf("saving active identity: %w", err)
	}
	return nil
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) (int, bool) {
	if id == "" {
		return -1, false
	}
	for i, mb := range s.identities {
		if mb.ID == id {
			return i, true
		}
	}
	return -1, false
}

func isTheme(name string) bool {
	for _, t := range Themes {
		if t == name {
			return true
		}
	}
	return false
}
