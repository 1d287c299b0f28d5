package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nhle/ghostmail/internal/ai"
	"github.com/nhle/ghostmail/internal/credential"
	"github.com/nhle/ghostmail/internal/inbox"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/provider"
	"github.com/nhle/ghostmail/internal/provider/mailtm"
	"github.com/nhle/ghostmail/internal/session"
	"github.com/nhle/ghostmail/internal/store"
	appsync "github.com/nhle/ghostmail/internal/sync"
)

// Env is the set of services a command runs against.
type Env struct {
	Config  *model.AppConfig
	Store   store.Store
	Secrets session.Secrets
	Session *session.Store
	Inbox   *inbox.Inbox
	Poller  *appsync.Poller
	AI      *ai.Client

	// SaveDir receives saved message sources and exports from the TUI.
	SaveDir string

	closers []func() error
}

// Opener builds the Env for one command invocation.
type Opener func(ctx context.Context, cfg *model.AppConfig) (*Env, error)

// closeTimeout bounds how long Close waits for expiry deletions.
const closeTimeout = 5 * time.Second

// Close stops polling, lets pending expiry deletions finish and releases
// what the opener acquired.
func (e *Env) Close() error {
	e.Poller.Stop()

	var errs []error
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := e.Poller.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("waiting for expiry deletions: %w", err))
	}

	for _, c := range e.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenEnv opens the configured store, the mail.tm client and the system
// keyring.
func OpenEnv(ctx context.Context, cfg *model.AppConfig) (*Env, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	kv, err := store.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	opts := []mailtm.Option{mailtm.WithRateLimit(cfg.Provider.RateLimit)}
	if cfg.Provider.TimeoutSec > 0 {
		opts = append(opts, mailtm.WithTimeout(time.Duration(cfg.Provider.TimeoutSec)*time.Second))
	}
	client := mailtm.NewClient(cfg.Provider.BaseURL, opts...)

	env, err := NewEnv(ctx, cfg, kv, client, credential.NewKeyring(""))
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	env.closers = append(env.closers, kv.Close)
	return env, nil
}

// NewEnv restores the session from kv and wires the inbox, poller and AI
// client around it. The caller keeps ownership of kv.
func NewEnv(ctx context.Context, cfg *model.AppConfig, kv store.Store, p provider.Provider, secrets session.Secrets) (*Env, error) {
	sess := session.New(kv, p, secrets, cfg.Provider.AddressPrefix)
	if err := sess.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	// The configured theme only applies until one is picked in the TUI.
	if _, err := kv.Get(ctx, session.KeyTheme); errors.Is(err, store.ErrNotFound) && cfg.Display.Theme != "" {
		if err := sess.SetTheme(ctx, cfg.Display.Theme); err != nil {
			log.Printf("config: %v", err)
		}
	}

	in := inbox.New(p)

	return &Env{
		Config:  cfg,
		Store:   kv,
		Secrets: secrets,
		Session: sess,
		Inbox:   in,
		Poller:  appsync.New(p, in, kv, appsync.OptionsFromConfig(cfg.Poll)),
		AI:      ai.New(aiKey(secrets), cfg.AI.Model, cfg.AI.BaseURL),
		SaveDir: filepath.Join(model.ConfigDir(), "saved"),
	}, nil
}

// aiKey looks up the generative-language API key: GEMINI_API_KEY, then
// API_KEY, then the keyring.
func aiKey(secrets session.Secrets) string {
	for _, name := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	key, err := secrets.Get(credential.AIKeyName)
	if err != nil {
		return ""
	}
	return key
}
