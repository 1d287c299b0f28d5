package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/ghostmail/internal/model"
)

// ErrNotFound is returned by Get when no value is stored under a key.
var ErrNotFound = errors.New("key not found")

// Store defines the client-side persistence interface: a string key-value
// space for session state plus per-mailbox arrival notifications.
type Store interface {
	// === Key-value ===

	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetUnreadNotifications(ctx context.Context, mailboxID string) ([]model.Notification, error)
	MarkNotificationsRead(ctx context.Context, mailboxID string) error
	DeleteNotifications(ctx context.Context, mailboxID string) error

	Close() error
}

// Open returns the backend selected by cfg.Driver ("sqlite" or "bolt").
func Open(cfg model.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "bolt", "bbolt":
		return NewBoltStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
