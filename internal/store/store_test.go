package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ghostmail/internal/model"
)

// backends returns one freshly opened instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)

	bolt, err := NewBoltStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, sqlite.Close())
		assert.NoError(t, bolt.Close())
	})

	return map[string]Store{"sqlite": sqlite, "bolt": bolt}
}

func TestKeyValue(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "ghostmail.active", "a1"))
			v, err := s.Get(ctx, "ghostmail.active")
			require.NoError(t, err)
			assert.Equal(t, "a1", v)

			require.NoError(t, s.Put(ctx, "ghostmail.active", "a2"))
			v, err = s.Get(ctx, "ghostmail.active")
			require.NoError(t, err)
			assert.Equal(t, "a2", v)

			require.NoError(t, s.Delete(ctx, "ghostmail.active"))
			_, err = s.Get(ctx, "ghostmail.active")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, s.Delete(ctx, "ghostmail.active"), "deleting twice is fine")
		})
	}
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.CreateNotification(ctx, model.Notification{
				MailboxID: "box1", MessageID: "m1", Message: "first", CreatedAt: base,
			}))
			require.NoError(t, s.CreateNotification(ctx, model.Notification{
				MailboxID: "box1", MessageID: "m2", Message: "second", CreatedAt: base.Add(time.Minute),
			}))
			require.NoError(t, s.CreateNotification(ctx, model.Notification{
				MailboxID: "box2", MessageID: "m3", Message: "other box", CreatedAt: base,
			}))

			unread, err := s.GetUnreadNotifications(ctx, "box1")
			require.NoError(t, err)
			require.Len(t, unread, 2)
			assert.Equal(t, "m2", unread[0].MessageID, "newest first")
			assert.Equal(t, "m1", unread[1].MessageID)
			assert.NotEmpty(t, unread[0].ID)

			require.NoError(t, s.MarkNotificationsRead(ctx, "box1"))
			unread, err = s.GetUnreadNotifications(ctx, "box1")
			require.NoError(t, err)
			assert.Empty(t, unread)

			unread, err = s.GetUnreadNotifications(ctx, "box2")
			require.NoError(t, err)
			assert.Len(t, unread, 1)

			require.NoError(t, s.DeleteNotifications(ctx, "box2"))
			unread, err = s.GetUnreadNotifications(ctx, "box2")
			require.NoError(t, err)
			assert.Empty(t, unread)

			assert.NoError(t, s.DeleteNotifications(ctx, "never-existed"))
			assert.NoError(t, s.MarkNotificationsRead(ctx, "never-existed"))
		})
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(model.StorageConfig{Driver: "bolt", Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &BoltStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(model.StorageConfig{Driver: "sqlite", Path: filepath.Join(dir, "b.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(model.StorageConfig{Driver: "redis"})
	assert.Error(t, err)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ghostmail.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "ghostmail.theme", "blue"))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get(ctx, "ghostmail.theme")
	require.NoError(t, err)
	assert.Equal(t, "blue", v)
}
