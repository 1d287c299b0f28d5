package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/nhle/ghostmail/internal/model"
)

const (
	kvBucket           = "kv"
	notificationBucket = "notifications"
)

// BoltStore implements the Store interface on a single bbolt file.
// Notifications live in one sub-bucket per mailbox, gob-encoded.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the bbolt database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("cannot open %q: %w", path, err)
	}

	options := *bolt.DefaultOptions
	options.Timeout = 10 * time.Second

	db, err := bolt.Open(path, 0o600, &options)
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{kvBucket, notificationBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key, or ErrNotFound.
func (s *BoltStore) Get(_ context.Context, key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(kvBucket)).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		value = string(v)
		return nil
	})
	return value, err
}

// Put stores value under key.
func (s *BoltStore) Put(_ context.Context, key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kvBucket)).Put([]byte(key), []byte(value))
	})
}

// Delete removes key.
func (s *BoltStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kvBucket)).Delete([]byte(key))
	})
}

// CreateNotification stores n in its mailbox bucket.
func (s *BoltStore) CreateNotification(_ context.Context, n model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	data, err := serializeNotification(&n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket([]byte(notificationBucket)).
			CreateBucketIfNotExists([]byte(n.MailboxID))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(n.ID), data)
	})
}

// GetUnreadNotifications returns the unread notifications of a mailbox,
// newest first.
func (s *BoltStore) GetUnreadNotifications(
	_ context.Context,
	mailboxID string,
) ([]model.Notification, error) {
	var list []model.Notification

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(notificationBucket)).Bucket([]byte(mailboxID))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			n, err := deserializeNotification(v)
			if err != nil {
				return err
			}
			if !n.Read {
				list = append(list, *n)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading notifications of %s: %w", mailboxID, err)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// MarkNotificationsRead marks every notification of a mailbox as read.
func (s *BoltStore) MarkNotificationsRead(_ context.Context, mailboxID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(notificationBucket)).Bucket([]byte(mailboxID))
		if bucket == nil {
			return nil
		}

		updates := make(map[string][]byte)
		err := bucket.ForEach(func(k, v []byte) error {
			n, err := deserializeNotification(v)
			if err != nil {
				return err
			}
			if n.Read {
				return nil
			}
			n.Read = true
			data, err := serializeNotification(n)
			if err != nil {
				return err
			}
			updates[string(k)] = data
			return nil
		})
		if err != nil {
			return err
		}

		// Buckets must not be modified while iterating.
		for k, data := range updates {
			if err := bucket.Put([]byte(k), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteNotifications drops the mailbox's notification bucket.
func (s *BoltStore) DeleteNotifications(_ context.Context, mailboxID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket([]byte(notificationBucket)).DeleteBucket([]byte(mailboxID))
		if err == bolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
}

func serializeNotification(n *model.Notification) ([]byte, error) {
	buffer := &bytes.Buffer{}
	err := gob.NewEncoder(buffer).Encode(n)
	return buffer.Bytes(), err
}

func deserializeNotification(input []byte) (*model.Notification, error) {
	output := new(model.Notification)
	err := gob.NewDecoder(bytes.NewBuffer(input)).Decode(output)
	return output, err
}
