// Package settings is a small key/value store for dashboard
// configuration, primarily the notification address list.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// KeyNotificationEmails holds the comma-separated address list the
// notification sender mails on every schedule edit.
const KeyNotificationEmails = "notification_emails"

// defaults apply when a key has never been set. Last write wins; there
// is no history.
var defaults = map[string]string{
	KeyNotificationEmails: "",
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return defaults[key], nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}
