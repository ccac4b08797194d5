package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"
)

var ErrNoSession = errors.New("no valid session")

// Repository persists admin session tokens. There are no user accounts:
// the dashboard has one shared admin password, so a session only proves
// "knows the password".
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

type Session struct {
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewToken returns a cryptographically secure random token (hex-64)
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (r *Repository) CreateSession(ctx context.Context, ttl time.Duration) (Session, error) {
	tok, err := NewToken()
	if err != nil {
		return Session{}, err
	}
	exp := time.Now().Add(ttl).UTC()
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (token, expires_at) VALUES (?, ?) RETURNING token, expires_at, created_at`,
		tok, exp,
	)
	var s Session
	if err := row.Scan(&s.Token, &s.ExpiresAt, &s.CreatedAt); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// ValidateSession checks a token, cleaning up expired sessions as it goes.
func (r *Repository) ValidateSession(ctx context.Context, token string) error {
	// Clean up expired while checking
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < CURRENT_TIMESTAMP`); err != nil {
		// non-fatal
		_ = err
	}
	var tok string
	err := r.db.QueryRowContext(ctx,
		`SELECT token FROM sessions WHERE token = ? AND expires_at > CURRENT_TIMESTAMP`, token,
	).Scan(&tok)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoSession
	}
	return err
}
