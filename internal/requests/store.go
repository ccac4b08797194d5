// Package requests handles schedule-change requests submitted by team
// contacts: logged with a reference code, reviewed by the scheduling
// team, and resolved to Approved or Denied.
package requests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("request not found")
	ErrInvalid    = errors.New("invalid request")
	ErrBadStatus  = errors.New("unknown status")
	validStatuses = []string{StatusPending, StatusApproved, StatusDenied}
)

const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusDenied   = "Denied"
)

type Request struct {
	ID          int64     `json:"id"`
	Reference   string    `json:"reference"`
	Email       string    `json:"email"`
	Division    string    `json:"division"`
	GameDetails string    `json:"game_details"`
	RequestType string    `json:"request_type"`
	Reason      string    `json:"reason"`
	SubmittedAt time.Time `json:"submitted_at"`
	Status      string    `json:"status"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Create validates and persists a new request with status Pending and a
// fresh reference code.
func (s *Store) Create(ctx context.Context, req Request) (Request, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return Request{}, fmt.Errorf("%w: email required", ErrInvalid)
	}
	if req.Reason == "" {
		return Request{}, fmt.Errorf("%w: reason required", ErrInvalid)
	}

	req.Reference = uuid.NewString()
	req.Status = StatusPending

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO schedule_requests (reference, email, division, game_details, request_type, reason)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, reference, email, division, game_details, request_type, reason, submitted_at, status`,
		req.Reference, req.Email, req.Division, req.GameDetails, req.RequestType, req.Reason)
	var out Request
	if err := row.Scan(&out.ID, &out.Reference, &out.Email, &out.Division,
		&out.GameDetails, &out.RequestType, &out.Reason, &out.SubmittedAt,
		&out.Status); err != nil {
		return Request{}, fmt.Errorf("create request: %w", err)
	}
	return out, nil
}

// List returns requests newest first, optionally narrowed to statuses.
func (s *Store) List(ctx context.Context, statuses []string) ([]Request, error) {
	q := `SELECT id, reference, email, division, game_details, request_type, reason, submitted_at, status
		FROM schedule_requests`
	var args []any
	if len(statuses) > 0 {
		q += ` WHERE status IN (` + strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",") + `)`
		for _, st := range statuses {
			args = append(args, st)
		}
	}
	q += ` ORDER BY submitted_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var r Request
		if err := rows.Scan(&r.ID, &r.Reference, &r.Email, &r.Division,
			&r.GameDetails, &r.RequestType, &r.Reason, &r.SubmittedAt,
			&r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateStatus moves a request to Pending, Approved, or Denied.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status string) error {
	ok := false
	for _, v := range validStatuses {
		if status == v {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrBadStatus, status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE schedule_requests SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update request %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
