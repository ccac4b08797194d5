package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
)

// HistoryFor returns the decoded audit trail for one game, most recent
// first. Undecodable tokens are skipped; the log itself is never
// modified by a read.
func (s *Store) HistoryFor(ctx context.Context, gameNumber int64) ([]AuditEntry, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT audit_log FROM games WHERE game_number = ?`, gameNumber).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("history for game %d: %w", gameNumber, err)
	}
	entries := decodeLog(raw)
	reverse(entries)
	return entries, nil
}

// HistoryAll returns every audit entry across all games, newest first.
// Entries from one update share a timestamp; the sort is stable and each
// game's entries are already in reverse append order, so ties keep a
// deterministic order.
func (s *Store) HistoryAll(ctx context.Context) ([]GameAuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_number, audit_log FROM games WHERE audit_log != '' ORDER BY game_number`)
	if err != nil {
		return nil, fmt.Errorf("history all: %w", err)
	}
	defer rows.Close()

	var out []GameAuditEntry
	for rows.Next() {
		var (
			num int64
			raw string
		)
		if err := rows.Scan(&num, &raw); err != nil {
			return nil, err
		}
		entries := decodeLog(raw)
		reverse(entries)
		for _, e := range entries {
			out = append(out, GameAuditEntry{GameNumber: num, AuditEntry: e})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func reverse(entries []AuditEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
