package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("game not found")

// Store owns the canonical copy of every game row and its audit log.
// Mutations go through UpdateGame only; any snapshot a caller holds is
// stale after an update. There is no optimistic concurrency: the later
// writer's full field set wins.
type Store struct {
	db  *sql.DB
	log *logrus.Logger
	now func() time.Time
}

func NewStore(db *sql.DB, log *logrus.Logger) *Store {
	return &Store{db: db, log: log, now: time.Now}
}

const gameColumns = `game_number, division, week, day, game_date, time, field, home, away, status, comment, original_date, audit_log, last_updated`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(r rowScanner) (Game, error) {
	var g Game
	err := r.Scan(&g.GameNumber, &g.Division, &g.Week, &g.Day, &g.GameDate,
		&g.Time, &g.Field, &g.Home, &g.Away, &g.Status, &g.Comment,
		&g.OriginalDate, &g.AuditLog, &g.LastUpdated)
	return g, err
}

func (s *Store) Get(ctx context.Context, gameNumber int64) (Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE game_number = ?`, gameNumber)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, ErrNotFound
	}
	if err != nil {
		return Game{}, fmt.Errorf("get game %d: %w", gameNumber, err)
	}
	return g, nil
}

// Filter narrows List. Empty slices/strings mean "no restriction".
type Filter struct {
	Divisions []string
	Weeks     []int
	Fields    []string
	Team      string // matches home or away
}

func (s *Store) List(ctx context.Context, f Filter) ([]Game, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Divisions) > 0 {
		where = append(where, `division IN (`+placeholders(len(f.Divisions))+`)`)
		for _, d := range f.Divisions {
			args = append(args, d)
		}
	}
	if len(f.Weeks) > 0 {
		where = append(where, `week IN (`+placeholders(len(f.Weeks))+`)`)
		for _, w := range f.Weeks {
			args = append(args, w)
		}
	}
	if len(f.Fields) > 0 {
		where = append(where, `field IN (`+placeholders(len(f.Fields))+`)`)
		for _, fl := range f.Fields {
			args = append(args, fl)
		}
	}
	if f.Team != "" {
		where = append(where, `(home = ? OR away = ?)`)
		args = append(args, f.Team, f.Team)
	}

	q := `SELECT ` + gameColumns + ` FROM games`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY week, game_date, time, game_number`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Divisions returns the distinct division names, sorted.
func (s *Store) Divisions(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT division FROM games WHERE division != '' ORDER BY division`)
}

// Teams returns every team that appears as home or away, sorted.
func (s *Store) Teams(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `
		SELECT DISTINCT t FROM (
			SELECT home AS t FROM games UNION SELECT away FROM games
		) WHERE t != '' ORDER BY t`)
}

func (s *Store) distinct(ctx context.Context, q string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateGame applies a full proposed field set to one game. It diffs the
// proposal against the stored row, recomputes the derived week/day pair
// from the proposed date, appends one audit entry per changed field
// (user fields first in a fixed order, then the derived pair), stamps
// last_updated, and persists everything in one transaction.
//
// A proposal identical to the stored row is a no-op: no entries, no
// timestamp bump. An unknown game number returns ErrNotFound and never
// creates a row. Storage errors surface verbatim; the update is never
// retried, since re-running a diff-and-append could duplicate entries.
func (s *Store) UpdateGame(ctx context.Context, gameNumber int64, p Proposed) (UpdateResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE game_number = ?`, gameNumber)
	cur, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return UpdateResult{}, ErrNotFound
	}
	if err != nil {
		return UpdateResult{}, fmt.Errorf("load game %d: %w", gameNumber, err)
	}

	// User-edited fields in fixed display order.
	changes := diffFields(cur, p)

	// Derived pair follows the proposed date. (0,0) means the date did
	// not parse; the sentinel is stored as-is (legacy behavior).
	week, day := Derive(p.GameDate)
	if week != cur.Week || day != cur.Day {
		changes = append(changes,
			FieldChange{FieldWeekAuto, strconv.Itoa(cur.Week), strconv.Itoa(week)},
			FieldChange{FieldDayAuto, strconv.Itoa(cur.Day), strconv.Itoa(day)},
		)
	}

	if len(changes) == 0 {
		return UpdateResult{Game: cur}, nil
	}

	ts := s.now()
	tokens := make([]string, 0, len(changes))
	for _, c := range changes {
		tokens = append(tokens, encodeEntry(c.Field, c.Old, c.New, ts))
	}
	newLog := appendLog(cur.AuditLog, tokens)

	updated := cur
	updated.GameDate = p.GameDate
	updated.Field = p.Field
	updated.Time = p.Time
	updated.Home = p.Home
	updated.Away = p.Away
	updated.Status = p.Status
	updated.Comment = p.Comment
	updated.OriginalDate = p.OriginalDate
	updated.Week = week
	updated.Day = day
	updated.AuditLog = newLog
	updated.LastUpdated = ts.Unix()

	_, err = tx.ExecContext(ctx, `
		UPDATE games SET
			division = ?, week = ?, day = ?, game_date = ?, time = ?,
			field = ?, home = ?, away = ?, status = ?, comment = ?,
			original_date = ?, audit_log = ?, last_updated = ?
		WHERE game_number = ?`,
		updated.Division, updated.Week, updated.Day, updated.GameDate,
		updated.Time, updated.Field, updated.Home, updated.Away,
		updated.Status, updated.Comment, updated.OriginalDate,
		updated.AuditLog, updated.LastUpdated, gameNumber)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update game %d: %w", gameNumber, err)
	}
	if err := tx.Commit(); err != nil {
		return UpdateResult{}, fmt.Errorf("commit update: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"game":    gameNumber,
		"changed": len(changes),
	}).Info("game updated")

	return UpdateResult{Changes: changes, Game: updated}, nil
}

func diffFields(cur Game, p Proposed) []FieldChange {
	var out []FieldChange
	add := func(name, oldVal, newVal string) {
		if oldVal != newVal {
			out = append(out, FieldChange{name, oldVal, newVal})
		}
	}
	add(FieldGameDate, cur.GameDate, p.GameDate)
	add(FieldField, cur.Field, p.Field)
	add(FieldTime, cur.Time, p.Time)
	add(FieldHome, cur.Home, p.Home)
	add(FieldAway, cur.Away, p.Away)
	add(FieldStatus, cur.Status, p.Status)
	add(FieldComment, cur.Comment, p.Comment)
	add(FieldOriginalDate, cur.OriginalDate, p.OriginalDate)
	return out
}

// UpdateComment is the inline grid edit: a full update where only the
// comment differs, so both write paths share the same audit invariants.
func (s *Store) UpdateComment(ctx context.Context, gameNumber int64, comment string) (UpdateResult, error) {
	cur, err := s.Get(ctx, gameNumber)
	if err != nil {
		return UpdateResult{}, err
	}
	return s.UpdateGame(ctx, gameNumber, Proposed{
		GameDate:     cur.GameDate,
		Field:        cur.Field,
		Time:         cur.Time,
		Home:         cur.Home,
		Away:         cur.Away,
		Status:       cur.Status,
		Comment:      comment,
		OriginalDate: cur.OriginalDate,
	})
}
