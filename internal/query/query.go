// Package query exposes the admin ad-hoc SQL console. It accepts one
// read-only statement at a time; anything that is not a single SELECT
// or PRAGMA is rejected before it reaches the database. This bypasses
// the schedule store entirely, so results reflect only SQLite's own
// read isolation against concurrent edits.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrRejected = errors.New("query rejected")

// maxRows caps console output; this is a reporting aid, not an export path.
const maxRows = 500

// Result is a column-ordered rowset for the console grid.
type Result struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Truncated bool     `json:"truncated"`
}

// validate admits exactly one statement whose first keyword is SELECT or
// PRAGMA. Statement stacking via ';' is refused outright, which is
// stricter than a keyword blocklist over free text.
func validate(q string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return fmt.Errorf("%w: empty statement", ErrRejected)
	}
	if strings.Contains(strings.TrimSuffix(q, ";"), ";") {
		return fmt.Errorf("%w: multiple statements", ErrRejected)
	}
	first := strings.ToUpper(strings.Fields(q)[0])
	if first != "SELECT" && first != "PRAGMA" {
		return fmt.Errorf("%w: only SELECT and PRAGMA are allowed", ErrRejected)
	}
	return nil
}

// Run executes one validated read-only statement.
func Run(ctx context.Context, db *sql.DB, q string) (Result, error) {
	if err := validate(q); err != nil {
		return Result{}, err
	}

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return Result{}, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	res := Result{Columns: cols}
	for rows.Next() {
		if len(res.Rows) >= maxRows {
			res.Truncated = true
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	return res, rows.Err()
}
