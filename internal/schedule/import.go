package schedule

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// parseImport reads a CSV or XLSX schedule export from a multipart form
// file and returns the games it describes.
func parseImport(fh *multipart.FileHeader) ([]Game, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch ext {
	case ".csv":
		return parseCSV(file)
	case ".xlsx":
		b, err := io.ReadAll(io.LimitReader(file, 10<<20))
		if err != nil {
			return nil, err
		}
		return parseXLSX(b)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

func parseCSV(r io.Reader) ([]Game, error) {
	br := bufio.NewReader(r)
	// Peek first line to guess delimiter
	line, _ := br.ReadString('\n')
	rest := io.MultiReader(strings.NewReader(line), br)
	reader := csv.NewReader(rest)
	reader.FieldsPerRecord = -1
	if strings.Count(line, ";") > strings.Count(line, ",") {
		reader.Comma = ';'
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty csv")
	}
	headers := normHeaders(rows[0])
	var out []Game
	for i := 1; i < len(rows); i++ {
		if len(strings.TrimSpace(strings.Join(rows[i], ""))) == 0 {
			continue
		}
		out = append(out, rowToGame(headers, rows[i]))
	}
	return out, nil
}

func parseXLSX(b []byte) ([]Game, error) {
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no sheet")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty sheet")
	}
	headers := normHeaders(rows[0])
	var out []Game
	for i := 1; i < len(rows); i++ {
		if len(strings.TrimSpace(strings.Join(rows[i], ""))) == 0 {
			continue
		}
		out = append(out, rowToGame(headers, rows[i]))
	}
	return out, nil
}

// normalize headers: lower, keep letters/digits, map scheduler aliases
func normHeaders(hdr []string) map[int]string {
	m := make(map[int]string, len(hdr))
	for i, h := range hdr {
		k := strings.ToLower(strings.TrimSpace(h))
		b := strings.Builder{}
		for _, r := range k {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
		k = b.String()
		switch k {
		case "game", "gameno", "gamenum":
			k = "gamenumber"
		case "div":
			k = "division"
		case "date":
			k = "gamedate"
		case "gametime", "starttime":
			k = "time"
		case "hometeam":
			k = "home"
		case "awayteam", "visitor":
			k = "away"
		case "comments", "notes":
			k = "comment"
		case "origdate":
			k = "originaldate"
		}
		m[i] = k
	}
	return m
}

func rowToGame(h map[int]string, row []string) Game {
	get := func(key string) string {
		for i, k := range h {
			if k == key && i < len(row) {
				return strings.TrimSpace(row[i])
			}
		}
		return ""
	}
	atoi := func(s string) int64 {
		if s == "" {
			return 0
		}
		v, _ := strconv.ParseInt(s, 10, 64)
		return v
	}

	g := Game{
		GameNumber:   atoi(get("gamenumber")),
		Division:     get("division"),
		GameDate:     get("gamedate"),
		Time:         get("time"),
		Field:        get("field"),
		Home:         get("home"),
		Away:         get("away"),
		Status:       get("status"),
		Comment:      get("comment"),
		OriginalDate: get("originaldate"),
	}
	// Derived pair follows the date; fall back to the sheet's own Week
	// column when the date does not parse.
	g.Week, g.Day = Derive(g.GameDate)
	if g.Week == 0 {
		g.Week = int(atoi(get("week")))
	}
	return g
}

// ReplaceAll swaps in a freshly imported schedule: every existing row
// and its audit history is dropped. Season setup only.
func (s *Store) ReplaceAll(ctx context.Context, games []Game) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM games`); err != nil {
		return 0, fmt.Errorf("clear games: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO games (game_number, division, week, day, game_date, time,
			field, home, away, status, comment, original_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, g := range games {
		if g.GameNumber == 0 {
			continue // a game without a number has no stable identity
		}
		if _, err := stmt.ExecContext(ctx, g.GameNumber, g.Division, g.Week,
			g.Day, g.GameDate, g.Time, g.Field, g.Home, g.Away, g.Status,
			g.Comment, g.OriginalDate); err != nil {
			return 0, fmt.Errorf("insert game %d: %w", g.GameNumber, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	s.log.WithField("games", n).Info("schedule imported")
	return n, nil
}
