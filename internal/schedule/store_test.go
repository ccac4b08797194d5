package schedule

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/jonathancadepowers/wusa-reports/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := dbpkg.Open(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := dbpkg.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewStore(newTestDB(t), log)
}

func seedGame(t *testing.T, s *Store, g Game) {
	t.Helper()
	_, err := s.db.Exec(`
		INSERT INTO games (game_number, division, week, day, game_date, time,
			field, home, away, status, comment, original_date, audit_log, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.GameNumber, g.Division, g.Week, g.Day, g.GameDate, g.Time, g.Field,
		g.Home, g.Away, g.Status, g.Comment, g.OriginalDate, g.AuditLog, g.LastUpdated)
	if err != nil {
		t.Fatalf("seed game: %v", err)
	}
}

// testGame is a Monday in ISO week 40.
func testGame() Game {
	return Game{
		GameNumber: 101,
		Division:   "U10",
		Week:       40,
		Day:        1,
		GameDate:   "2025-09-29",
		Time:       "09:00",
		Field:      "Field 1",
		Home:       "Tigers",
		Away:       "Sharks",
		Status:     "Scheduled",
	}
}

func proposedFrom(g Game) Proposed {
	return Proposed{
		GameDate:     g.GameDate,
		Field:        g.Field,
		Time:         g.Time,
		Home:         g.Home,
		Away:         g.Away,
		Status:       g.Status,
		Comment:      g.Comment,
		OriginalDate: g.OriginalDate,
	}
}

func TestUpdateGame_NoOpLeavesEverythingUntouched(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, testGame())
	ctx := context.Background()

	res, err := s.UpdateGame(ctx, 101, proposedFrom(testGame()))
	require.NoError(t, err)
	assert.Empty(t, res.Changes)

	g, err := s.Get(ctx, 101)
	require.NoError(t, err)
	assert.Zero(t, g.LastUpdated, "no-op must not bump last_updated")
	assert.Empty(t, g.AuditLog, "no-op must not append entries")
}

func TestUpdateGame_CommentOnly(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, testGame())
	ctx := context.Background()

	p := proposedFrom(testGame())
	p.Comment = "field swap pending"
	res, err := s.UpdateGame(ctx, 101, p)
	require.NoError(t, err)

	require.Len(t, res.Changes, 1)
	assert.Equal(t, FieldChange{FieldComment, "", "field swap pending"}, res.Changes[0])

	g, err := s.Get(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, 40, g.Week, "week must be untouched by a comment edit")
	assert.Equal(t, 1, g.Day)
	assert.NotZero(t, g.LastUpdated)
	assert.Len(t, decodeLog(g.AuditLog), 1)
}

func TestUpdateGame_DateChangeAddsDerivedEntries(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, testGame())
	ctx := context.Background()

	// Monday in ISO week 40 -> Wednesday in ISO week 41
	p := proposedFrom(testGame())
	p.GameDate = "2025-10-08"
	res, err := s.UpdateGame(ctx, 101, p)
	require.NoError(t, err)

	require.Len(t, res.Changes, 3)
	assert.Equal(t, FieldChange{FieldGameDate, "2025-09-29", "2025-10-08"}, res.Changes[0])
	assert.Equal(t, FieldChange{FieldWeekAuto, "40", "41"}, res.Changes[1])
	assert.Equal(t, FieldChange{FieldDayAuto, "1", "3"}, res.Changes[2])

	g, err := s.Get(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, 41, g.Week)
	assert.Equal(t, 3, g.Day)
	assert.Len(t, decodeLog(g.AuditLog), 3)
}

func TestUpdateGame_DerivedPairAlwaysMatchesStoredDate(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, testGame())
	ctx := context.Background()

	for _, date := range []string{"2025-10-08", "2025-11-02", "garbage date", "2025-12-01"} {
		p := proposedFrom(testGame())
		p.GameDate = date
		_, err := s.UpdateGame(ctx, 101, p)
		require.NoError(t, err)

		g, err := s.Get(ctx, 101)
		require.NoError(t, err)
		week, day := Derive(g.GameDate)
		assert.Equal(t, week, g.Week, "date %q", date)
		assert.Equal(t, day, g.Day, "date %q", date)
	}
}

func TestUpdateGame_UnparseableDateStoresSentinel(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, testGame())
	ctx := context.Background()

	p := proposedFrom(testGame())
	p.GameDate = "TBD"
	res, err := s.UpdateGame(ctx, 101, p)
	require.NoError(t, err, "a bad date degrades to the sentinel, it does not fail the update")

	require.Len(t, res.Changes, 3)
	assert.Equal(t, FieldChange{FieldWeekAuto, "40", "0"}, res.Changes[1])
	assert.Equal(t, FieldChange{FieldDayAuto, "1", "0"}, res.Changes[2])

	g, err := s.Get(ctx, 101)
	require.NoError(t, err)
	assert.Zero(t, g.Week)
	assert.Zero(t, g.Day)
}

func TestUpdateGame_AppendOnlyAcrossUpdates(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, testGame())
	ctx := context.Background()

	base := time.Date(2025, 9, 14, 12, 0, 0, 0, time.Local)
	step := 0
	s.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}

	edits := []func(*Proposed){
		func(p *Proposed) { p.Comment = "first" },
		func(p *Proposed) { p.Status = "Rained Out" },
		func(p *Proposed) { p.Field = "Field 2" },
	}
	cur := testGame()
	var wantFields []string
	for _, edit := range edits {
		p := proposedFrom(cur)
		edit(&p)
		res, err := s.UpdateGame(ctx, 101, p)
		require.NoError(t, err)
		require.Len(t, res.Changes, 1)
		wantFields = append(wantFields, res.Changes[0].Field)
		cur = res.Game
	}

	g, err := s.Get(ctx, 101)
	require.NoError(t, err)
	entries := decodeLog(g.AuditLog)
	require.Len(t, entries, len(wantFields))
	for i, e := range entries {
		assert.Equal(t, wantFields[i], e.Field, "entry %d out of append order", i)
	}
	assert.True(t, entries[0].Timestamp.Before(entries[2].Timestamp))
}

func TestUpdateGame_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpdateGame(ctx, 999, proposedFrom(testGame()))
	assert.ErrorIs(t, err, ErrNotFound)

	// a failed update must never create the record
	_, err = s.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateGame_StorageFailureIsAtomic(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, testGame())
	ctx := context.Background()

	before, err := s.Get(ctx, 101)
	require.NoError(t, err)

	_, err = s.db.Exec(`
		CREATE TRIGGER fail_game_updates BEFORE UPDATE ON games
		BEGIN SELECT RAISE(ABORT, 'simulated storage failure'); END`)
	require.NoError(t, err)
	defer func() {
		_, err := s.db.Exec(`DROP TRIGGER fail_game_updates`)
		require.NoError(t, err)
	}()

	p := proposedFrom(testGame())
	p.GameDate = "2025-10-08"
	p.Comment = "should never land"
	_, err = s.UpdateGame(ctx, 101, p)
	require.Error(t, err, "storage failure must surface, not be swallowed")

	after, err := s.Get(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed update must leave fields, derived pair, and log untouched")
}

func TestUpdateComment_GoesThroughAudit(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, testGame())
	ctx := context.Background()

	res, err := s.UpdateComment(ctx, 101, "inline note")
	require.NoError(t, err)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, FieldComment, res.Changes[0].Field)

	// unchanged comment is a no-op, same as the full form
	res, err = s.UpdateComment(ctx, 101, "inline note")
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
}

func TestList_Filters(t *testing.T) {
	s := newTestStore(t)
	g1 := testGame()
	g2 := testGame()
	g2.GameNumber = 102
	g2.Division = "U12"
	g2.Field = "Field 2"
	g2.Home = "Hawks"
	g2.Away = "Tigers"
	g3 := testGame()
	g3.GameNumber = 103
	g3.GameDate = "2025-10-06"
	g3.Week = 41
	seedGame(t, s, g1)
	seedGame(t, s, g2)
	seedGame(t, s, g3)
	ctx := context.Background()

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	u12, err := s.List(ctx, Filter{Divisions: []string{"U12"}})
	require.NoError(t, err)
	require.Len(t, u12, 1)
	assert.EqualValues(t, 102, u12[0].GameNumber)

	wk40, err := s.List(ctx, Filter{Weeks: []int{40}})
	require.NoError(t, err)
	assert.Len(t, wk40, 2)

	tigers, err := s.List(ctx, Filter{Team: "Tigers"})
	require.NoError(t, err)
	assert.Len(t, tigers, 3, "team filter matches home or away")

	both, err := s.List(ctx, Filter{Divisions: []string{"U10"}, Fields: []string{"Field 1"}})
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

func TestDivisionsAndTeams(t *testing.T) {
	s := newTestStore(t)
	g1 := testGame()
	g2 := testGame()
	g2.GameNumber = 102
	g2.Division = "U12"
	g2.Home = "Hawks"
	seedGame(t, s, g1)
	seedGame(t, s, g2)
	ctx := context.Background()

	divs, err := s.Divisions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"U10", "U12"}, divs)

	teams, err := s.Teams(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hawks", "Sharks", "Tigers"}, teams)
}
