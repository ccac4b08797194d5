package schedule

import "time"

// Display names used on the edit form, in audit entries, and in exports.
const (
	FieldGameDate     = "Game Date"
	FieldField        = "Field"
	FieldTime         = "Time"
	FieldHome         = "Home"
	FieldAway         = "Away"
	FieldStatus       = "Status"
	FieldComment      = "Comment"
	FieldOriginalDate = "Original Date"

	// Derived fields get a distinct label so readers can tell a
	// date-driven side effect from a direct edit.
	FieldWeekAuto = "Week (auto-calculated)"
	FieldDayAuto  = "Day (auto-calculated)"
)

// Game is one scheduled game. Week and Day are derived from GameDate
// (ISO week number, ISO weekday Mon=1..Sun=7) and are recomputed on
// every edit; they are never set directly by a caller.
type Game struct {
	GameNumber   int64  `json:"game_number"`
	Division     string `json:"division"`
	Week         int    `json:"week"`
	Day          int    `json:"day"`
	GameDate     string `json:"game_date"`
	Time         string `json:"time"`
	Field        string `json:"field"`
	Home         string `json:"home"`
	Away         string `json:"away"`
	Status       string `json:"status"`
	Comment      string `json:"comment"`
	OriginalDate string `json:"original_date"`
	AuditLog     string `json:"-"`
	LastUpdated  int64  `json:"last_updated"`
}

// Proposed is the full replacement value for every mutable field of a
// game. The edit form always submits the whole set; unchanged fields
// simply produce no diff.
type Proposed struct {
	GameDate     string `json:"game_date"`
	Field        string `json:"field"`
	Time         string `json:"time"`
	Home         string `json:"home"`
	Away         string `json:"away"`
	Status       string `json:"status"`
	Comment      string `json:"comment"`
	OriginalDate string `json:"original_date"`
}

// FieldChange is one applied change, in display-string form.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// UpdateResult reports which fields an update actually changed, so the
// caller can trigger side effects (notification) after commit.
type UpdateResult struct {
	Changes []FieldChange `json:"changes"`
	Game    Game          `json:"game"`
}

// AuditEntry is one immutable fact: field F changed from Old to New at
// Timestamp. Old and New are display strings; type information is not
// preserved (an integer 3 and the string "3" round-trip identically).
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Field     string    `json:"field"`
	Old       string    `json:"old"`
	New       string    `json:"new"`
}

// GameAuditEntry is an audit entry tagged with its game, for the
// cross-game history view.
type GameAuditEntry struct {
	GameNumber int64 `json:"game_number"`
	AuditEntry
}
