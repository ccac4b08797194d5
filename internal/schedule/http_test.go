package schedule

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMultipartCSV writes a one-file multipart body into buf and returns
// its Content-Type.
func newMultipartCSV(t *testing.T, buf *bytes.Buffer, csv string) string {
	t.Helper()
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("file", "schedule.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(csv)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return mw.FormDataContentType()
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []UpdateResult
	done  chan struct{}
}

func (n *recordingNotifier) GameEdited(game Game, changes []FieldChange) {
	n.mu.Lock()
	n.calls = append(n.calls, UpdateResult{Changes: changes, Game: game})
	n.mu.Unlock()
	n.done <- struct{}{}
}

func newRouter(t *testing.T, s *Store, notifier Notifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, s, notifier, nil)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGamesEndpoint_ListAndFilter(t *testing.T) {
	s := newTestStore(t)
	seedSeason(t, s)
	r := newRouter(t, s, nil)

	w := doJSON(r, http.MethodGet, "/api/games", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Games []Game `json:"games"`
		Total int    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Total)

	w = doJSON(r, http.MethodGet, "/api/games?division=U12&week=40", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "U12", resp.Games[0].Division)
}

func TestGamesEndpoint_GetAndNotFound(t *testing.T) {
	s := newTestStore(t)
	seedSeason(t, s)
	r := newRouter(t, s, nil)

	w := doJSON(r, http.MethodGet, "/api/games/3", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/games/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/games/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGamesEndpoint_EditNotifies(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, testGame())
	n := &recordingNotifier{done: make(chan struct{}, 1)}
	r := newRouter(t, s, n)

	p := proposedFrom(testGame())
	p.Status = "Rained Out"
	w := doJSON(r, http.MethodPut, "/api/games/101", p)
	require.Equal(t, http.StatusOK, w.Code)

	var res UpdateResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Changes, 1)
	assert.Equal(t, FieldStatus, res.Changes[0].Field)

	<-n.done
	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.calls, 1)
	assert.EqualValues(t, 101, n.calls[0].Game.GameNumber)
}

func TestGamesEndpoint_NoOpEditDoesNotNotify(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, testGame())
	n := &recordingNotifier{done: make(chan struct{}, 1)}
	r := newRouter(t, s, n)

	w := doJSON(r, http.MethodPut, "/api/games/101", proposedFrom(testGame()))
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case <-n.done:
		t.Fatal("no-op edit must not trigger a notification")
	default:
	}
}

func TestCommentEndpoint(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, testGame())
	r := newRouter(t, s, nil)

	w := doJSON(r, http.MethodPatch, "/api/games/101/comment", gin.H{"comment": "wet field"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/games/101/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hist struct {
		Entries []AuditEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	require.Len(t, hist.Entries, 1)
	assert.Equal(t, FieldComment, hist.Entries[0].Field)
	assert.Equal(t, "wet field", hist.Entries[0].New)
}

func TestCSVExport(t *testing.T) {
	s := newTestStore(t)
	seedSeason(t, s)
	r := newRouter(t, s, nil)

	w := doJSON(r, http.MethodGet, "/api/games.csv?division=U12", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2) // header + one U12 game
	assert.True(t, strings.HasPrefix(lines[0], "Game #,Division,Week"))
	assert.Contains(t, lines[1], "Comets")
}

func TestImportEndpoint_ReplacesSchedule(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, testGame())
	r := newRouter(t, s, nil)

	var buf bytes.Buffer
	mw := newMultipartCSV(t, &buf,
		"Game #,Division,Game Date,Time,Field,Home,Away\n"+
			"301,U14,2025-10-04,09:00,Field 9,Eagles,Owls\n")

	req := httptest.NewRequest(http.MethodPost, "/api/games/import", &buf)
	req.Header.Set("Content-Type", mw)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"imported":1`)

	wr := doJSON(r, http.MethodGet, "/api/games/301", nil)
	assert.Equal(t, http.StatusOK, wr.Code)
	wr = doJSON(r, http.MethodGet, "/api/games/101", nil)
	assert.Equal(t, http.StatusNotFound, wr.Code)
}

func TestReportEndpoints(t *testing.T) {
	s := newTestStore(t)
	seedSeason(t, s)
	r := newRouter(t, s, nil)

	for _, path := range []string{
		"/api/reports/field-pivot?week=40",
		"/api/reports/team/Sharks",
		"/api/reports/division-stats",
		"/api/reports/team-date-matrix?division=U10",
		"/api/reports/calendar?year=2025&month=10",
		"/api/divisions",
		"/api/teams",
		"/api/history",
	} {
		w := doJSON(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	for _, path := range []string{
		"/api/reports/field-pivot",
		"/api/reports/team-date-matrix",
		"/api/reports/calendar?year=2025&month=13",
	} {
		w := doJSON(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}
