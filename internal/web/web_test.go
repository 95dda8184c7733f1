package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hyprcal/internal/clock"
	"hyprcal/internal/config"
	"hyprcal/internal/controller"
	"hyprcal/internal/ics"
	"hyprcal/internal/state"
)

type stubLauncher struct {
	err error
}

func (l stubLauncher) Launch() error { return l.err }

func newTestServer(t *testing.T, calendarPath string, launchErr error, cfg *config.Config) (*Server, *clock.Fixed) {
	t.Helper()
	clk := clock.NewFixed(time.Date(2025, time.June, 15, 10, 0, 0, 0, time.Local))
	store := ics.NewStore(calendarPath, clk)
	st := state.New()
	ctrl := controller.New(store, clk, st, stubLauncher{err: launchErr})
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return NewServer(cfg, ctrl, st, clk), clk
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "cal.ics"), nil, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestGrid(t *testing.T) {
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "cal.ics"), nil, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/grid?year=2025&month=3&day=15", "")

	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "2025 March", lines[0])
	assert.Equal(t, "Mo Tu We Th Fr Sa Su", lines[1])
	assert.Equal(t, "10 11 12 13 14[15]16", lines[4])
}

func TestGridDefaultsToToday(t *testing.T) {
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "cal.ics"), nil, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/grid", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "2025 June\n"))
	assert.Contains(t, rec.Body.String(), "[15]")
}

func TestGridOtherMonthHasNoHighlight(t *testing.T) {
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "cal.ics"), nil, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/grid?year=2024&month=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "[")
	assert.Contains(t, rec.Body.String(), "29")
}

func TestGridRejectsBadMonth(t *testing.T) {
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "cal.ics"), nil, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/grid?year=2025&month=13", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTooltipRefresh(t *testing.T) {
	s, clk := newTestServer(t, filepath.Join(t.TempDir(), "cal.ics"), nil, nil)

	var resp tooltipResponse
	rec := do(t, s.Handler(), http.MethodGet, "/api/tooltip", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Tooltip, "2025 June\n"))

	clk.Set(time.Date(2025, time.July, 1, 0, 0, 5, 0, time.Local))
	rec = do(t, s.Handler(), http.MethodGet, "/api/tooltip", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Tooltip, "2025 June\n"), "cached until refreshed")

	s.RefreshTooltip()
	rec = do(t, s.Handler(), http.MethodGet, "/api/tooltip", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Tooltip, "2025 July\n"))
	assert.Contains(t, resp.Tooltip, "[ 1]")
}

func TestAddThenListEvents(t *testing.T) {
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "cal.ics"), nil, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/events?date=2025-06-10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var before eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &before))
	assert.Empty(t, before.Events)

	rec = do(t, h, http.MethodPost, "/api/events", `{"date":"2025-06-10","summary":"Dentist"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Schedule for 2025-6-10", created.Title)
	assert.Equal(t, []string{"Dentist"}, created.Events)

	rec = do(t, h, http.MethodGet, "/api/events?date=2025-06-10", "")
	var after eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Equal(t, "2025-06-10", after.Date)
	assert.Equal(t, []string{"Dentist"}, after.Events)

	rec = do(t, h, http.MethodGet, "/api/events?date=2025-06-11", "")
	var next eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
	assert.Empty(t, next.Events)
}

func TestAddEventEmptySummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.ics")
	s, _ := newTestServer(t, path, nil, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/api/events", `{"date":"2025-06-10","summary":""}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoFileExists(t, path)
}

func TestAddEventBadInput(t *testing.T) {
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "cal.ics"), nil, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/events", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/events", `{"date":"2025-02-30","summary":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/events", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddEventWriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "cal.ics")
	s, _ := newTestServer(t, path, nil, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/api/events", `{"date":"2025-06-10","summary":"Dentist"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestOpen(t *testing.T) {
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "cal.ics"), nil, nil)
	rec := do(t, s.Handler(), http.MethodPost, "/api/open", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	s, _ = newTestServer(t, filepath.Join(t.TempDir(), "cal.ics"), errors.New("no viewer"), nil)
	rec = do(t, s.Handler(), http.MethodPost, "/api/open", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "no viewer")
}

func TestStatusReportsOutcomes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "cal.ics")
	s, _ := newTestServer(t, path, errors.New("no viewer"), nil)
	h := s.Handler()

	var resp statusResponse
	rec := do(t, h, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Last)
	assert.Empty(t, resp.History)

	do(t, h, http.MethodPost, "/api/events", `{"date":"2025-06-10","summary":"Dentist"}`)
	do(t, h, http.MethodPost, "/api/open", "")

	rec = do(t, h, http.MethodGet, "/api/status", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.History, 2)
	assert.Equal(t, "ERROR", resp.History[0].Level)
	assert.Equal(t, "Failed to save event 'Dentist'", resp.History[0].Text)
	assert.Contains(t, resp.History[0].Error, path)
	require.NotNil(t, resp.Last)
	assert.Equal(t, "WARN", resp.Last.Level)
	assert.Equal(t, "Could not open calendar application: no viewer", resp.Last.Text)
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = config.BasicAuthConfig{Username: "admin", Password: "secret"}
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "cal.ics"), nil, cfg)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/tooltip", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/tooltip", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/tooltip", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "cal.ics"), nil, nil)
	h := s.Handler()

	do(t, h, http.MethodPost, "/api/events", `{"date":"2025-06-10","summary":"Dentist"}`)
	rec := do(t, h, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hyprcal_events_appended_total")
	assert.Contains(t, rec.Body.String(), `path="/api/events"`)
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, secureCompare("abc", "abc"))
	assert.False(t, secureCompare("abc", "abd"))
	assert.False(t, secureCompare("abc", "abcd"))
}
