package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"hyprcal/internal/clock"
	"hyprcal/internal/config"
	"hyprcal/internal/controller"
	"hyprcal/internal/grid"
	appLog "hyprcal/internal/log"
	"hyprcal/internal/metrics"
	"hyprcal/internal/model"
	"hyprcal/internal/state"
)

// Server exposes the calendar controller over HTTP. It is the network
// counterpart of the desktop popover: grid tooltip, day schedule, add-event
// and "open calendar".
type Server struct {
	cfg    *config.Config
	ctrl   *controller.Controller
	status *state.AppState
	router *mux.Router
	now    func() time.Time

	// Tooltip text is rebuilt by RefreshTooltip (driven by cron in
	// `hyprcal serve`) rather than on every request.
	tooltipMu sync.RWMutex
	tooltip   tooltipCache
}

type tooltipCache struct {
	text      string
	updatedAt time.Time
}

// NewServer constructs a new Server and builds the initial tooltip. status
// and clk should be the reporter and clock the controller was built with.
func NewServer(cfg *config.Config, ctrl *controller.Controller, status *state.AppState, clk clock.Clock) *Server {
	if clk == nil {
		clk = clock.System{}
	}
	s := &Server{
		cfg:    cfg,
		ctrl:   ctrl,
		status: status,
		router: mux.NewRouter(),
		now:    clk.Now,
	}
	s.registerRoutes()
	s.RefreshTooltip()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.cfg != nil && s.cfg.BasicAuth.Enabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// RefreshTooltip rebuilds the cached tooltip from the current clock.
func (s *Server) RefreshTooltip() {
	text := s.ctrl.Tooltip()
	s.tooltipMu.Lock()
	s.tooltip = tooltipCache{text: text, updatedAt: s.now()}
	s.tooltipMu.Unlock()
	appLog.Debug("tooltip refreshed")
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="hyprcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.router.Use(metrics.Middleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/grid", s.handleGrid).Methods(http.MethodGet)
	s.router.HandleFunc("/api/tooltip", s.handleTooltip).Methods(http.MethodGet)
	s.router.HandleFunc("/api/events", s.handleEventsOn).Methods(http.MethodGet)
	s.router.HandleFunc("/api/events", s.handleAddEvent).Methods(http.MethodPost)
	s.router.HandleFunc("/api/open", s.handleOpen).Methods(http.MethodPost)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleGrid renders a month as plain text.
//
// GET /api/grid?year=2025&month=3&day=15
//   - year, month: default to the current month
//   - day:         highlighted day; defaults to today in the current month,
//     none otherwise
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	q := r.URL.Query()

	year := parseIntDefault(q.Get("year"), now.Year())
	month := parseIntDefault(q.Get("month"), int(now.Month()))
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}
	if year < 1 || year > 9999 {
		writeError(w, http.StatusBadRequest, "year must be between 1 and 9999")
		return
	}

	defaultDay := 0
	if year == now.Year() && month == int(now.Month()) {
		defaultDay = now.Day()
	}
	day := parseIntDefault(q.Get("day"), defaultDay)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(grid.Header(year, month) + "\n" + grid.Render(year, month, day) + "\n"))
}

type tooltipResponse struct {
	Tooltip   string    `json:"tooltip"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) handleTooltip(w http.ResponseWriter, _ *http.Request) {
	s.tooltipMu.RLock()
	tc := s.tooltip
	s.tooltipMu.RUnlock()
	writeJSON(w, http.StatusOK, tooltipResponse{Tooltip: tc.text, UpdatedAt: tc.updatedAt})
}

// eventsResponse is the JSON response shape for GET /api/events.
type eventsResponse struct {
	Date   string   `json:"date"`
	Title  string   `json:"title"`
	Events []string `json:"events"`
}

// handleEventsOn returns the summaries of events starting on a day.
//
// GET /api/events?date=2025-06-10
func (s *Server) handleEventsOn(w http.ResponseWriter, r *http.Request) {
	d, err := model.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	sched := s.ctrl.SelectDay(d)
	writeJSON(w, http.StatusOK, eventsResponse{
		Date:   d.String(),
		Title:  sched.Title(),
		Events: sched.Summaries,
	})
}

type addEventRequest struct {
	Date    string `json:"date"`
	Summary string `json:"summary"`
}

// handleAddEvent appends a one-day event.
//
// POST /api/events {"date": "2025-06-10", "summary": "Dentist"}
//   - 201: saved
//   - 204: empty summary, nothing saved (whitespace is a summary)
//   - 400: malformed body or date
//   - 500: the calendar file could not be written
func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req addEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	d, err := model.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	if req.Summary == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.ctrl.AddEvent(d, req.Summary); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sched := s.ctrl.SelectDay(d)
	writeJSON(w, http.StatusCreated, eventsResponse{
		Date:   d.String(),
		Title:  sched.Title(),
		Events: sched.Summaries,
	})
}

// handleOpen launches the configured calendar application.
func (s *Server) handleOpen(w http.ResponseWriter, _ *http.Request) {
	if err := s.ctrl.ViewFullSchedule(); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type statusMessage struct {
	Level string    `json:"level"`
	Text  string    `json:"text"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

type statusResponse struct {
	Last    *statusMessage  `json:"last"`
	History []statusMessage `json:"history"`
}

func toStatusMessage(m state.Message) statusMessage {
	out := statusMessage{Level: string(m.Level), Text: m.Text, At: m.At}
	if m.Err != nil {
		out.Error = m.Err.Error()
	}
	return out
}

// handleStatus returns the latest status message and the recent history,
// oldest first. "last" is null until something was reported.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{History: []statusMessage{}}
	if s.status != nil {
		if m, ok := s.status.Last(); ok {
			last := toStatusMessage(m)
			resp.Last = &last
		}
		for _, m := range s.status.History() {
			resp.History = append(resp.History, toStatusMessage(m))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
