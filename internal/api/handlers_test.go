package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/zapponejosh/hijri-calendar/internal/config"
	"github.com/zapponejosh/hijri-calendar/internal/database"
	"github.com/zapponejosh/hijri-calendar/internal/hijri"
	"github.com/zapponejosh/hijri-calendar/internal/phases"
)

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

const synodicMonth = 29.530594

// testEnv sets up a complete test environment with database, config, and handlers
type testEnv struct {
	db       *database.DB
	cfg      *config.Config
	handlers *Handlers
	router   http.Handler
}

// setupTest creates a fresh test environment with a catalogue of mean full
// moons from 2021-12-19 to late 2025. It holds a blue moon in August 2023.
func setupTest(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := database.Open(database.DefaultConfig(":memory:"), logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Run migrations
	ctx := context.Background()
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	cfg := &config.Config{
		Port:               8080,
		Env:                config.EnvDevelopment,
		DatabasePath:       ":memory:",
		LogLevel:           "error",
		LogFormat:          "text",
		CalendarMode:       "observed",
		LeapDayThreshold:   hijri.DefaultLeapDayThreshold,
		IntercalationSplit: hijri.DefaultIntercalationSplit,
		CacheSize:          8,
		MaxRangeYears:      5,
	}

	handlers, err := NewHandlers(db, cfg, logger)
	if err != nil {
		t.Fatalf("create handlers: %v", err)
	}

	env := &testEnv{
		db:       db,
		cfg:      cfg,
		handlers: handlers,
		router:   SetupRoutes(handlers, logger),
	}
	env.seed(t)

	return env
}

func (env *testEnv) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	first := time.Date(2021, 12, 19, 4, 35, 0, 0, time.UTC)
	err := env.db.WithTx(ctx, func(tx *database.Tx) error {
		for k := 0; k < 48; k++ {
			at := first.Add(time.Duration(float64(k) * synodicMonth * float64(24*time.Hour)))
			if err := tx.UpsertPhase(ctx, phases.Row{Time: at, Phase: phases.FullMoon}); err != nil {
				return err
			}
		}
		return tx.UpsertPhase(ctx, phases.Row{
			Time:    time.Date(2022, 2, 1, 5, 46, 0, 0, time.UTC),
			Phase:   phases.NewMoon,
			Eclipse: "Partial Solar",
		})
	})
	if err != nil {
		t.Fatalf("seed phases: %v", err)
	}
}

// get sends a GET request through the full router.
func (env *testEnv) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

// envelope is the response wrapper with a raw payload.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

// parseResponse parses JSON response
func parseResponse(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v, body: %s", err, rr.Body.String())
	}
}

// parseData checks for a successful envelope and decodes its payload.
func parseData(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d, body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var env envelope
	parseResponse(t, rr, &env)
	if !env.Success {
		t.Fatalf("Success = false, error: %+v", env.Error)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

// parseError checks the status and returns the error code.
func parseError(t *testing.T, rr *httptest.ResponseRecorder, status int) string {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("Status = %d, want %d, body: %s", rr.Code, status, rr.Body.String())
	}
	var env envelope
	parseResponse(t, rr, &env)
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %+v", env)
	}
	return env.Error.Code
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestRequestIDMiddleware(t *testing.T) {
	env := setupTest(t)

	rr := env.get("/health")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-42")
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "client-42" {
		t.Errorf("X-Request-ID = %q, want client-42", got)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	env := setupTest(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/calendar", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if code := parseError(t, rr, http.StatusInternalServerError); code != "INTERNAL_ERROR" {
		t.Errorf("Code = %q, want INTERNAL_ERROR", code)
	}
}

func TestUnknownRoute(t *testing.T) {
	env := setupTest(t)

	if code := parseError(t, env.get("/api/v1/readings"), http.StatusNotFound); code != "NOT_FOUND" {
		t.Errorf("Code = %q, want NOT_FOUND", code)
	}
}

// =============================================================================
// ENDPOINT TESTS
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := setupTest(t)

	var data struct {
		Status    string `json:"status"`
		Phases    int    `json:"phases"`
		FullMoons int    `json:"full_moons"`
	}
	parseData(t, env.get("/health"), &data)

	if data.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", data.Status)
	}
	if data.Phases != 49 || data.FullMoons != 48 {
		t.Errorf("phases = %d, full moons = %d, want 49 and 48", data.Phases, data.FullMoons)
	}
}

func TestGetCalendar(t *testing.T) {
	env := setupTest(t)

	var cal hijri.Calendar
	parseData(t, env.get("/api/v1/calendar?start=2022&end=2023"), &cal)

	if cal.Mode != hijri.ModeObserved {
		t.Errorf("Mode = %q, want observed", cal.Mode)
	}
	if len(cal.Months) != 12 {
		t.Fatalf("len(Months) = %d, want 12", len(cal.Months))
	}
	if len(cal.Years) != 1 || cal.Years[0].Year != 1401 || cal.Years[0].Complete {
		t.Errorf("Years = %+v, want one partial 1401", cal.Years)
	}

	firstMonth := cal.Months[0]
	if firstMonth.Index != 1 || firstMonth.Name != "Safar I" {
		t.Errorf("first month = %d %s, want 1 Safar I", firstMonth.Index, firstMonth.Name)
	}
	// The 2022-01-17 full moon falls at 20:19 in Mecca.
	if got, want := firstMonth.Start, time.Date(2022, 1, 18, 0, 0, 0, 0, hijri.Mecca()); !got.Equal(want) {
		t.Errorf("first month start = %v, want %v", got, want)
	}
	// The new moon eclipse of 2022-02-01 follows the 2022-01-17 full moon.
	if firstMonth.Eclipse != "Partial Solar" {
		t.Errorf("Eclipse = %q, want Partial Solar", firstMonth.Eclipse)
	}

	for i := 1; i < len(cal.Months); i++ {
		if !cal.Months[i].Start.Equal(cal.Months[i-1].End) {
			t.Errorf("month %d starts %v, previous ends %v", i, cal.Months[i].Start, cal.Months[i-1].End)
		}
	}
}

func TestGetCalendar_FixedMode(t *testing.T) {
	env := setupTest(t)

	var cal hijri.Calendar
	parseData(t, env.get("/api/v1/calendar?start=2022&end=2023&mode=fixed"), &cal)

	if cal.Mode != hijri.ModeFixed {
		t.Errorf("Mode = %q, want fixed", cal.Mode)
	}
	for _, m := range cal.Months {
		if want := hijri.TemplateLength(m.Index); m.LengthDays != want && !m.LeapDay {
			t.Errorf("%s length = %d, want %d", m.Name, m.LengthDays, want)
		}
	}
}

func TestGetCalendar_BadRequest(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name string
		path string
	}{
		{"missing end", "/api/v1/calendar?start=2022"},
		{"non numeric start", "/api/v1/calendar?start=abc&end=2023"},
		{"end before start", "/api/v1/calendar?start=2023&end=2022"},
		{"equal years", "/api/v1/calendar?start=2022&end=2022"},
		{"range too wide", "/api/v1/calendar?start=2000&end=2010"},
		{"unknown mode", "/api/v1/calendar?start=2022&end=2023&mode=tabular"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := parseError(t, env.get(tt.path), http.StatusBadRequest); code != "BAD_REQUEST" {
				t.Errorf("Code = %q, want BAD_REQUEST", code)
			}
		})
	}
}

func TestGetCalendar_OutOfData(t *testing.T) {
	env := setupTest(t)

	code := parseError(t, env.get("/api/v1/calendar?start=2030&end=2031"), http.StatusUnprocessableEntity)
	if code != CodeOutOfData {
		t.Errorf("Code = %q, want %q", code, CodeOutOfData)
	}
}

func TestGetCalendar_Cache(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	parseData(t, env.get("/api/v1/calendar?start=2022&end=2023"), &hijri.Calendar{})
	parseData(t, env.get("/api/v1/calendar?start=2022&end=2023"), &hijri.Calendar{})
	if got := env.handlers.calendars.Len(); got != 1 {
		t.Fatalf("cache size = %d, want 1", got)
	}

	// Importing more phases changes the catalogue and misses the cache.
	err := env.db.UpsertPhase(ctx, phases.Row{Time: time.Date(2026, 1, 3, 10, 2, 0, 0, time.UTC), Phase: phases.FullMoon})
	if err != nil {
		t.Fatalf("upsert phase: %v", err)
	}
	parseData(t, env.get("/api/v1/calendar?start=2022&end=2023"), &hijri.Calendar{})
	if got := env.handlers.calendars.Len(); got != 2 {
		t.Errorf("cache size = %d, want 2", got)
	}
}

func TestCalendarCache_KeyCoversOptions(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	cache, err := newCalendarCache(env.db, 8, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newCalendarCache() error = %v", err)
	}

	base := env.cfg.CalendarOptions()
	tolerance := base
	tolerance.SeasonalTolerance = 25
	drift := base
	drift.MaxDrift = 2
	zone := base
	zone.Location = time.UTC

	tests := []struct {
		name string
		opts hijri.Options
		want int
	}{
		{"base", base, 1},
		{"base again", base, 1},
		{"seasonal tolerance", tolerance, 2},
		{"max drift", drift, 3},
		{"location", zone, 4},
	}

	for _, tt := range tests {
		if _, err := cache.Derive(ctx, 2022, 2023, tt.opts); err != nil {
			t.Fatalf("%s: Derive() error = %v", tt.name, err)
		}
		if got := cache.Len(); got != tt.want {
			t.Errorf("%s: cache size = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestGetCalendarICS(t *testing.T) {
	env := setupTest(t)

	rr := env.get("/api/v1/calendar.ics?start=2022&end=2023")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d, body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q, want text/calendar", ct)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") {
		t.Error("body is not an iCalendar document")
	}
	if got := strings.Count(body, "BEGIN:VEVENT"); got != 12 {
		t.Errorf("events = %d, want 12", got)
	}
}

func TestGetYear(t *testing.T) {
	env := setupTest(t)

	for _, path := range []string{"/api/v1/years/1402", "/api/v1/years/1402H"} {
		t.Run(path, func(t *testing.T) {
			var resp YearResponse
			parseData(t, env.get(path), &resp)

			if resp.Year.Year != 1402 || !resp.Year.Complete {
				t.Errorf("Year = %+v, want complete 1402", resp.Year)
			}
			// The August 2023 blue moon is found late in the lookahead.
			if resp.Year.Placement != hijri.PlacementEnd {
				t.Errorf("Placement = %v, want end", resp.Year.Placement)
			}
			if len(resp.Months) != 13 {
				t.Fatalf("len(Months) = %d, want 13", len(resp.Months))
			}
			if resp.Months[0].Index != 1 || resp.Months[12].Index != hijri.IntercalaryEnd {
				t.Errorf("indices = %d..%d, want 1..13", resp.Months[0].Index, resp.Months[12].Index)
			}
			for _, m := range resp.Months {
				if m.Year != 1402 {
					t.Errorf("%s belongs to %v", m.Name, m.Year)
				}
			}
		})
	}

	// Both spellings share one derivation.
	if got := env.handlers.calendars.Len(); got != 1 {
		t.Errorf("cache size = %d, want 1", got)
	}
}

func TestGetYear_Errors(t *testing.T) {
	env := setupTest(t)

	if code := parseError(t, env.get("/api/v1/years/abc"), http.StatusBadRequest); code != "BAD_REQUEST" {
		t.Errorf("Code = %q, want BAD_REQUEST", code)
	}
	if code := parseError(t, env.get("/api/v1/years/0"), http.StatusBadRequest); code != "BAD_REQUEST" {
		t.Errorf("Code = %q, want BAD_REQUEST", code)
	}
	if code := parseError(t, env.get("/api/v1/years/1450"), http.StatusUnprocessableEntity); code != CodeOutOfData {
		t.Errorf("Code = %q, want %q", code, CodeOutOfData)
	}
}

func TestGetPhases(t *testing.T) {
	env := setupTest(t)

	var resp PhasesResponse
	parseData(t, env.get("/api/v1/phases?from=2022-01-01&to=2022-03-01"), &resp)

	// Full moons of Jan 17 and Feb 16 plus the Feb 1 new moon.
	if resp.Count != 3 || len(resp.Phases) != 3 {
		t.Fatalf("Count = %d, len = %d, want 3", resp.Count, len(resp.Phases))
	}
	if resp.Phases[1].Phase != phases.NewMoon || resp.Phases[1].Eclipse != "Partial Solar" {
		t.Errorf("Phases[1] = %+v, want eclipsed new moon", resp.Phases[1])
	}

	var empty PhasesResponse
	parseData(t, env.get("/api/v1/phases?from=1990-01-01&to=1990-02-01"), &empty)
	if empty.Count != 0 || empty.Phases == nil {
		t.Errorf("empty range = %+v, want zero count and empty list", empty)
	}
}

func TestGetPhases_BadRequest(t *testing.T) {
	env := setupTest(t)

	tests := []string{
		"/api/v1/phases?from=2022-01-01",
		"/api/v1/phases?from=01/01/2022&to=2022-03-01",
		"/api/v1/phases?from=2022-01-01&to=March",
		"/api/v1/phases?from=2022-03-01&to=2022-01-01",
		"/api/v1/phases?from=2000-01-01&to=2022-01-01",
	}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			parseError(t, env.get(path), http.StatusBadRequest)
		})
	}
}

func TestGetDerivation(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	series, err := env.db.LoadFullMoons(ctx)
	if err != nil {
		t.Fatalf("load full moons: %v", err)
	}
	opts := env.cfg.CalendarOptions()
	cal, err := hijri.Derive(series, 2022, 2024, opts)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	id, err := env.db.SaveDerivation(ctx, cal, opts)
	if err != nil {
		t.Fatalf("save derivation: %v", err)
	}

	var d database.Derivation
	parseData(t, env.get(fmt.Sprintf("/api/v1/derivations/%d", id)), &d)

	if d.ID != id || d.StartYear != 2022 || d.EndYear != 2024 {
		t.Errorf("Derivation = %d %d-%d, want %d 2022-2024", d.ID, d.StartYear, d.EndYear, id)
	}
	if len(d.Months) != len(cal.Months) || len(d.Years) != len(cal.Years) {
		t.Errorf("stored %d months %d years, want %d and %d",
			len(d.Months), len(d.Years), len(cal.Months), len(cal.Years))
	}

	if code := parseError(t, env.get("/api/v1/derivations/999"), http.StatusNotFound); code != "NOT_FOUND" {
		t.Errorf("Code = %q, want NOT_FOUND", code)
	}
	if code := parseError(t, env.get("/api/v1/derivations/abc"), http.StatusBadRequest); code != "BAD_REQUEST" {
		t.Errorf("Code = %q, want BAD_REQUEST", code)
	}
}

func TestDerivationStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("wrap: %w", hijri.ErrInvalidOptions), http.StatusBadRequest, "BAD_REQUEST"},
		{&hijri.OutOfDataError{Needed: 3, Available: 2}, http.StatusUnprocessableEntity, CodeOutOfData},
		{hijri.ErrDataConsistency, http.StatusUnprocessableEntity, CodeDataConsistency},
		{hijri.ErrDriftExceeded, http.StatusUnprocessableEntity, CodeDriftExceeded},
		{hijri.ErrSeasonalDrift, http.StatusUnprocessableEntity, CodeSeasonalDrift},
	}

	for _, tt := range tests {
		status, code, ok := derivationStatus(tt.err)
		if !ok || status != tt.status || code != tt.code {
			t.Errorf("derivationStatus(%v) = %d %q %v, want %d %q", tt.err, status, code, ok, tt.status, tt.code)
		}
	}

	if _, _, ok := derivationStatus(errors.New("disk full")); ok {
		t.Error("derivationStatus(other) ok = true, want false")
	}
}
