package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/hijri-calendar/internal/config"
	"github.com/zapponejosh/hijri-calendar/internal/database"
	"github.com/zapponejosh/hijri-calendar/internal/hijri"
	"github.com/zapponejosh/hijri-calendar/internal/logger"
	"github.com/zapponejosh/hijri-calendar/internal/phases"
	"github.com/zapponejosh/hijri-calendar/internal/render"
)

const dateLayout = "2006-01-02"

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db        *database.DB
	calendars *calendarCache
	cfg       *config.Config
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *database.DB, cfg *config.Config, logger *slog.Logger) (*Handlers, error) {
	calendars, err := newCalendarCache(db, cfg.CacheSize, logger)
	if err != nil {
		return nil, err
	}
	return &Handlers{
		db:        db,
		calendars: calendars,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// YearResponse is one Hijri year with its months.
type YearResponse struct {
	Year   hijri.YearSummary `json:"year"`
	Months []hijri.Month     `json:"months"`
}

// PhasesResponse lists stored phases between two dates.
type PhasesResponse struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Count  int          `json:"count"`
	Phases []phases.Row `json:"phases"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check database health
	if err := h.db.Health(ctx); err != nil {
		h.log(r).Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	counts, err := h.db.CountPhases(ctx)
	if err != nil {
		h.log(r).Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, map[string]any{
		"status":     "healthy",
		"phases":     counts.Total,
		"full_moons": counts.FullMoons,
	})
}

// GetCalendar handles GET /api/v1/calendar?start=YYYY&end=YYYY&mode=observed|fixed
func (h *Handlers) GetCalendar(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.deriveRange(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, cal)
}

// GetCalendarICS handles GET /api/v1/calendar.ics with the same parameters
// as GetCalendar.
func (h *Handlers) GetCalendarICS(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.deriveRange(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="hijri-%d-%d-%s.ics"`, cal.StartYear, cal.EndYear, cal.Mode))
	if err := render.ICS(w, cal); err != nil {
		h.log(r).Error("failed to write calendar", slog.Any("error", err))
	}
}

// GetYear handles GET /api/v1/years/{year}?mode=observed|fixed. The year is
// a signed integer or a notated year such as "1445 H." or "21 B.H.".
func (h *Handlers) GetYear(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "year")
	year, err := hijri.ParseYear(raw)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid Hijri year: %s", raw))
		return
	}

	opts, err := h.options(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	// Start a year early so the requested year opens at a boundary and is
	// derived in full.
	g := hijri.GregorianForYear(year)
	cal, err := h.calendars.Derive(r.Context(), g-1, g+1, opts)
	if err != nil {
		h.writeDeriveError(w, r, err)
		return
	}

	resp := YearResponse{Months: cal.MonthsOf(year)}
	if len(resp.Months) == 0 {
		WriteNotFound(w, fmt.Sprintf("No months derived for %s", year))
		return
	}
	for _, y := range cal.Years {
		if y.Year == year {
			resp.Year = y
		}
	}

	WriteSuccess(w, resp)
}

// GetPhases handles GET /api/v1/phases?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handlers) GetPhases(w http.ResponseWriter, r *http.Request) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	if fromStr == "" || toStr == "" {
		WriteBadRequest(w, "Both from and to date parameters are required")
		return
	}

	from, err := time.Parse(dateLayout, fromStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid from date format: %s. Use YYYY-MM-DD", fromStr))
		return
	}

	to, err := time.Parse(dateLayout, toStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid to date format: %s. Use YYYY-MM-DD", toStr))
		return
	}

	if !to.After(from) {
		WriteBadRequest(w, "From date must be before to date")
		return
	}

	// Limit range to prevent abuse
	if to.After(from.AddDate(h.cfg.MaxRangeYears, 0, 0)) {
		WriteBadRequest(w, fmt.Sprintf("Date range cannot exceed %d years", h.cfg.MaxRangeYears))
		return
	}

	rows, err := h.db.ListPhases(r.Context(), from, to)
	if err != nil {
		h.log(r).Error("failed to list phases", slog.Any("error", err))
		WriteInternalError(w, "Failed to retrieve phases")
		return
	}

	if rows == nil {
		rows = []phases.Row{}
	}

	WriteSuccess(w, PhasesResponse{
		From:   fromStr,
		To:     toStr,
		Count:  len(rows),
		Phases: rows,
	})
}

// GetDerivation handles GET /api/v1/derivations/{id}
func (h *Handlers) GetDerivation(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		WriteBadRequest(w, fmt.Sprintf("Invalid derivation id: %s", idStr))
		return
	}

	d, err := h.db.GetDerivation(r.Context(), id, nil)
	if err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, fmt.Sprintf("Derivation %d not found", id))
			return
		}
		h.log(r).Error("failed to get derivation", slog.Int64("id", id), slog.Any("error", err))
		WriteInternalError(w, "Failed to retrieve derivation")
		return
	}

	WriteSuccess(w, d)
}

// deriveRange parses start, end and mode and derives the calendar. On
// failure it writes the error response and returns false.
func (h *Handlers) deriveRange(w http.ResponseWriter, r *http.Request) (*hijri.Calendar, bool) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		WriteBadRequest(w, "Both start and end year parameters are required")
		return nil, false
	}

	start, err := strconv.Atoi(startStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid start year: %s", startStr))
		return nil, false
	}

	end, err := strconv.Atoi(endStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid end year: %s", endStr))
		return nil, false
	}

	if end <= start {
		WriteBadRequest(w, "End year must be after start year")
		return nil, false
	}

	if end-start > h.cfg.MaxRangeYears {
		WriteBadRequest(w, fmt.Sprintf("Year range cannot exceed %d years", h.cfg.MaxRangeYears))
		return nil, false
	}

	opts, err := h.options(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return nil, false
	}

	cal, err := h.calendars.Derive(r.Context(), start, end, opts)
	if err != nil {
		h.writeDeriveError(w, r, err)
		return nil, false
	}

	return cal, true
}

// options returns the configured derivation options with the request's
// mode override applied.
func (h *Handlers) options(r *http.Request) (hijri.Options, error) {
	opts := h.cfg.CalendarOptions()
	opts.Logger = h.logger

	if raw := r.URL.Query().Get("mode"); raw != "" {
		mode, err := hijri.ParseMode(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid mode %q: use observed or fixed", raw)
		}
		opts.Mode = mode
	}

	return opts, nil
}

func (h *Handlers) writeDeriveError(w http.ResponseWriter, r *http.Request, err error) {
	if status, code, ok := derivationStatus(err); ok {
		h.log(r).Warn("derivation failed", slog.String("code", code), slog.Any("error", err))
		WriteError(w, status, err.Error(), code)
		return
	}

	h.log(r).Error("failed to derive calendar", slog.Any("error", err))
	WriteInternalError(w, "Failed to derive calendar")
}

func (h *Handlers) log(r *http.Request) *slog.Logger {
	return logger.FromContext(r.Context(), h.logger)
}
