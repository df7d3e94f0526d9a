package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zapponejosh/hijri-calendar/internal/database"
	"github.com/zapponejosh/hijri-calendar/internal/hijri"
)

// calendarKey identifies a derivation by every option that shapes its
// result. The catalogue fields change whenever phases are imported, so stale
// entries are never hit.
type calendarKey struct {
	mode      hijri.Mode
	start     int
	end       int
	threshold float64
	maxDrift  float64
	split     int
	solarYear float64
	tolerance float64
	zone      string
	rows      int
	last      int64
}

// calendarCache derives calendars from the stored catalogue and keeps the
// most recently used results.
type calendarCache struct {
	db     *database.DB
	lru    *lru.Cache[calendarKey, *hijri.Calendar]
	logger *slog.Logger
}

func newCalendarCache(db *database.DB, size int, logger *slog.Logger) (*calendarCache, error) {
	c, err := lru.New[calendarKey, *hijri.Calendar](size)
	if err != nil {
		return nil, fmt.Errorf("create calendar cache: %w", err)
	}
	return &calendarCache{db: db, lru: c, logger: logger}, nil
}

// Derive returns the calendar for [start, end). Cached calendars are shared
// and must not be modified.
func (c *calendarCache) Derive(ctx context.Context, start, end int, opts hijri.Options) (*hijri.Calendar, error) {
	counts, err := c.db.CountPhases(ctx)
	if err != nil {
		return nil, err
	}

	key := calendarKey{
		mode:      opts.Mode,
		start:     start,
		end:       end,
		threshold: opts.LeapDayThreshold,
		maxDrift:  opts.MaxDrift,
		split:     opts.IntercalationSplit,
		solarYear: opts.SolarYearDays,
		tolerance: opts.SeasonalTolerance,
		rows:      counts.Total,
	}
	if opts.Location != nil {
		key.zone = opts.Location.String()
	}
	if counts.Last != nil {
		key.last = counts.Last.Unix()
	}

	if cal, ok := c.lru.Get(key); ok {
		return cal, nil
	}

	series, err := c.db.LoadFullMoons(ctx)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	cal, err := hijri.Derive(series, start, end, opts)
	if err != nil {
		return nil, err
	}

	c.lru.Add(key, cal)
	c.logger.Debug("calendar derived",
		slog.String("mode", string(opts.Mode)),
		slog.Int("start", start),
		slog.Int("end", end),
		slog.Int("months", len(cal.Months)),
		slog.Duration("duration", time.Since(began)),
	)

	return cal, nil
}

// Len reports the number of cached calendars.
func (c *calendarCache) Len() int {
	return c.lru.Len()
}
