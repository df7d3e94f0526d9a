package hijri

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Defaults used by DefaultOptions.
const (
	DefaultLeapDayThreshold   = 0.1
	DefaultMaxDrift           = 3.0
	DefaultIntercalationSplit = 6
	SolarYearDays             = 365.24219
	DefaultSeasonalTolerance  = 30.0
)

// MeccaZone is the IANA zone used for display.
const MeccaZone = "Asia/Riyadh"

// Options controls a derivation run.
type Options struct {
	Mode Mode

	// LeapDayThreshold is the largest Dhul Hijjah drift, in days, that still
	// earns a leap day. Must be within [0, 0.5].
	LeapDayThreshold float64
	MaxDrift         float64

	// IntercalationSplit is the last lookahead position that places the
	// intercalary month at the start of the year.
	IntercalationSplit int

	SolarYearDays     float64
	SeasonalTolerance float64

	// Location is used for display fields and year-boundary detection.
	// Nil means Mecca.
	Location *time.Location

	// Logger receives a debug record per closed year. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions returns the options for an observed calendar.
func DefaultOptions() Options {
	return Options{
		Mode:               ModeObserved,
		LeapDayThreshold:   DefaultLeapDayThreshold,
		MaxDrift:           DefaultMaxDrift,
		IntercalationSplit: DefaultIntercalationSplit,
		SolarYearDays:      SolarYearDays,
		SeasonalTolerance:  DefaultSeasonalTolerance,
	}
}

// Validate reports every invalid field at once.
func (o Options) Validate() error {
	var errs []error

	if o.Mode != ModeObserved && o.Mode != ModeFixed {
		errs = append(errs, fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, o.Mode))
	}
	if o.LeapDayThreshold < 0 || o.LeapDayThreshold > 0.5 {
		errs = append(errs, fmt.Errorf("%w: leap day threshold %.3f outside [0, 0.5]", ErrInvalidOptions, o.LeapDayThreshold))
	}
	if o.MaxDrift <= 0 {
		errs = append(errs, fmt.Errorf("%w: max drift must be positive", ErrInvalidOptions))
	}
	if o.IntercalationSplit < 1 || o.IntercalationSplit >= MaxLookahead {
		errs = append(errs, fmt.Errorf("%w: intercalation split %d outside [1, %d]", ErrInvalidOptions, o.IntercalationSplit, MaxLookahead-1))
	}
	if o.SolarYearDays <= 0 {
		errs = append(errs, fmt.Errorf("%w: solar year must be positive", ErrInvalidOptions))
	}
	if o.SeasonalTolerance <= 0 {
		errs = append(errs, fmt.Errorf("%w: seasonal tolerance must be positive", ErrInvalidOptions))
	}

	return errors.Join(errs...)
}

// Mecca returns the Asia/Riyadh location, falling back to a fixed UTC+3 zone
// when no time zone database is available.
func Mecca() *time.Location {
	loc, err := time.LoadLocation(MeccaZone)
	if err != nil {
		return time.FixedZone("AST", 3*60*60)
	}
	return loc
}

// Derive builds the calendar for the Gregorian years [startYear, endYear)
// from the full moons in events.
//
// The run starts at the first full moon dated in startYear or later and
// stops at the first year boundary that opens endYear. Any error aborts the
// run and no partial calendar is returned.
func Derive(events Series, startYear, endYear int, opts Options) (*Calendar, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if endYear <= startYear {
		return nil, fmt.Errorf("%w: end year %d must be after start year %d", ErrInvalidOptions, endYear, startYear)
	}
	if err := events.Validate(); err != nil {
		return nil, err
	}

	loc := opts.Location
	if loc == nil {
		loc = Mecca()
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cursor := events.Seek(startYear)
	if cursor+1 >= len(events) {
		return nil, &OutOfDataError{Needed: cursor + 1, Available: len(events)}
	}

	calc := calculator{
		mode:   opts.Mode,
		series: events,
		leap:   LeapDayPolicy{Threshold: opts.LeapDayThreshold, MaxDrift: opts.MaxDrift},
		loc:    loc,
	}

	first := events[cursor].Time.UTC().Year()
	ledger := NewLedger(YearForGregorian(first), first, opts.SolarYearDays, opts.SeasonalTolerance)
	if opts.Mode == ModeFixed && events[cursor].Time.In(loc).Month() == time.January {
		ledger.CheckSeason()
	}

	cal := &Calendar{
		Mode:      opts.Mode,
		StartYear: startYear,
		EndYear:   endYear,
	}

	var prevEnd time.Time
	for i := cursor; ; i++ {
		idx := ledger.NextIndex()

		sp, err := calc.month(i, idx, prevEnd, ledger.Year(), ledger.Placement())
		if err != nil {
			return nil, err
		}

		ledger.Append(idx, sp)
		cal.Months = append(cal.Months, newMonth(idx, sp, events[i], ledger.Year(), loc))
		prevEnd = sp.End

		closing := calc.closing(sp).In(loc)
		if !ledger.Boundary(sp.Start.In(loc), closing) {
			continue
		}

		summary, err := ledger.Close()
		if err != nil {
			return nil, err
		}
		cal.Years = append(cal.Years, summary)

		log.Debug("hijri year closed",
			slog.String("year", summary.Notation),
			slog.Int("months", summary.Months),
			slog.Int("days", summary.Days),
			slog.String("intercalation", summary.Placement.String()),
		)

		upcoming := closing.Year()
		if upcoming >= endYear {
			return cal, nil
		}

		res := ResolveIntercalation(events, i, upcoming, opts.IntercalationSplit)
		ledger.Advance(res.Placement, upcoming)
	}
}

func newMonth(m MonthIndex, sp Span, ev FullMoonEvent, y Year, loc *time.Location) Month {
	start := sp.Start.In(loc)
	return Month{
		Index:        m,
		Name:         m.Name(),
		Start:        start,
		End:          sp.End.In(loc),
		LengthDays:   sp.LengthDays,
		Weekday:      start.Weekday().String(),
		LeapDay:      sp.LeapDay,
		Drift:        sp.Drift,
		FullMoon:     sp.ObservedStart.In(loc),
		NextFullMoon: sp.ObservedEnd.In(loc),
		Eclipse:      ev.Eclipse(),
		Year:         y,
		YearNotation: y.String(),
	}
}
