package hijri

import (
	"math"
	"time"
)

// Ledger accumulates the months of the Hijri year being built. It is owned by
// a single derivation run.
type Ledger struct {
	year      Year
	gregorian int
	months    int
	days      int
	resolved  Placement
	actual    Placement
	complete  bool
	seasonal  bool

	solarYearDays float64
	tolerance     float64
}

// NewLedger opens the first, possibly partial, year of a run. Its first
// month is always month 1.
func NewLedger(y Year, gregorian int, solarYearDays, tolerance float64) *Ledger {
	return &Ledger{
		year:          y,
		gregorian:     gregorian,
		solarYearDays: solarYearDays,
		tolerance:     tolerance,
	}
}

// Year returns the year being accumulated.
func (l *Ledger) Year() Year { return l.year }

// Placement returns the intercalation resolved for the current year.
func (l *Ledger) Placement() Placement { return l.resolved }

// Days returns the days accumulated so far.
func (l *Ledger) Days() int { return l.days }

// NextIndex returns the index of the next month to append. A year with an
// intercalary month at its start counts from 0.
func (l *Ledger) NextIndex() MonthIndex {
	if l.resolved == PlacementStart {
		return MonthIndex(l.months)
	}
	return MonthIndex(l.months + 1)
}

// Append records a month of the current year.
func (l *Ledger) Append(m MonthIndex, sp Span) {
	l.months++
	l.days += sp.LengthDays

	switch m {
	case IntercalaryStart:
		l.actual = PlacementStart
	case IntercalaryEnd:
		l.actual = PlacementEnd
	}
}

// Boundary reports whether the month just appended closes the year. start and
// closing must be in the display location.
//
// A year closes when its month crosses into January from another month, or
// when it already holds 13 months. The crossing closes the year whatever
// month index it falls on.
func (l *Ledger) Boundary(start, closing time.Time) bool {
	if l.months >= 13 {
		return true
	}
	return closing.Month() == time.January && start.Month() != time.January
}

// CheckSeason subjects the current year to the seasonal check on Close even
// though it was not opened at a boundary. Used for a first year that spans a
// whole Gregorian year.
func (l *Ledger) CheckSeason() { l.seasonal = true }

// Close validates the year and returns its summary. Complete years, and a
// first year marked by CheckSeason, whose length strays from the solar year
// by more than the tolerance fail with a SeasonalDriftError.
func (l *Ledger) Close() (YearSummary, error) {
	summary := YearSummary{
		Year:          l.year,
		Notation:      l.year.String(),
		GregorianYear: l.gregorian,
		Months:        l.months,
		Days:          l.days,
		Placement:     l.actual,
		Complete:      l.complete,
	}

	if !l.complete && !l.seasonal {
		return summary, nil
	}

	deviation := math.Abs(l.solarYearDays - float64(l.days))
	if deviation > l.tolerance {
		return summary, &SeasonalDriftError{
			Year:      l.year,
			Days:      l.days,
			Deviation: deviation,
			Limit:     l.tolerance,
		}
	}

	return summary, nil
}

// Advance opens the next year, beginning in Gregorian year gregorian, with
// the resolved intercalation placement.
func (l *Ledger) Advance(p Placement, gregorian int) {
	l.year = l.year.Next()
	l.gregorian = gregorian
	l.months = 0
	l.days = 0
	l.resolved = p
	l.actual = PlacementNone
	l.complete = true
	l.seasonal = false
}
