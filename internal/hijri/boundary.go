package hijri

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const day = 24 * time.Hour

// Mode selects how month lengths are decided.
type Mode string

const (
	// ModeObserved starts every month the day after its full moon.
	ModeObserved Mode = "observed"
	// ModeFixed alternates 30 and 29 day months and corrects drift with a
	// leap day in Dhul Hijjah.
	ModeFixed Mode = "fixed"
)

// ParseMode parses "observed" or "fixed".
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeObserved:
		return ModeObserved, nil
	case ModeFixed:
		return ModeFixed, nil
	default:
		return "", fmt.Errorf("%w: unknown calendar mode %q", ErrInvalidOptions, s)
	}
}

// Span is one calendar month computed from the full moons at [i, i+1).
// All instants are UTC.
type Span struct {
	Start         time.Time
	End           time.Time
	LengthDays    int
	ObservedStart time.Time
	ObservedEnd   time.Time
	// Drift is the fixed-mode distance in days between the templated start
	// and the full moon it follows.
	Drift   float64
	LeapDay bool
}

// TemplateLength is the fixed-mode length of month m before any leap day.
func TemplateLength(m MonthIndex) int {
	if m.IsIntercalary() || int(m)%2 == 1 {
		return 30
	}
	return 29
}

// ObservedSpan returns the month backed by s[i] and s[i+1]. The month starts
// on the day after s[i] and runs through the day of s[i+1], both taken as
// calendar days in loc. Span instants are midnights in loc expressed in UTC.
func ObservedSpan(s Series, i int, loc *time.Location) (Span, error) {
	from, to, err := s.pair(i)
	if err != nil {
		return Span{}, err
	}

	start := localDay(from.Time, loc).AddDate(0, 0, 1)
	end := localDay(to.Time, loc).AddDate(0, 0, 1)
	length := daysBetween(start, end)

	if length != 29 && length != 30 {
		return Span{}, &DataConsistencyError{
			Cursor: i,
			Reason: fmt.Sprintf("observed month of %d days between %s and %s",
				length, from.Time.UTC().Format(time.DateTime), to.Time.UTC().Format(time.DateTime)),
		}
	}

	return Span{
		Start:         start.UTC(),
		End:           end.UTC(),
		LengthDays:    length,
		ObservedStart: from.Time.UTC(),
		ObservedEnd:   to.Time.UTC(),
	}, nil
}

// FixedSpan returns the templated month m that begins at prevEnd. When prevEnd
// is zero the month begins one day after s[i]. Later months never realign to
// s[i]; their distance from it is reported as Drift.
func FixedSpan(s Series, i int, m MonthIndex, prevEnd time.Time) (Span, error) {
	from, to, err := s.pair(i)
	if err != nil {
		return Span{}, err
	}

	start := prevEnd.UTC()
	if prevEnd.IsZero() {
		start = from.Time.UTC().Add(day)
	}
	length := TemplateLength(m)

	return Span{
		Start:         start,
		End:           start.Add(time.Duration(length) * day),
		LengthDays:    length,
		ObservedStart: from.Time.UTC(),
		ObservedEnd:   to.Time.UTC(),
		Drift:         start.Sub(from.Time).Hours() / 24,
	}, nil
}

// LeapDayPolicy decides whether Dhul Hijjah receives an extra day.
type LeapDayPolicy struct {
	// Threshold is the drift, in days, at or below which the leap day is added.
	Threshold float64
	// MaxDrift is the drift beyond which derivation aborts.
	MaxDrift float64
}

// Check fails when drift exceeds MaxDrift.
func (p LeapDayPolicy) Check(y Year, m MonthIndex, drift float64) error {
	if drift > p.MaxDrift {
		return &DriftExceededError{Year: y, Index: m, Drift: drift, Limit: p.MaxDrift}
	}
	return nil
}

// Leap reports whether month m gets a leap day. Only Dhul Hijjah qualifies,
// and never in a year that already holds an intercalary month.
func (p LeapDayPolicy) Leap(m MonthIndex, drift float64, placement Placement) bool {
	return m == KabsMonth && placement == PlacementNone && drift <= p.Threshold
}

// Apply extends sp by one day when the policy calls for it.
func (p LeapDayPolicy) Apply(sp Span, m MonthIndex, placement Placement) Span {
	if !p.Leap(m, sp.Drift, placement) {
		return sp
	}
	sp.End = sp.End.Add(day)
	sp.LengthDays++
	sp.LeapDay = true
	return sp
}

// calculator produces one month per call for the configured mode.
type calculator struct {
	mode   Mode
	series Series
	leap   LeapDayPolicy
	loc    *time.Location
}

func (c calculator) month(i int, m MonthIndex, prevEnd time.Time, y Year, placement Placement) (Span, error) {
	if c.mode == ModeObserved {
		return ObservedSpan(c.series, i, c.loc)
	}

	sp, err := FixedSpan(c.series, i, m, prevEnd)
	if err != nil {
		return Span{}, err
	}
	if err := c.leap.Check(y, m, sp.Drift); err != nil {
		return Span{}, err
	}
	return c.leap.Apply(sp, m, placement), nil
}

// closing returns the instant whose Gregorian month decides a year boundary.
// Observed months close on their next full moon, fixed months on their end.
func (c calculator) closing(sp Span) time.Time {
	if c.mode == ModeObserved {
		return sp.ObservedEnd
	}
	return sp.End
}

// localDay returns midnight in loc of the day t falls on there.
func localDay(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from a to b. Both must be midnights in the
// same location; the count ignores any offset change between them.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(db.Sub(da).Hours() / 24))
}
