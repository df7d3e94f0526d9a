package hijri

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below unwraps to one of these so callers
// can use errors.Is without caring about the detail.
var (
	ErrOutOfData       = errors.New("out of full moon data")
	ErrDataConsistency = errors.New("inconsistent full moon data")
	ErrDriftExceeded   = errors.New("calendar drift exceeded")
	ErrSeasonalDrift   = errors.New("hijri year drifted from the solar year")
	ErrInvalidOptions  = errors.New("invalid derivation options")
)

// OutOfDataError reports that the requested year range needs more full moons
// than the series holds.
type OutOfDataError struct {
	Needed    int // index of the missing event
	Available int
}

func (e *OutOfDataError) Error() string {
	return fmt.Sprintf("%s: need event %d, series holds %d", ErrOutOfData, e.Needed, e.Available)
}

func (e *OutOfDataError) Unwrap() error { return ErrOutOfData }

// DataConsistencyError reports mis-ordered input or an impossible month length.
type DataConsistencyError struct {
	Cursor int
	Reason string
}

func (e *DataConsistencyError) Error() string {
	return fmt.Sprintf("%s at event %d: %s", ErrDataConsistency, e.Cursor, e.Reason)
}

func (e *DataConsistencyError) Unwrap() error { return ErrDataConsistency }

// DriftExceededError reports that a fixed-mode month started too far after
// its full moon.
type DriftExceededError struct {
	Year  Year
	Index MonthIndex
	Drift float64
	Limit float64
}

func (e *DriftExceededError) Error() string {
	return fmt.Sprintf("%s: %s %s is %.2f days off its full moon (limit %.2f)",
		ErrDriftExceeded, e.Index.Name(), e.Year, e.Drift, e.Limit)
}

func (e *DriftExceededError) Unwrap() error { return ErrDriftExceeded }

// SeasonalDriftError reports a closed year whose length strays too far from
// the mean solar year.
type SeasonalDriftError struct {
	Year      Year
	Days      int
	Deviation float64
	Limit     float64
}

func (e *SeasonalDriftError) Error() string {
	return fmt.Sprintf("%s: year %s has %d days, %.2f days from the solar year (limit %.0f)",
		ErrSeasonalDrift, e.Year, e.Days, e.Deviation, e.Limit)
}

func (e *SeasonalDriftError) Unwrap() error { return ErrSeasonalDrift }
