package hijri

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendMonths(l *Ledger, lengths ...int) {
	for _, n := range lengths {
		l.Append(l.NextIndex(), Span{LengthDays: n})
	}
}

func TestLedgerIndexing(t *testing.T) {
	l := NewLedger(-1, 621, SolarYearDays, DefaultSeasonalTolerance)
	assert.Equal(t, MonthIndex(1), l.NextIndex())

	l.Advance(PlacementStart, 622)
	assert.Equal(t, Year(1), l.Year(), "year after 1 B.H. is 1 H.")
	assert.Equal(t, IntercalaryStart, l.NextIndex())
	appendMonths(l, 30)
	assert.Equal(t, MonthIndex(1), l.NextIndex())

	l.Advance(PlacementEnd, 623)
	assert.Equal(t, MonthIndex(1), l.NextIndex())
}

func TestLedgerBoundary(t *testing.T) {
	dec := time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	partial := NewLedger(1403, 2024, SolarYearDays, DefaultSeasonalTolerance)
	appendMonths(partial, 30, 29, 30)
	assert.True(t, partial.Boundary(dec, jan), "a partial year closes on the first January crossing")
	assert.False(t, partial.Boundary(jan, feb))
	assert.False(t, partial.Boundary(jan, jan.AddDate(0, 0, 20)), "start already in January")

	full := NewLedger(1403, 2024, SolarYearDays, DefaultSeasonalTolerance)
	full.Advance(PlacementNone, 2024)
	appendMonths(full, 30, 29, 30, 29, 30, 29, 30, 29, 30, 29, 30, 29)
	assert.True(t, full.Boundary(dec, jan))

	// With Muharram first, the crossing can land on Dhul Qadah.
	early := NewLedger(1403, 2024, SolarYearDays, DefaultSeasonalTolerance)
	early.Advance(PlacementStart, 2024)
	appendMonths(early, 30, 30, 29, 30, 29, 30, 29, 30, 29, 30, 29, 30)
	assert.Equal(t, KabsMonth, early.NextIndex())
	assert.True(t, early.Boundary(dec, jan), "January crossing closes the year at Dhul Qadah")
	summary, err := early.Close()
	require.NoError(t, err)
	assert.Equal(t, 12, summary.Months)
	assert.Equal(t, 355, summary.Days)

	thirteen := NewLedger(1403, 2024, SolarYearDays, DefaultSeasonalTolerance)
	thirteen.Advance(PlacementEnd, 2024)
	appendMonths(thirteen, 30, 29, 30, 29, 30, 29, 30, 29, 30, 29, 30, 29, 30)
	assert.True(t, thirteen.Boundary(jan, feb), "thirteen months always close")

	summary, err = thirteen.Close()
	require.NoError(t, err)
	assert.Equal(t, PlacementEnd, summary.Placement)
	assert.Equal(t, 13, summary.Months)
	assert.Equal(t, 384, summary.Days)
}

func TestLedgerSeasonalDrift(t *testing.T) {
	l := NewLedger(10, 631, SolarYearDays, DefaultSeasonalTolerance)
	l.Advance(PlacementEnd, 632)
	appendMonths(l, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30)
	require.Equal(t, 390, l.Days())
	l.Append(IntercalaryEnd, Span{LengthDays: 10})

	// 400 days is about 35 days over the solar year.
	_, err := l.Close()
	var sde *SeasonalDriftError
	require.ErrorAs(t, err, &sde)
	assert.Equal(t, Year(11), sde.Year)
	assert.Equal(t, 400, sde.Days)
	assert.InDelta(t, 34.75781, sde.Deviation, 1e-5)
	assert.ErrorIs(t, err, ErrSeasonalDrift)
}

func TestLedgerSeasonalTolerance(t *testing.T) {
	l := NewLedger(10, 631, SolarYearDays, 20)
	l.Advance(PlacementEnd, 632)
	appendMonths(l, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30)

	_, err := l.Close()
	assert.ErrorIs(t, err, ErrSeasonalDrift)

	l = NewLedger(10, 631, SolarYearDays, DefaultSeasonalTolerance)
	l.Advance(PlacementNone, 632)
	appendMonths(l, 30, 29, 30, 29, 30, 29, 30, 29, 30, 29, 30, 30)
	summary, err := l.Close()
	require.NoError(t, err)
	assert.Equal(t, 355, summary.Days)
	assert.True(t, summary.Complete)
}

func TestLedgerSkipsSeasonalCheckOnPartialYear(t *testing.T) {
	l := NewLedger(10, 631, SolarYearDays, DefaultSeasonalTolerance)
	appendMonths(l, 30, 29)

	summary, err := l.Close()
	require.NoError(t, err)
	assert.False(t, summary.Complete)
	assert.Equal(t, "10 H.", summary.Notation)
}

func TestLedgerCheckSeasonOnFirstYear(t *testing.T) {
	l := NewLedger(10, 631, SolarYearDays, DefaultSeasonalTolerance)
	l.CheckSeason()
	appendMonths(l, 30, 29, 30, 29, 30, 29, 30, 29, 30, 29, 30)

	// 325 days is about 40 days short of the solar year.
	summary, err := l.Close()
	assert.False(t, summary.Complete)
	var sde *SeasonalDriftError
	require.ErrorAs(t, err, &sde)
	assert.Equal(t, 325, sde.Days)

	l.Advance(PlacementNone, 632)
	assert.False(t, l.seasonal, "the mark does not carry into later years")
}
