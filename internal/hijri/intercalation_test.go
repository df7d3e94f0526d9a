package hijri

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func seriesOf(times ...time.Time) Series {
	s := make(Series, len(times))
	for i, t := range times {
		s[i] = FullMoonEvent{Time: t}
	}
	return s
}

func TestResolveIntercalation(t *testing.T) {
	// Blue moon in January 2024: the third pair scanned from cursor 0.
	early := seriesOf(
		utc(2023, 11, 20, 9, 0),
		utc(2023, 12, 19, 22, 0),
		utc(2024, 1, 2, 3, 0),
		utc(2024, 1, 31, 16, 0),
		utc(2024, 3, 1, 5, 0),
	)

	// Monthly full moons mid-month, with a blue moon in August 2024 found
	// at position 9.
	late := seriesOf(
		utc(2023, 12, 15, 0, 0),
		utc(2024, 1, 14, 0, 0),
		utc(2024, 2, 12, 0, 0),
		utc(2024, 3, 13, 0, 0),
		utc(2024, 4, 11, 0, 0),
		utc(2024, 5, 11, 0, 0),
		utc(2024, 6, 9, 0, 0),
		utc(2024, 7, 9, 0, 0),
		utc(2024, 8, 1, 0, 0),
		utc(2024, 8, 30, 0, 0),
		utc(2024, 9, 29, 0, 0),
	)

	tests := []struct {
		name   string
		series Series
		cursor int
		bound  int
		split  int
		want   Intercalation
	}{
		{"blue moon at position 3", early, 0, 2024, 6, Intercalation{PlacementStart, 3}},
		{"blue moon at position 1", early, 2, 2024, 6, Intercalation{PlacementStart, 1}},
		{"blue moon after split", late, 0, 2024, 6, Intercalation{PlacementEnd, 9}},
		{"split moved past the blue moon", late, 0, 2024, 9, Intercalation{PlacementStart, 9}},
		{"bound year reached first", late, 0, 2023, 6, Intercalation{}},
		{"series exhausted", early, 3, 2024, 6, Intercalation{}},
		{"cursor out of range", early, 9, 2024, 6, Intercalation{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveIntercalation(tt.series, tt.cursor, tt.bound, tt.split))
		})
	}
}

func TestResolveIntercalationLookaheadLimit(t *testing.T) {
	// Fourteen pairs without a blue moon, then one at position 15.
	var times []time.Time
	for m := 0; m < 15; m++ {
		times = append(times, utc(2020, time.January, 15, 0, 0).AddDate(0, m, 0))
	}
	times = append(times, utc(2021, time.March, 28, 0, 0))

	s := seriesOf(times...)
	assert.Equal(t, Intercalation{}, ResolveIntercalation(s, 0, 2021, 6))
	assert.Equal(t, Intercalation{PlacementStart, 1}, ResolveIntercalation(s, 14, 2021, 6))
}
