package hijri

import (
	"fmt"
	"strings"
	"time"
)

// FullMoonEvent is one observed full moon. EclipseTags holds the eclipses seen
// between this full moon and the next one.
type FullMoonEvent struct {
	Time        time.Time `json:"time"`
	EclipseTags []string  `json:"eclipse_tags,omitempty"`
}

// Eclipse returns the tags joined for display.
func (e FullMoonEvent) Eclipse() string {
	return strings.Join(e.EclipseTags, ", ")
}

// Series is a strictly time-ordered, indexable sequence of full moons.
type Series []FullMoonEvent

// Validate checks that timestamps are strictly increasing.
func (s Series) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return &DataConsistencyError{
				Cursor: i,
				Reason: fmt.Sprintf("full moon %s does not follow %s",
					s[i].Time.UTC().Format(time.DateTime), s[i-1].Time.UTC().Format(time.DateTime)),
			}
		}
	}
	return nil
}

// Seek returns the index of the first full moon in Gregorian year g (UTC) or
// later, or len(s) when there is none.
func (s Series) Seek(g int) int {
	for i, e := range s {
		if e.Time.UTC().Year() >= g {
			return i
		}
	}
	return len(s)
}

// pair returns the full moons backing the month at cursor i.
func (s Series) pair(i int) (FullMoonEvent, FullMoonEvent, error) {
	if i < 0 || i+1 >= len(s) {
		return FullMoonEvent{}, FullMoonEvent{}, &OutOfDataError{Needed: i + 1, Available: len(s)}
	}
	return s[i], s[i+1], nil
}
