// Package phases turns moon-phase tables into the full-moon series consumed
// by the hijri package.
//
// Input rows follow the astropixels catalogue layout: one row per phase with
// an optional eclipse tag. Eclipses that fall on other phases are folded onto
// the full moon they follow.
package phases

import (
	"strings"
	"time"

	"github.com/zapponejosh/hijri-calendar/internal/hijri"
)

// Phase names as written in the catalogue.
const (
	NewMoon      = "New Moon"
	FirstQuarter = "First Quarter"
	FullMoon     = "Full Moon"
	LastQuarter  = "Last Quarter"
)

// Row is one catalogued moon phase.
type Row struct {
	Time    time.Time `json:"time"`
	Phase   string    `json:"phase"`
	Eclipse string    `json:"eclipse,omitempty"`
}

// IsFullMoon reports whether the row is a full moon.
func (r Row) IsFullMoon() bool {
	return r.Phase == FullMoon
}

var eclipseNames = map[string]string{
	"T": "Total Solar",
	"A": "Annular Solar",
	"H": "Hybrid (Annular/Total) Solar",
	"P": "Partial Solar",
	"t": "Total (Umbral) Lunar",
	"p": "Partial (Umbral) Lunar",
	"n": "Penumbral Lunar",
}

// DecodeEclipse maps a catalogue eclipse letter to its name. Codes are case
// sensitive: "T" is a total solar eclipse, "t" a total lunar one.
func DecodeEclipse(code string) (string, bool) {
	name, ok := eclipseNames[strings.TrimSpace(code)]
	return name, ok
}

// NormalizeEclipse returns the eclipse name for either a letter code or an
// already decoded name. Empty and "None" values yield "".
func NormalizeEclipse(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "none") {
		return ""
	}
	if name, ok := DecodeEclipse(v); ok {
		return name
	}
	return v
}

// Stats describes an aggregation pass.
type Stats struct {
	Rows      int `json:"rows"`
	FullMoons int `json:"full_moons"`
	Eclipses  int `json:"eclipses"`
	// Dropped counts eclipse tags seen before the first full moon.
	Dropped int `json:"dropped"`
}

// Aggregate keeps the full-moon rows and attaches every eclipse tag to the
// most recent full moon at or before it. Rows must be in time order.
func Aggregate(rows []Row) ([]hijri.FullMoonEvent, Stats) {
	var (
		events []hijri.FullMoonEvent
		stats  Stats
	)

	for _, r := range rows {
		stats.Rows++
		tag := NormalizeEclipse(r.Eclipse)

		if r.IsFullMoon() {
			stats.FullMoons++
			events = append(events, hijri.FullMoonEvent{Time: r.Time.UTC()})
		}

		if tag == "" {
			continue
		}
		stats.Eclipses++

		if len(events) == 0 {
			stats.Dropped++
			continue
		}
		last := &events[len(events)-1]
		last.EclipseTags = append(last.EclipseTags, tag)
	}

	return events, stats
}
