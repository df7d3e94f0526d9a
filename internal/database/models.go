package database

import (
	"time"

	"github.com/zapponejosh/hijri-calendar/internal/hijri"
)

// Derivation is a stored derivation run.
type Derivation struct {
	ID                 int64               `json:"id"`
	Mode               hijri.Mode          `json:"mode"`
	StartYear          int                 `json:"start_year"`
	EndYear            int                 `json:"end_year"`
	LeapDayThreshold   float64             `json:"leap_day_threshold"`
	IntercalationSplit int                 `json:"intercalation_split"`
	CreatedAt          time.Time           `json:"created_at"`
	Years              []hijri.YearSummary `json:"years,omitempty"`
	Months             []hijri.Month       `json:"months,omitempty"`
}

// Calendar rebuilds the derived calendar held by d.
func (d *Derivation) Calendar() *hijri.Calendar {
	return &hijri.Calendar{
		Mode:      d.Mode,
		StartYear: d.StartYear,
		EndYear:   d.EndYear,
		Months:    d.Months,
		Years:     d.Years,
	}
}

// PhaseCounts summarizes the stored catalogue.
type PhaseCounts struct {
	Total     int        `json:"total"`
	FullMoons int        `json:"full_moons"`
	Eclipses  int        `json:"eclipses"`
	First     *time.Time `json:"first,omitempty"`
	Last      *time.Time `json:"last,omitempty"`
}
