// Package hijri derives a lunar Hijri calendar from observed full-moon instants.
//
// The package is pure: it consumes an in-memory, time-ordered Series of full
// moons and produces Month records. Reading phase data, persisting results and
// rendering them are left to the callers (see internal/phases,
// internal/database and internal/render).
package hijri

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EpochYear is the Gregorian year in which Hijri year 1 begins.
const EpochYear = 622

// MonthIndex identifies a month within a Hijri year.
//
// Values 1 through 12 are the canonical months. The intercalary Muharram is
// represented by IntercalaryStart when it opens the year and IntercalaryEnd
// when it closes it; a year never holds both.
type MonthIndex int

const (
	IntercalaryStart MonthIndex = 0
	IntercalaryEnd   MonthIndex = 13

	// KabsMonth is the month that may receive a leap day in fixed mode.
	KabsMonth MonthIndex = 12
)

var monthNames = map[MonthIndex]string{
	1:  "Safar I",
	2:  "Safar II",
	3:  "Rabi I",
	4:  "Rabi II",
	5:  "Jumada I",
	6:  "Jumada II",
	7:  "Rajab",
	8:  "Sha'ban",
	9:  "Ramadan",
	10: "Shawwal",
	11: "Dhul Qadah",
	12: "Dhul Hijjah",
}

// IntercalaryName is the name of the inserted thirteenth month.
const IntercalaryName = "Muharram"

// IsIntercalary reports whether m is the inserted Muharram.
func (m MonthIndex) IsIntercalary() bool {
	return m == IntercalaryStart || m == IntercalaryEnd
}

// Canonical returns the 1-12 position of a canonical month.
func (m MonthIndex) Canonical() (int, bool) {
	if m >= 1 && m <= 12 {
		return int(m), true
	}
	return 0, false
}

// Valid reports whether m is within 0..13.
func (m MonthIndex) Valid() bool {
	return m >= IntercalaryStart && m <= IntercalaryEnd
}

// Name returns the month name.
func (m MonthIndex) Name() string {
	if m.IsIntercalary() {
		return IntercalaryName
	}
	if name, ok := monthNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Month(%d)", int(m))
}

func (m MonthIndex) String() string {
	return m.Name()
}

// Year is an epoch-relative Hijri year. Positive values are "H." years,
// negative values are "B.H." years; zero is never used.
type Year int

// Next returns the following year, skipping zero.
func (y Year) Next() Year {
	n := y + 1
	if n == 0 {
		n = 1
	}
	return n
}

// String returns the notated year, e.g. "45 H." or "21 B.H.".
func (y Year) String() string {
	if y < 0 {
		return strconv.Itoa(int(-y)) + " B.H."
	}
	return strconv.Itoa(int(y)) + " H."
}

// YearForGregorian returns the Hijri year whose months start in Gregorian year g.
// 621 maps to -1 and 622 to 1.
func YearForGregorian(g int) Year {
	if g >= EpochYear {
		return Year(g - EpochYear + 1)
	}
	return Year(g - EpochYear)
}

// GregorianForYear is the inverse of YearForGregorian.
func GregorianForYear(y Year) int {
	if y > 0 {
		return int(y) + EpochYear - 1
	}
	return int(y) + EpochYear
}

// ParseYear parses a plain signed integer ("-21", "45") or a notated year
// ("21 B.H.", "45 H.", "45H", "21BH").
func ParseYear(s string) (Year, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		return 0, fmt.Errorf("parse hijri year: empty value")
	}

	sign := 1
	compact := strings.ReplaceAll(strings.ReplaceAll(raw, ".", ""), " ", "")
	switch {
	case strings.HasSuffix(compact, "BH"):
		sign = -1
		compact = strings.TrimSuffix(compact, "BH")
	case strings.HasSuffix(compact, "H"):
		compact = strings.TrimSuffix(compact, "H")
	}

	n, err := strconv.Atoi(compact)
	if err != nil {
		return 0, fmt.Errorf("parse hijri year %q: %w", s, err)
	}
	if sign < 0 && n < 0 {
		return 0, fmt.Errorf("parse hijri year %q: negative B.H. year", s)
	}
	if n == 0 {
		return 0, fmt.Errorf("parse hijri year %q: there is no year zero", s)
	}

	return Year(sign * n), nil
}

// Placement is where the intercalary month falls in a Hijri year.
type Placement int

const (
	PlacementNone Placement = iota
	PlacementStart
	PlacementEnd
)

func (p Placement) String() string {
	switch p {
	case PlacementStart:
		return "start"
	case PlacementEnd:
		return "end"
	default:
		return "none"
	}
}

// MarshalText encodes the placement as its name.
func (p Placement) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses "none", "start" or "end".
func (p *Placement) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none", "":
		*p = PlacementNone
	case "start":
		*p = PlacementStart
	case "end":
		*p = PlacementEnd
	default:
		return fmt.Errorf("unknown intercalation placement %q", b)
	}
	return nil
}

// Month is one derived Hijri month. Start is inclusive and End exclusive,
// both in the display location (Mecca by default).
type Month struct {
	Index        MonthIndex `json:"index"`
	Name         string     `json:"name"`
	Start        time.Time  `json:"start"`
	End          time.Time  `json:"end"`
	LengthDays   int        `json:"length_days"`
	Weekday      string     `json:"weekday"`
	LeapDay      bool       `json:"leap_day"`
	Drift        float64    `json:"drift_days,omitempty"`
	FullMoon     time.Time  `json:"full_moon"`
	NextFullMoon time.Time  `json:"next_full_moon"`
	Eclipse      string     `json:"eclipse,omitempty"`
	Year         Year       `json:"year"`
	YearNotation string     `json:"year_notation"`
}

// LastDay returns the final day of the month.
func (m Month) LastDay() time.Time {
	return m.End.AddDate(0, 0, -1)
}

// YearSummary describes a closed Hijri year.
type YearSummary struct {
	Year          Year      `json:"year"`
	Notation      string    `json:"notation"`
	GregorianYear int       `json:"gregorian_year"`
	Months        int       `json:"months"`
	Days          int       `json:"days"`
	Placement     Placement `json:"intercalation"`
	// Complete is false for the leading partial year of a run.
	Complete bool `json:"complete"`
}

// Calendar is the result of one derivation run.
type Calendar struct {
	Mode      Mode          `json:"mode"`
	StartYear int           `json:"start_year"`
	EndYear   int           `json:"end_year"`
	Months    []Month       `json:"months"`
	Years     []YearSummary `json:"years"`
}

// MonthsOf returns the months belonging to Hijri year y.
func (c *Calendar) MonthsOf(y Year) []Month {
	var out []Month
	for _, m := range c.Months {
		if m.Year == y {
			out = append(out, m)
		}
	}
	return out
}
