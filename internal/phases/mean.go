package phases

import (
	"math"
	"time"
)

// SynodicDays is the mean length of a lunation in days.
const SynodicDays = 29.530588853

// meanNewMoon is the mean new moon of 2000-01-06 18:14 UTC.
var meanNewMoon = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

var quarterNames = [4]string{NewMoon, FirstQuarter, FullMoon, LastQuarter}

const quarterSeconds = SynodicDays * 86400 / 4

// quarterAt returns the n-th mean quarter after meanNewMoon. Whole days go
// through AddDate so centuries away from 2000 do not overflow a Duration.
func quarterAt(n int64) time.Time {
	secs := float64(n) * quarterSeconds
	days := math.Floor(secs / 86400)
	rem := time.Duration((secs - days*86400) * float64(time.Second))
	return meanNewMoon.AddDate(0, 0, int(days)).Add(rem)
}

// Mean returns the mean phases in [from, to), truncated to the minute. Real
// phases stray from the mean by up to about fourteen hours, so the result
// suits demos and tests rather than an observed calendar.
func Mean(from, to time.Time) []Row {
	n := int64(math.Floor(float64(from.Unix()-meanNewMoon.Unix()) / quarterSeconds))
	for quarterAt(n).After(from) {
		n--
	}

	var rows []Row
	for ; ; n++ {
		at := quarterAt(n)
		if !at.Before(to) {
			break
		}
		if at.Before(from) {
			continue
		}
		rows = append(rows, Row{
			Time:  at.Truncate(time.Minute),
			Phase: quarterNames[((n%4)+4)%4],
		})
	}

	return rows
}
