// Package render presents derived calendars as text, JSON or iCalendar.
package render

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/zapponejosh/hijri-calendar/internal/hijri"
)

// Formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatICS  = "ics"
)

// Write renders cal in the named format.
func Write(w io.Writer, cal *hijri.Calendar, format, lang string) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		return Text(w, cal, lang)
	case FormatJSON:
		return JSON(w, cal)
	case FormatICS:
		return ICS(w, cal)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Text writes a listing with a header per Hijri year and four lines per
// month: name and length, observed full moons, Gregorian span and Hijri span.
func Text(w io.Writer, cal *hijri.Calendar, lang string) error {
	tr, err := NewTranslator(lang)
	if err != nil {
		return err
	}

	years := make(map[hijri.Year]hijri.YearSummary, len(cal.Years))
	for _, y := range cal.Years {
		years[y.Year] = y
	}

	bw := bufio.NewWriter(w)
	var current hijri.Year

	for _, m := range cal.Months {
		if m.Year != current {
			current = m.Year
			writeYearHeader(bw, tr, m, years[m.Year])
		}

		title := fmt.Sprintf("%s %d", m.Name, m.LengthDays)
		if m.LeapDay {
			title += " (" + tr.T("LeapDay", nil) + ")"
		}
		fmt.Fprintf(bw, "%s\t%s\n", tr.Weekday(m.Start.Weekday()), title)

		fmt.Fprintf(bw, "\t%s: %s - %s\n", tr.T("FullMoonObserved", nil),
			tr.Date(m.FullMoon), tr.Date(m.NextFullMoon))
		fmt.Fprintf(bw, "\t%s: %s - %s\n", tr.T("HijriGregorian", nil),
			tr.Date(m.Start), tr.Date(m.LastDay()))
		fmt.Fprintf(bw, "\t%s: %s 1, %s - %s %d, %s\n", tr.T("HijriNatural", nil),
			m.Name, m.YearNotation, m.Name, m.LengthDays, m.YearNotation)
		if m.Eclipse != "" {
			fmt.Fprintf(bw, "\t%s: %s\n", tr.T("Eclipse", nil), m.Eclipse)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

func writeYearHeader(w io.Writer, tr *Translator, m hijri.Month, y hijri.YearSummary) {
	gregorian := y.GregorianYear
	if gregorian == 0 {
		gregorian = m.Start.Year()
	}

	fmt.Fprintf(w, "\n%s\n", tr.T("YearHeader", map[string]any{
		"Gregorian": gregorian,
		"Hijri":     m.YearNotation,
	}))
	fmt.Fprintf(w, "%s\n\n", tr.T("Intercalation", map[string]any{
		"Placement": tr.T(placementKey(y.Placement), nil),
	}))
}

func placementKey(p hijri.Placement) string {
	switch p {
	case hijri.PlacementStart:
		return "PlacementStart"
	case hijri.PlacementEnd:
		return "PlacementEnd"
	default:
		return "PlacementNone"
	}
}

// JSON writes the calendar as indented JSON.
func JSON(w io.Writer, cal *hijri.Calendar) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}
