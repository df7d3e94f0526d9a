package render

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/zapponejosh/hijri-calendar/internal/hijri"
)

const (
	icsProductID = "-//Hijri Calendar//Derivation//EN"
	icsDomain    = "hijri-calendar"
)

// now stamps DTSTAMP; tests replace it.
var now = time.Now

// ICS writes one all-day event per month. Event dates are the month's days
// in the calendar's display location; DTEND is exclusive.
func ICS(w io.Writer, cal *hijri.Calendar) error {
	tr, err := NewTranslator("en")
	if err != nil {
		return err
	}

	out := ical.NewCalendar()
	out.Props.SetText(ical.PropVersion, "2.0")
	out.Props.SetText(ical.PropProductID, icsProductID)
	out.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	out.Props.SetText("X-WR-CALNAME", fmt.Sprintf("Hijri calendar (%s)", cal.Mode))

	stamp := now().UTC()

	for _, m := range cal.Months {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("%d-%02d-%s-%s@%s",
			int(m.Year), int(m.Index), m.Start.Format("20060102"), cal.Mode, icsDomain))
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)

		start := ical.NewProp(ical.PropDateTimeStart)
		start.SetDate(m.Start)
		event.Props.Set(start)

		end := ical.NewProp(ical.PropDateTimeEnd)
		end.SetDate(m.End)
		event.Props.Set(end)

		event.Props.SetText(ical.PropSummary, fmt.Sprintf("%s %s", m.Name, m.YearNotation))

		desc := tr.T("EventDescription", map[string]any{
			"Days":     m.LengthDays,
			"Year":     m.YearNotation,
			"FullMoon": tr.Date(m.FullMoon),
		})
		if m.Eclipse != "" {
			desc += " " + tr.T("Eclipse", nil) + ": " + m.Eclipse
		}
		event.Props.SetText(ical.PropDescription, desc)

		out.Children = append(out.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("encode iCalendar: %w", err)
	}
	return nil
}
