package phases

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/zapponejosh/hijri-calendar/internal/hijri"
)

// TimeLayout is the catalogue's UTC timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// Column names of the catalogue CSV.
const (
	ColumnDatetime     = "datetime"
	ColumnPhase        = "phase"
	ColumnFriendlyDate = "friendlydate"
	ColumnEclipse      = "eclipse"
)

// ReadCSV parses a catalogue CSV. Columns are located by header name;
// friendlydate is ignored and eclipse is optional.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	dtCol, ok := cols[ColumnDatetime]
	if !ok {
		return nil, fmt.Errorf("missing %q column", ColumnDatetime)
	}
	phaseCol, ok := cols[ColumnPhase]
	if !ok {
		return nil, fmt.Errorf("missing %q column", ColumnPhase)
	}
	eclipseCol, hasEclipse := cols[ColumnEclipse]

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		if dtCol >= len(rec) || phaseCol >= len(rec) {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d",
				line, max(dtCol, phaseCol)+1, len(rec))
		}

		ts, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(rec[dtCol]), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse datetime: %w", line, err)
		}

		row := Row{Time: ts, Phase: strings.TrimSpace(rec[phaseCol])}
		if hasEclipse && eclipseCol < len(rec) {
			row.Eclipse = NormalizeEclipse(rec[eclipseCol])
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// WriteCSV writes rows in the catalogue layout.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{ColumnDatetime, ColumnPhase, ColumnFriendlyDate, ColumnEclipse}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		t := r.Time.UTC()
		rec := []string{t.Format(TimeLayout), r.Phase, t.Format("January 02, 2006"), r.Eclipse}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// LoadFile reads a catalogue CSV and aggregates it into a full-moon series.
func LoadFile(path string) (hijri.Series, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open phase file: %w", err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("parse %s: %w", path, err)
	}

	events, stats := Aggregate(rows)
	return hijri.Series(events), stats, nil
}
