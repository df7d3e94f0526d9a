package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapponejosh/hijri-calendar/internal/hijri"
)

// =============================================================================
// Derivation Queries
// =============================================================================

// SaveDerivation stores a calendar and the options that produced it in one
// transaction and returns the new derivation id.
func (db *DB) SaveDerivation(ctx context.Context, cal *hijri.Calendar, opts hijri.Options) (int64, error) {
	if cal == nil {
		return 0, errors.New("save derivation: nil calendar")
	}

	var id int64
	err := db.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO derivations (mode, start_year, end_year, leap_day_threshold, intercalation_split)
			VALUES (?, ?, ?, ?, ?)
		`, string(cal.Mode), cal.StartYear, cal.EndYear, opts.LeapDayThreshold, opts.IntercalationSplit)
		if err != nil {
			return fmt.Errorf("insert derivation: %w", err)
		}

		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("get derivation id: %w", err)
		}

		for _, y := range cal.Years {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO derived_years (derivation_id, hijri_year, gregorian_year, months, days, intercalation, complete)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, id, int(y.Year), y.GregorianYear, y.Months, y.Days, y.Placement.String(), y.Complete)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("insert year %s: %w", y.Notation, ErrDuplicate)
				}
				return fmt.Errorf("insert year %s: %w", y.Notation, err)
			}
		}

		for seq, m := range cal.Months {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO derived_months (
					derivation_id, seq, hijri_year, month_index, name,
					start_at, end_at, length_days, leap_day, drift_days,
					full_moon_at, next_full_moon_at, eclipse
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				id, seq, int(m.Year), int(m.Index), m.Name,
				instant(m.Start), instant(m.End), m.LengthDays, m.LeapDay, m.Drift,
				instant(m.FullMoon), instant(m.NextFullMoon), nullString(m.Eclipse),
			)
			if err != nil {
				return fmt.Errorf("insert month %d: %w", seq, err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	db.logger.Info("derivation saved",
		slog.Int64("id", id),
		slog.Int("months", len(cal.Months)),
		slog.Int("years", len(cal.Years)),
	)

	return id, nil
}

// GetDerivation loads a stored derivation with its years and months. Month
// instants are returned in loc; nil means Mecca.
func (db *DB) GetDerivation(ctx context.Context, id int64, loc *time.Location) (*Derivation, error) {
	var (
		d       Derivation
		mode    string
		created sql.NullString
	)

	err := db.QueryRowContext(ctx, `
		SELECT id, mode, start_year, end_year, leap_day_threshold, intercalation_split, created_at
		FROM derivations
		WHERE id = ?
	`, id).Scan(&d.ID, &mode, &d.StartYear, &d.EndYear, &d.LeapDayThreshold, &d.IntercalationSplit, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query derivation %d: %w", id, err)
	}

	d.Mode = hijri.Mode(mode)
	if created.Valid {
		if t, err := time.ParseInLocation(time.DateTime, created.String, time.UTC); err == nil {
			d.CreatedAt = t
		}
	}

	if d.Years, err = db.listDerivedYears(ctx, id); err != nil {
		return nil, err
	}
	if d.Months, err = db.ListDerivedMonths(ctx, id, loc); err != nil {
		return nil, err
	}

	return &d, nil
}

func (db *DB) listDerivedYears(ctx context.Context, id int64) ([]hijri.YearSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT hijri_year, gregorian_year, months, days, intercalation, complete
		FROM derived_years
		WHERE derivation_id = ?
		ORDER BY gregorian_year ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query derived years: %w", err)
	}
	defer rows.Close()

	var out []hijri.YearSummary
	for rows.Next() {
		var (
			y         hijri.YearSummary
			year      int
			placement string
		)
		if err := rows.Scan(&year, &y.GregorianYear, &y.Months, &y.Days, &placement, &y.Complete); err != nil {
			return nil, fmt.Errorf("scan derived year: %w", err)
		}
		y.Year = hijri.Year(year)
		y.Notation = y.Year.String()
		y.Placement = parsePlacement(placement)
		out = append(out, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate derived years: %w", err)
	}

	return out, nil
}

// ListDerivedMonths returns the months of a stored derivation in order.
// Returns ErrNotFound if the derivation has no months.
func (db *DB) ListDerivedMonths(ctx context.Context, id int64, loc *time.Location) ([]hijri.Month, error) {
	if loc == nil {
		loc = hijri.Mecca()
	}

	rows, err := db.QueryContext(ctx, `
		SELECT hijri_year, month_index, name, start_at, end_at, length_days, leap_day,
			drift_days, full_moon_at, next_full_moon_at, eclipse
		FROM derived_months
		WHERE derivation_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query derived months: %w", err)
	}
	defer rows.Close()

	var out []hijri.Month
	for rows.Next() {
		var (
			m                              hijri.Month
			year, index                    int
			start, end, fullMoon, nextMoon string
			eclipse                        sql.NullString
		)
		err := rows.Scan(&year, &index, &m.Name, &start, &end, &m.LengthDays, &m.LeapDay,
			&m.Drift, &fullMoon, &nextMoon, &eclipse)
		if err != nil {
			return nil, fmt.Errorf("scan derived month: %w", err)
		}

		m.Year = hijri.Year(year)
		m.YearNotation = m.Year.String()
		m.Index = hijri.MonthIndex(index)
		m.Eclipse = eclipse.String

		for _, f := range []struct {
			dst *time.Time
			src string
		}{
			{&m.Start, start},
			{&m.End, end},
			{&m.FullMoon, fullMoon},
			{&m.NextFullMoon, nextMoon},
		} {
			t, err := time.Parse(time.RFC3339, f.src)
			if err != nil {
				return nil, fmt.Errorf("parse month instant %q: %w", f.src, err)
			}
			*f.dst = t.In(loc)
		}
		m.Weekday = m.Start.Weekday().String()

		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate derived months: %w", err)
	}

	if len(out) == 0 {
		return nil, ErrNotFound
	}

	return out, nil
}

func instant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parsePlacement treats unknown stored values as no intercalation.
func parsePlacement(s string) hijri.Placement {
	var p hijri.Placement
	if err := p.UnmarshalText([]byte(s)); err != nil {
		return hijri.PlacementNone
	}
	return p
}
