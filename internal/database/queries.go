package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapponejosh/hijri-calendar/internal/hijri"
	"github.com/zapponejosh/hijri-calendar/internal/phases"
)

// =============================================================================
// Helper Functions
// =============================================================================

// phaseTime formats an instant the way occurred_at stores it.
func phaseTime(t time.Time) string {
	return t.UTC().Format(phases.TimeLayout)
}

func parsePhaseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(phases.TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse phase time %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// =============================================================================
// Moon Phase Queries
// =============================================================================

func upsertPhase(ctx context.Context, q querier, r phases.Row) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO moon_phases (occurred_at, phase, eclipse)
		VALUES (?, ?, ?)
		ON CONFLICT (occurred_at, phase) DO UPDATE SET eclipse = excluded.eclipse
	`, phaseTime(r.Time), r.Phase, nullString(r.Eclipse))
	if err != nil {
		return fmt.Errorf("upsert phase %s %s: %w", r.Phase, phaseTime(r.Time), err)
	}
	return nil
}

// UpsertPhase inserts a phase row, replacing the eclipse of an existing
// row with the same time and phase.
func (db *DB) UpsertPhase(ctx context.Context, r phases.Row) error {
	return upsertPhase(ctx, db, r)
}

// UpsertPhase is the transactional form of DB.UpsertPhase.
func (tx *Tx) UpsertPhase(ctx context.Context, r phases.Row) error {
	return upsertPhase(ctx, tx, r)
}

// ListPhases returns the phases in [from, to), ordered by time. A zero bound
// is open.
func (db *DB) ListPhases(ctx context.Context, from, to time.Time) ([]phases.Row, error) {
	query := `SELECT occurred_at, phase, eclipse FROM moon_phases WHERE 1 = 1`
	var args []any

	if !from.IsZero() {
		query += ` AND occurred_at >= ?`
		args = append(args, phaseTime(from))
	}
	if !to.IsZero() {
		query += ` AND occurred_at < ?`
		args = append(args, phaseTime(to))
	}
	query += ` ORDER BY occurred_at ASC, id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query phases: %w", err)
	}
	defer rows.Close()

	var out []phases.Row
	for rows.Next() {
		var (
			occurred string
			row      phases.Row
			eclipse  sql.NullString
		)
		if err := rows.Scan(&occurred, &row.Phase, &eclipse); err != nil {
			return nil, fmt.Errorf("scan phase row: %w", err)
		}
		if row.Time, err = parsePhaseTime(occurred); err != nil {
			return nil, err
		}
		row.Eclipse = eclipse.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phases: %w", err)
	}

	return out, nil
}

// CountPhases summarizes the stored catalogue.
func (db *DB) CountPhases(ctx context.Context) (*PhaseCounts, error) {
	var (
		counts      PhaseCounts
		first, last sql.NullString
	)

	err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN phase = 'Full Moon' THEN 1 ELSE 0 END), 0),
			COUNT(eclipse),
			MIN(occurred_at),
			MAX(occurred_at)
		FROM moon_phases
	`).Scan(&counts.Total, &counts.FullMoons, &counts.Eclipses, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("count phases: %w", err)
	}

	if first.Valid {
		t, err := parsePhaseTime(first.String)
		if err != nil {
			return nil, err
		}
		counts.First = &t
	}
	if last.Valid {
		t, err := parsePhaseTime(last.String)
		if err != nil {
			return nil, err
		}
		counts.Last = &t
	}

	return &counts, nil
}

// LoadFullMoons returns the whole stored catalogue as a full-moon series with
// eclipse tags aggregated.
func (db *DB) LoadFullMoons(ctx context.Context) (hijri.Series, error) {
	rows, err := db.ListPhases(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	events, stats := phases.Aggregate(rows)
	db.logger.Debug("full moons loaded",
		slog.Int("rows", stats.Rows),
		slog.Int("full_moons", stats.FullMoons),
		slog.Int("dropped_eclipses", stats.Dropped),
	)

	return hijri.Series(events), nil
}
