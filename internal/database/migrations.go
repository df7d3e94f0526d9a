package database

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	sql     string
}

// migrations lists the schema steps in ascending version order.
var migrations = []migration{
	{1, "moon_phases", migrationV1MoonPhases},
	{2, "derivations", migrationV2Derivations},
}

// schemaMigrationsSQL records which steps a database has applied.
const schemaMigrationsSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
)`

// latestVersion is the version a fully migrated database reports.
func latestVersion() int {
	return migrations[len(migrations)-1].version
}

// migrationV1MoonPhases stores the phase catalogue as imported.
//
// occurred_at is UTC text in "YYYY-MM-DD HH:MM:SS" form. Years are four
// digits wide so lexical order is time order for 0001-9999.
const migrationV1MoonPhases = `
CREATE TABLE IF NOT EXISTS moon_phases (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    occurred_at TEXT NOT NULL,
    phase TEXT NOT NULL CHECK (phase IN (
        'New Moon',
        'First Quarter',
        'Full Moon',
        'Last Quarter'
    )),
    -- Decoded eclipse name, NULL when none
    eclipse TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE (occurred_at, phase)
);

CREATE INDEX IF NOT EXISTS idx_moon_phases_occurred
    ON moon_phases(occurred_at);

CREATE INDEX IF NOT EXISTS idx_moon_phases_full
    ON moon_phases(occurred_at)
    WHERE phase = 'Full Moon';
`

// migrationV2Derivations stores derivation runs with their years and months.
// Instants are RFC 3339 UTC; display zones are applied when loading.
const migrationV2Derivations = `
CREATE TABLE IF NOT EXISTS derivations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    mode TEXT NOT NULL CHECK (mode IN ('observed', 'fixed')),
    start_year INTEGER NOT NULL,
    end_year INTEGER NOT NULL,
    leap_day_threshold REAL NOT NULL,
    intercalation_split INTEGER NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),

    CHECK (end_year > start_year)
);

CREATE TABLE IF NOT EXISTS derived_years (
    derivation_id INTEGER NOT NULL,
    hijri_year INTEGER NOT NULL CHECK (hijri_year != 0),
    gregorian_year INTEGER NOT NULL,
    months INTEGER NOT NULL,
    days INTEGER NOT NULL,
    intercalation TEXT NOT NULL CHECK (intercalation IN ('none', 'start', 'end')),
    complete INTEGER NOT NULL DEFAULT 1,

    PRIMARY KEY (derivation_id, hijri_year),
    FOREIGN KEY (derivation_id) REFERENCES derivations(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS derived_months (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    derivation_id INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    hijri_year INTEGER NOT NULL CHECK (hijri_year != 0),
    month_index INTEGER NOT NULL CHECK (month_index BETWEEN 0 AND 13),
    name TEXT NOT NULL,
    start_at TEXT NOT NULL,
    end_at TEXT NOT NULL,
    length_days INTEGER NOT NULL CHECK (length_days IN (29, 30)),
    leap_day INTEGER NOT NULL DEFAULT 0,
    drift_days REAL NOT NULL DEFAULT 0,
    full_moon_at TEXT NOT NULL,
    next_full_moon_at TEXT NOT NULL,
    eclipse TEXT,

    UNIQUE (derivation_id, seq),
    FOREIGN KEY (derivation_id) REFERENCES derivations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_derived_months_year
    ON derived_months(derivation_id, hijri_year);
`
