// Command import loads a moon-phase CSV catalogue into the SQLite database.
//
// Usage:
//
//	go run ./cmd/import -csv data/moon-phases.csv -db data/hijri.db
//
// This tool:
// 1. Parses the CSV file (datetime, phase, friendlydate, eclipse columns)
// 2. Creates/opens the SQLite database
// 3. Runs migrations to ensure schema is current
// 4. Upserts every phase row in a single transaction
//
// The import is idempotent: rows already stored for the same instant and
// phase have their eclipse tag replaced.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/zapponejosh/hijri-calendar/internal/database"
	"github.com/zapponejosh/hijri-calendar/internal/phases"
)

func main() {
	// Parse command line flags
	csvPath := flag.String("csv", "data/moon-phases.csv", "Path to moon-phase CSV file")
	dbPath := flag.String("db", "data/hijri.db", "Path to SQLite database")
	quiet := flag.Bool("q", false, "Hide the progress bar")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Run import
	if err := run(*csvPath, *dbPath, *quiet, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete")
}

func run(csvPath, dbPath string, quiet bool, logger *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	// =========================================================================
	// Step 1: Read and parse CSV
	// =========================================================================
	logger.Info("reading CSV file", slog.String("path", csvPath))

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open CSV file: %w", err)
	}
	rows, err := phases.ReadCSV(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("parse CSV: %w", err)
	}

	_, stats := phases.Aggregate(rows)
	logger.Info("parsed CSV",
		slog.Int("rows", stats.Rows),
		slog.Int("full_moons", stats.FullMoons),
		slog.Int("eclipses", stats.Eclipses),
	)
	if stats.Dropped > 0 {
		logger.Warn("eclipse tags before the first full moon will not reach the calendar",
			slog.Int("dropped", stats.Dropped))
	}

	// =========================================================================
	// Step 2: Open database and run migrations
	// =========================================================================
	logger.Info("opening database", slog.String("path", dbPath))

	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	// =========================================================================
	// Step 3: Import rows in a transaction
	// =========================================================================
	logger.Info("starting import")

	bar := progressbar.Default(int64(len(rows)), "importing phases")
	if quiet {
		bar = progressbar.DefaultSilent(int64(len(rows)), "importing phases")
	}

	err = db.WithTx(ctx, func(tx *database.Tx) error {
		return importRows(ctx, tx, rows, bar, logger)
	})
	bar.Close()
	if err != nil {
		return fmt.Errorf("import data: %w", err)
	}

	// =========================================================================
	// Step 4: Verify import
	// =========================================================================
	counts, err := db.CountPhases(ctx)
	if err != nil {
		return fmt.Errorf("count phases: %w", err)
	}

	elapsed := time.Since(startTime)

	logger.Info("import verified",
		slog.Int("phases", counts.Total),
		slog.Int("full_moons", counts.FullMoons),
		slog.Int("eclipses", counts.Eclipses),
		slog.Duration("elapsed", elapsed),
	)

	// Print summary
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("Rows imported:       %d\n", len(rows))
	fmt.Printf("Phases stored:       %d\n", counts.Total)
	fmt.Printf("Full moons stored:   %d\n", counts.FullMoons)
	fmt.Printf("Eclipses stored:     %d\n", counts.Eclipses)
	if counts.First != nil && counts.Last != nil {
		fmt.Printf("Coverage:            %s to %s\n",
			counts.First.Format(phases.TimeLayout), counts.Last.Format(phases.TimeLayout))
	}
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}

// importRows upserts every row, advancing bar once per row.
func importRows(ctx context.Context, tx *database.Tx, rows []phases.Row, bar *progressbar.ProgressBar, logger *slog.Logger) error {
	for i, row := range rows {
		if err := tx.UpsertPhase(ctx, row); err != nil {
			return fmt.Errorf("upsert row %d (%s %s): %w",
				i+1, row.Phase, row.Time.Format(phases.TimeLayout), err)
		}
		_ = bar.Add(1)

		// Progress logging every 1000 rows
		if (i+1)%1000 == 0 {
			logger.Debug("import progress",
				slog.Int("row", i+1),
				slog.Int("total", len(rows)),
			)
		}
	}

	return nil
}
