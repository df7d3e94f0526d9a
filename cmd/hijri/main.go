// Command hijri derives a Hijri calendar from observed full moons and prints
// it.
//
// Usage:
//
//	go run ./cmd/hijri -csv data/moon-phases.csv -start 2024 -end 2026
//	go run ./cmd/hijri -db data/hijri.db -start 622 -end 700 -mode fixed -format json
//	go run ./cmd/hijri -db data/hijri.db -start 2024 -end 2025 -format ics -o hijri.ics
//	go run ./cmd/hijri -db data/hijri.db -start 2024 -end 2025 -lang fr -save
//
// Full moons come from a CSV catalogue (-csv) or from a database filled by
// cmd/import (-db). With -save the run is stored in the database and can be
// fetched from the API under /api/v1/derivations/{id}.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Riyadh on hosts without a zone database

	"github.com/zapponejosh/hijri-calendar/internal/database"
	"github.com/zapponejosh/hijri-calendar/internal/hijri"
	"github.com/zapponejosh/hijri-calendar/internal/logger"
	"github.com/zapponejosh/hijri-calendar/internal/phases"
	"github.com/zapponejosh/hijri-calendar/internal/render"
)

type options struct {
	csvPath   string
	dbPath    string
	start     int
	end       int
	mode      string
	threshold float64
	split     int
	zone      string
	format    string
	lang      string
	output    string
	save      bool
}

func main() {
	var opts options

	// Parse command line flags
	flag.StringVar(&opts.csvPath, "csv", "", "Path to moon-phase CSV file")
	flag.StringVar(&opts.dbPath, "db", "", "Path to SQLite database filled by cmd/import")
	flag.IntVar(&opts.start, "start", time.Now().Year(), "First Gregorian year")
	flag.IntVar(&opts.end, "end", time.Now().Year()+1, "Gregorian year at which to stop (exclusive)")
	flag.StringVar(&opts.mode, "mode", string(hijri.ModeObserved), "Calendar mode: observed or fixed")
	flag.Float64Var(&opts.threshold, "threshold", hijri.DefaultLeapDayThreshold, "Largest Dhul Hijjah drift in days that earns a leap day")
	flag.IntVar(&opts.split, "split", hijri.DefaultIntercalationSplit, "Last lookahead position placing the intercalary month at year start")
	flag.StringVar(&opts.zone, "tz", hijri.MeccaZone, "IANA zone used for dates and year boundaries")
	flag.StringVar(&opts.format, "format", render.FormatText, "Output format: text, json or ics")
	flag.StringVar(&opts.lang, "lang", "en", "Text output language: "+strings.Join(render.Languages(), ", "))
	flag.StringVar(&opts.output, "o", "", "Write output to file instead of stdout")
	flag.BoolVar(&opts.save, "save", false, "Store the derivation in the database (requires -db)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Logs go to stderr so stdout carries only the calendar
	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.New(os.Stderr, level, "text")

	if err := run(opts, log); err != nil {
		log.Error("derivation failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(opts options, log *slog.Logger) error {
	ctx := context.Background()

	if (opts.csvPath == "") == (opts.dbPath == "") {
		return errors.New("exactly one of -csv or -db is required")
	}
	if opts.save && opts.dbPath == "" {
		return errors.New("-save requires -db")
	}

	mode, err := hijri.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(opts.zone)
	if err != nil {
		return fmt.Errorf("load time zone %q: %w", opts.zone, err)
	}

	derive := hijri.DefaultOptions()
	derive.Mode = mode
	derive.LeapDayThreshold = opts.threshold
	derive.IntercalationSplit = opts.split
	derive.Location = loc
	derive.Logger = log

	// =========================================================================
	// Step 1: Load full moons
	// =========================================================================
	var (
		series hijri.Series
		db     *database.DB
	)

	if opts.csvPath != "" {
		var stats phases.Stats
		series, stats, err = phases.LoadFile(opts.csvPath)
		if err != nil {
			return err
		}
		log.Info("loaded catalogue",
			slog.String("path", opts.csvPath),
			slog.Int("full_moons", stats.FullMoons),
			slog.Int("eclipses", stats.Eclipses),
		)
	} else {
		db, err = database.Open(database.DefaultConfig(opts.dbPath), log)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		if _, err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		if series, err = db.LoadFullMoons(ctx); err != nil {
			return err
		}
	}

	// =========================================================================
	// Step 2: Derive
	// =========================================================================
	cal, err := hijri.Derive(series, opts.start, opts.end, derive)
	if err != nil {
		return err
	}
	log.Info("calendar derived",
		slog.Int("months", len(cal.Months)),
		slog.Int("years", len(cal.Years)),
	)

	// =========================================================================
	// Step 3: Render
	// =========================================================================
	var w io.Writer = os.Stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := render.Write(w, cal, opts.format, opts.lang); err != nil {
		return err
	}

	// =========================================================================
	// Step 4: Save
	// =========================================================================
	if opts.save {
		id, err := db.SaveDerivation(ctx, cal, derive)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved derivation %d\n", id)
	}

	return nil
}
