package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zapponejosh/hijri-calendar/internal/phases"
)

// This tool writes a moon-phase catalogue of mean lunations in the CSV
// layout read by cmd/import and cmd/hijri. Use it to try the pipeline
// without a published catalogue.

func main() {
	start := flag.Int("start", time.Now().Year(), "First Gregorian year")
	years := flag.Int("years", 2, "Number of years to generate")
	output := flag.String("o", "", "Write CSV to file instead of stdout")
	flag.Parse()

	if *years < 1 {
		fmt.Fprintln(os.Stderr, "phasegen: -years must be at least 1")
		os.Exit(2)
	}

	from := time.Date(*start, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(*start+*years, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows := phases.Mean(from, to)

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "phasegen: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := phases.WriteCSV(w, rows); err != nil {
		fmt.Fprintf(os.Stderr, "phasegen: %v\n", err)
		os.Exit(1)
	}

	_, stats := phases.Aggregate(rows)
	fmt.Fprintf(os.Stderr, "=== Mean phases %s to %s ===\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Fprintf(os.Stderr, "  Rows:        %d\n", stats.Rows)
	fmt.Fprintf(os.Stderr, "  Full moons:  %d\n", stats.FullMoons)
}
