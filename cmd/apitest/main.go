// Command apitest sweeps a running Hijri calendar API year by year and
// reports which Gregorian years derive cleanly.
//
// Usage:
//
//	go run ./cmd/apitest -url http://localhost:8080 -start 2000 -years 30 -mode observed
//
// For every year it checks:
// 1. /api/v1/calendar?start=Y&end=Y+1 succeeds
// 2. every month is 29 or 30 days and starts where the previous one ended
// 3. /api/v1/years/{hijri year of Y} returns months of that year only
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/zapponejosh/hijri-calendar/internal/hijri"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type YearResponse struct {
	Year   hijri.YearSummary `json:"year"`
	Months []hijri.Month     `json:"months"`
}

// TestResult holds the result for a single Gregorian year
type TestResult struct {
	Year      int    `json:"year"`
	HijriYear string `json:"hijri_year"`
	Success   bool   `json:"success"`
	Months    int    `json:"months"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL string
	mode    string
	client  *http.Client
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	startYear := flag.Int("start", time.Now().Year()-10, "First Gregorian year")
	years := flag.Int("years", 20, "Number of years to test")
	mode := flag.String("mode", string(hijri.ModeObserved), "Calendar mode: observed or fixed")
	verbose := flag.Bool("v", false, "Verbose output (show each year)")
	outputFile := flag.String("o", "", "Output results to JSON file")
	flag.Parse()

	tr := &TestRunner{
		baseURL: strings.TrimSuffix(*baseURL, "/"),
		mode:    *mode,
		client:  &http.Client{Timeout: 30 * time.Second},
	}

	fmt.Println("================================================================")
	fmt.Println("Hijri Calendar API - Year Coverage Test")
	fmt.Println("================================================================")
	fmt.Printf("Base URL:    %s\n", tr.baseURL)
	fmt.Printf("Years:       %d to %d\n", *startYear, *startYear+*years-1)
	fmt.Printf("Mode:        %s\n", tr.mode)
	fmt.Println()

	// Check if server is reachable
	resp, err := tr.client.Get(tr.baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", tr.baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	bar := progressbar.Default(int64(*years), "testing years")
	var results []TestResult
	for y := *startYear; y < *startYear+*years; y++ {
		results = append(results, tr.testYear(y))
		_ = bar.Add(1)
	}
	bar.Close()
	fmt.Println()

	failed := printSummary(results, *verbose)

	if *outputFile != "" {
		data, _ := json.MarshalIndent(results, "", "  ")
		if err := os.WriteFile(*outputFile, data, 0644); err != nil {
			fmt.Printf("Error writing results: %v\n", err)
		} else {
			fmt.Printf("\nResults written to %s\n", *outputFile)
		}
	}

	// Exit with error code if there were failures
	if failed > 0 {
		os.Exit(1)
	}
}

func (tr *TestRunner) testYear(year int) TestResult {
	hy := hijri.YearForGregorian(year)
	result := TestResult{Year: year, HijriYear: hy.String()}

	var cal hijri.Calendar
	path := fmt.Sprintf("/api/v1/calendar?start=%d&end=%d&mode=%s", year, year+1, tr.mode)
	if code, err := tr.getData(path, &cal); err != nil {
		result.Code, result.Error = code, err.Error()
		return result
	}
	result.Months = len(cal.Months)

	for i, m := range cal.Months {
		if m.LengthDays != 29 && m.LengthDays != 30 {
			result.Error = fmt.Sprintf("%s %s has %d days", m.Name, m.YearNotation, m.LengthDays)
			return result
		}
		if i > 0 && !m.Start.Equal(cal.Months[i-1].End) {
			result.Error = fmt.Sprintf("%s %s does not follow the previous month", m.Name, m.YearNotation)
			return result
		}
	}

	var yr YearResponse
	path = fmt.Sprintf("/api/v1/years/%d?mode=%s", int(hy), tr.mode)
	if code, err := tr.getData(path, &yr); err != nil {
		result.Code, result.Error = code, "year lookup: "+err.Error()
		return result
	}
	for _, m := range yr.Months {
		if m.Year != hy {
			result.Error = fmt.Sprintf("year lookup returned %s for %s", m.YearNotation, hy)
			return result
		}
	}

	result.Success = true
	return result
}

// getData fetches path and decodes the data payload into v. The returned
// code is the API error code, if any.
func (tr *TestRunner) getData(path string, v any) (string, error) {
	resp, err := tr.client.Get(tr.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		if apiResp.Error != nil {
			return apiResp.Error.Code, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error.Message)
		}
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if err := json.Unmarshal(apiResp.Data, v); err != nil {
		return "", fmt.Errorf("parse data: %w", err)
	}
	return "", nil
}

// printSummary prints the results and returns the number of failed years.
func printSummary(results []TestResult, verbose bool) int {
	byCode := make(map[string][]int)
	failed := 0

	for _, r := range results {
		if verbose {
			status := "✓"
			if !r.Success {
				status = "✗"
			}
			fmt.Printf("  %s %d (%s): %d months\n", status, r.Year, r.HijriYear, r.Months)
		}
		if r.Success {
			continue
		}
		failed++
		code := r.Code
		if code == "" {
			code = "OTHER"
		}
		byCode[code] = append(byCode[code], r.Year)
	}

	fmt.Println("================================================================")
	fmt.Println("SUMMARY")
	fmt.Println("================================================================")
	fmt.Printf("Years tested:  %d\n", len(results))
	fmt.Printf("Passed:        %d\n", len(results)-failed)
	fmt.Printf("Failed:        %d\n", failed)

	if failed == 0 {
		return 0
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fmt.Println()
	fmt.Println("Failures by code:")
	for _, code := range codes {
		fmt.Printf("  %-18s %v\n", code, byCode[code])
	}

	fmt.Println()
	fmt.Println("Failed years:")
	for _, r := range results {
		if !r.Success {
			fmt.Printf("  %d (%s): %s\n", r.Year, r.HijriYear, r.Error)
		}
	}

	return failed
}
