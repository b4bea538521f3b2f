package services

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// RenderReport baut den vollständigen Qualitätsbericht als Text.
func RenderReport(report *ValidationReport) string {
	passed, failed := report.Counts()
	total := len(report.Results)
	totalIssues := report.TotalIssues()

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line(strings.Repeat("=", 80))
	line("DATA QUALITY TEST REPORT - PAPERS TABLE")
	line(strings.Repeat("=", 80))
	line("Execution Time: %s", time.Now().Format("2006-01-02 15:04:05"))
	line("Duration: %.2f seconds", report.Duration.Seconds())
	line("Total Tests: %d", total)
	line("Passed: %d", passed)
	line("Failed: %d", failed)
	line("Total Data Quality Issues: %d", totalIssues)
	line("")

	// Kategorien in Reihenfolge ihres ersten Auftretens
	var categoryOrder []string
	byCategory := make(map[string][]CheckResult)
	for _, res := range report.Results {
		if _, seen := byCategory[res.Category]; !seen {
			categoryOrder = append(categoryOrder, res.Category)
		}
		byCategory[res.Category] = append(byCategory[res.Category], res)
	}

	for _, category := range categoryOrder {
		results := byCategory[category]
		categoryPassed := 0
		categoryIssues := 0
		for _, res := range results {
			if res.Passed {
				categoryPassed++
			}
			categoryIssues += res.FailureCount
		}

		line("%s (%d/%d passed, %d issues)", strings.ToUpper(category), categoryPassed, len(results), categoryIssues)
		line(strings.Repeat("-", 60))

		for _, res := range results {
			status := "PASS"
			if !res.Passed {
				status = "FAIL"
			}
			line("[%s] %s", status, res.Name)
			line("  Description: %s", res.Description)
			line("  Issues Found: %d", res.FailureCount)
			line("  Execution Time: %.3fs", res.ExecutionTime.Seconds())

			if res.ErrorMessage != "" {
				line("  Error: %s", res.ErrorMessage)
			}

			if !res.Passed && len(res.SampleRecords) > 0 {
				line("  Sample Failing Records:")
				limit := min(len(res.SampleRecords), 5)
				for i, record := range res.SampleRecords[:limit] {
					line("    %d. %s", i+1, renderRecord(record))
				}
			}

			line("")
		}
	}

	line(strings.Repeat("=", 80))
	line("SUMMARY")
	line(strings.Repeat("=", 80))
	overall := "PASS"
	if failed > 0 {
		overall = "FAIL"
	}
	line("Overall Status: %s", overall)
	if total > 0 {
		line("Tests Passed: %d/%d (%.1f%%)", passed, total, float64(passed)/float64(total)*100)
	} else {
		line("Tests Passed: 0/0 (0%%)")
	}
	line("Data Quality Issues: %d", totalIssues)
	line("")

	if failed > 0 {
		line("RECOMMENDATIONS:")
		line("- Review failing tests and investigate root causes")
		line("- Check data import processes for validation gaps")
		line("- Consider adding constraints or triggers to prevent issues")
		line("- Update data cleaning procedures as needed")
		line("")
	}

	line("TABLE STATISTICS")
	line("Total papers: %d", report.Summary.TotalPapers)
	line("Average citations: %.1f", report.Summary.AvgCitedByCount)
	line("Max citations: %d", report.Summary.MaxCitedByCount)
	if report.Summary.MinYear != nil && report.Summary.MaxYear != nil {
		line("Publication years: %d - %d", *report.Summary.MinYear, *report.Summary.MaxYear)
	} else {
		line("Publication years: n/a")
	}

	return b.String()
}

// renderRecord rendert eine Beispielzeile als "spalte: wert"-Liste mit
// stabiler Spaltenreihenfolge; NULL-Werte werden ausgelassen.
func renderRecord(record map[string]any) string {
	keys := make([]string, 0, len(record))
	for k, v := range record {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, record[k]))
	}
	return strings.Join(parts, ", ")
}

// WriteReport schreibt den Bericht in die konfigurierte Datei.
func WriteReport(content, path string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("fehler beim Schreiben des Berichts nach %s: %w", path, err)
	}
	return nil
}
