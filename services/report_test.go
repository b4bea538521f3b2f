package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleReport() *ValidationReport {
	minYear, maxYear := 2019, 2024
	return &ValidationReport{
		StartedAt: time.Now(),
		Duration:  1500 * time.Millisecond,
		Results: []CheckResult{
			{
				Name:        "missing_titles",
				Category:    CategoryCompleteness,
				Description: "Papers must have a non-empty title",
				Passed:      true,
			},
			{
				Name:         "duplicate_dois",
				Category:     CategoryQuality,
				Description:  "DOIs must be unique across papers",
				Passed:       false,
				FailureCount: 7,
				SampleRecords: []map[string]any{
					{"doi": "10.1/x", "occurrences": 2, "note": nil},
					{"doi": "10.1/y", "occurrences": 3},
					{"doi": "10.1/a", "occurrences": 2},
					{"doi": "10.1/b", "occurrences": 2},
					{"doi": "10.1/c", "occurrences": 2},
					{"doi": "10.1/d", "occurrences": 2},
				},
			},
		},
		Summary: TableSummary{
			TotalPapers:     1234,
			AvgCitedByCount: 17.25,
			MaxCitedByCount: 900,
			MinYear:         &minYear,
			MaxYear:         &maxYear,
		},
	}
}

func TestRenderReport(t *testing.T) {
	got := RenderReport(sampleReport())

	for _, want := range []string{
		"DATA QUALITY TEST REPORT - PAPERS TABLE",
		"Duration: 1.50 seconds",
		"Total Tests: 2",
		"Passed: 1",
		"Failed: 1",
		"Total Data Quality Issues: 7",
		"DATA COMPLETENESS (1/1 passed, 0 issues)",
		"DATA QUALITY (0/1 passed, 7 issues)",
		"[PASS] missing_titles",
		"[FAIL] duplicate_dois",
		"  Issues Found: 7",
		"  Sample Failing Records:",
		"Overall Status: FAIL",
		"Tests Passed: 1/2 (50.0%)",
		"RECOMMENDATIONS:",
		"- Review failing tests and investigate root causes",
		"TABLE STATISTICS",
		"Total papers: 1234",
		"Average citations: 17.2",
		"Max citations: 900",
		"Publication years: 2019 - 2024",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Höchstens fünf Beispielzeilen, auch wenn mehr vorliegen
	if strings.Contains(got, "    6. ") {
		t.Error("report rendered more than five sample records")
	}
	if !strings.Contains(got, "    5. ") {
		t.Error("report should render the fifth sample record")
	}
}

func TestRenderReportAllPassed(t *testing.T) {
	report := &ValidationReport{
		Results: []CheckResult{
			{Name: "missing_titles", Category: CategoryCompleteness, Passed: true},
		},
	}

	got := RenderReport(report)
	if !strings.Contains(got, "Overall Status: PASS") {
		t.Error("missing overall pass status")
	}
	if !strings.Contains(got, "Tests Passed: 1/1 (100.0%)") {
		t.Error("missing pass percentage")
	}
	if strings.Contains(got, "RECOMMENDATIONS:") {
		t.Error("recommendations must only appear on failure")
	}
	if !strings.Contains(got, "Publication years: n/a") {
		t.Error("missing year placeholder for empty table")
	}
}

func TestRenderRecord(t *testing.T) {
	got := renderRecord(map[string]any{
		"paper_id": "W1",
		"title":    nil,
		"doi":      "10.1/x",
	})
	// Alphabetische Spaltenreihenfolge, NULL-Spalten ausgelassen
	if got != "doi: 10.1/x, paper_id: W1" {
		t.Errorf("renderRecord = %q", got)
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := WriteReport("inhalt", path); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "inhalt" {
		t.Errorf("content = %q", string(data))
	}

	if err := WriteReport("x", filepath.Join(t.TempDir(), "fehlt", "report.txt")); err == nil {
		t.Error("expected error for missing directory")
	}
}
