package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"paper-flow/config"
)

func TestStageNames(t *testing.T) {
	got := []string{StageFetch, StageSchemaEnsure, StageLoad, StageValidate, StageDone}
	want := []string{"FETCH", "SCHEMA_ENSURE", "LOAD", "VALIDATE", "DONE"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stage[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunStatsAddError(t *testing.T) {
	stats := &RunStats{}
	stats.AddError(StageFetch, "verbindung verweigert")
	stats.AddError(StageLoad, "batch kaputt")

	if len(stats.Errors) != 2 {
		t.Fatalf("len = %d, want 2", len(stats.Errors))
	}
	if stats.Errors[0] != "[FETCH] verbindung verweigert" {
		t.Errorf("Errors[0] = %q", stats.Errors[0])
	}
	if stats.Errors[1] != "[LOAD] batch kaputt" {
		t.Errorf("Errors[1] = %q", stats.Errors[1])
	}
}

func TestRunStatsSummary(t *testing.T) {
	stats := &RunStats{
		StartTime:      time.Now().Add(-2 * time.Second),
		PapersFetched:  12,
		SchemaDeployed: true,
		TestsPassed:    17,
		TestsFailed:    1,
		Import:         ImportStats{PapersProcessed: 11},
	}
	stats.AddError(StageValidate, "1 qualitätsprüfungen fehlgeschlagen")

	got := stats.Summary()
	for _, want := range []string{
		"PIPELINE EXECUTION SUMMARY",
		strings.Repeat("=", 70),
		"Papers Fetched: 12",
		"Papers Processed: 11",
		"Schema Deployed: Yes",
		"Tests Passed: 17",
		"Tests Failed: 1",
		"Errors: 1",
		"  - [VALIDATE] 1 qualitätsprüfungen fehlgeschlagen",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestRunStatsSummaryWithoutErrors(t *testing.T) {
	stats := &RunStats{StartTime: time.Now()}
	got := stats.Summary()
	if !strings.Contains(got, "Schema Deployed: No") {
		t.Error("missing schema line for skipped deployment")
	}
	if strings.Contains(got, "Errors:\n") {
		t.Error("error list must only appear when errors were recorded")
	}
}

func TestCleanupSnapshotRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	p := &Pipeline{
		RunCfg: &config.PipelineConfig{API: config.PipelineAPIConfig{OutputDir: "temp"}},
		Logger: zap.NewNop(),
	}

	path := filepath.Join(dir, "ai_papers_test.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	p.cleanupSnapshot(RunOptions{}, path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("temp snapshot should have been removed")
	}

	// Eingabedateien bleiben liegen
	input := filepath.Join(dir, "input.json")
	if err := os.WriteFile(input, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	p.cleanupSnapshot(RunOptions{InputFile: input}, input)
	if _, err := os.Stat(input); err != nil {
		t.Errorf("input file was removed: %v", err)
	}

	// Snapshots außerhalb von temp bleiben ebenfalls liegen
	p.RunCfg.API.OutputDir = "data"
	kept := filepath.Join(dir, "kept.json")
	if err := os.WriteFile(kept, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	p.cleanupSnapshot(RunOptions{}, kept)
	if _, err := os.Stat(kept); err != nil {
		t.Errorf("snapshot outside temp was removed: %v", err)
	}
}
