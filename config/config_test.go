package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDSN(t *testing.T) {
	c := &Config{
		DBHost:     "db.example.org",
		DBPort:     5433,
		DBUser:     "papers",
		DBPassword: "geheim",
		DBName:     "paperflow",
		DBSSLMode:  "require",
	}
	want := "host=db.example.org user=papers password=geheim dbname=paperflow port=5433 sslmode=require"
	if got := c.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestArchiveEnabled(t *testing.T) {
	c := &Config{}
	if c.ArchiveEnabled() {
		t.Error("archive must be disabled without a bucket")
	}
	c.ArchiveS3Bucket = "paper-flow-archive"
	if !c.ArchiveEnabled() {
		t.Error("archive must be enabled once a bucket is set")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "papers")
	t.Setenv("DB_PASSWORD", "geheim")
	t.Setenv("DB_NAME", "paperflow")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DBPort != 5432 {
		t.Errorf("DBPort = %d, want 5432", c.DBPort)
	}
	if c.DBSSLMode != "require" {
		t.Errorf("DBSSLMode = %q, want require", c.DBSSLMode)
	}
	if c.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", c.HTTPPort)
	}
	if c.CronSchedule != "0 6 * * *" {
		t.Errorf("CronSchedule = %q", c.CronSchedule)
	}
	if c.OpenAlexBaseURL != "https://api.openalex.org" {
		t.Errorf("OpenAlexBaseURL = %q", c.OpenAlexBaseURL)
	}
	if c.ArchiveS3Region != "eu-central-1" {
		t.Errorf("ArchiveS3Region = %q", c.ArchiveS3Region)
	}
}

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	if cfg.API.DaysBack != 3 || cfg.API.MinAIScore != 0.7 || cfg.API.OutputDir != "temp" {
		t.Errorf("API defaults = %+v", cfg.API)
	}
	if !cfg.Database.DeploySchema {
		t.Error("DeploySchema should default to true")
	}
	if !cfg.Testing.RunTests || cfg.Testing.ConfigFile != "checks.yaml" {
		t.Errorf("Testing defaults = %+v", cfg.Testing)
	}
	if cfg.Execution.SkipQualityTests || cfg.Execution.ForceStore {
		t.Errorf("Execution defaults = %+v", cfg.Execution)
	}
}

func TestLoadPipelineConfigMissingFile(t *testing.T) {
	cfg, found, err := LoadPipelineConfig(filepath.Join(t.TempDir(), "fehlt.yaml"))
	if err != nil {
		t.Fatalf("LoadPipelineConfig: %v", err)
	}
	if found {
		t.Error("found = true for missing file")
	}
	if cfg.API.DaysBack != 3 {
		t.Errorf("DaysBack = %d, want default 3", cfg.API.DaysBack)
	}
}

func TestLoadPipelineConfigPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	content := "api:\n  days_back: 14\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, found, err := LoadPipelineConfig(path)
	if err != nil || !found {
		t.Fatalf("LoadPipelineConfig: found=%v err=%v", found, err)
	}
	if cfg.API.DaysBack != 14 {
		t.Errorf("DaysBack = %d, want 14", cfg.API.DaysBack)
	}
	// Nicht gesetzte Schlüssel behalten ihre Standardwerte
	if cfg.API.MinAIScore != 0.7 {
		t.Errorf("MinAIScore = %v, want default 0.7", cfg.API.MinAIScore)
	}
	if !cfg.Database.DeploySchema || !cfg.Testing.RunTests {
		t.Error("boolean defaults lost on partial file")
	}
}

func TestLoadPipelineConfigOverridesAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	content := `api:
  days_back: 30
  min_ai_score: 0.5
  output_dir: data
database:
  deploy_schema: false
testing:
  run_tests: false
  config_file: strenge_checks.yaml
execution:
  skip_quality_tests: true
  force_store: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadPipelineConfig(path)
	if err != nil {
		t.Fatalf("LoadPipelineConfig: %v", err)
	}
	if cfg.API.DaysBack != 30 || cfg.API.MinAIScore != 0.5 || cfg.API.OutputDir != "data" {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.Database.DeploySchema {
		t.Error("DeploySchema not overridden")
	}
	if cfg.Testing.RunTests || cfg.Testing.ConfigFile != "strenge_checks.yaml" {
		t.Errorf("Testing = %+v", cfg.Testing)
	}
	if !cfg.Execution.SkipQualityTests || !cfg.Execution.ForceStore {
		t.Errorf("Execution = %+v", cfg.Execution)
	}
}

func TestLoadPipelineConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte("api: [kaputt"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadPipelineConfig(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestDefaultCheckConfig(t *testing.T) {
	cfg := DefaultCheckConfig()
	if cfg.Thresholds.SuspiciousCitationThreshold != 100000 ||
		cfg.Thresholds.RetractedUpdateWindowDays != 30 ||
		cfg.Thresholds.MaxDuplicateDOIs != 0 {
		t.Errorf("Thresholds = %+v", cfg.Thresholds)
	}
	if !cfg.Output.SaveToFile || cfg.Output.ReportFile != "test_results.txt" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.MaxSampleRecords != 10 {
		t.Errorf("MaxSampleRecords = %d", cfg.MaxSampleRecords)
	}
	if cfg.ShowSamplesForPassingTests {
		t.Error("ShowSamplesForPassingTests should default to false")
	}
	if !cfg.ContinueOnFailure {
		t.Error("ContinueOnFailure should default to true")
	}
	if len(cfg.DisabledChecks) != 0 {
		t.Errorf("DisabledChecks = %v", cfg.DisabledChecks)
	}
}

func TestLoadCheckConfigMissingFile(t *testing.T) {
	cfg, found, err := LoadCheckConfig(filepath.Join(t.TempDir(), "fehlt.yaml"))
	if err != nil {
		t.Fatalf("LoadCheckConfig: %v", err)
	}
	if found {
		t.Error("found = true for missing file")
	}
	if cfg.Thresholds.SuspiciousCitationThreshold != 100000 {
		t.Errorf("threshold = %d, want default", cfg.Thresholds.SuspiciousCitationThreshold)
	}
}

func TestLoadCheckConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checks.yaml")
	content := `thresholds:
  suspicious_citation_threshold: 5000
  max_duplicate_dois: 2
output:
  save_to_file: false
max_sample_records: 3
show_samples_for_passing_tests: true
continue_on_failure: false
disabled_checks:
  - duplicate_dois
  - stale_retracted_papers
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, found, err := LoadCheckConfig(path)
	if err != nil || !found {
		t.Fatalf("LoadCheckConfig: found=%v err=%v", found, err)
	}
	if cfg.Thresholds.SuspiciousCitationThreshold != 5000 || cfg.Thresholds.MaxDuplicateDOIs != 2 {
		t.Errorf("Thresholds = %+v", cfg.Thresholds)
	}
	// Teilweise überschriebene Abschnitte behalten die restlichen Defaults
	if cfg.Thresholds.RetractedUpdateWindowDays != 30 {
		t.Errorf("RetractedUpdateWindowDays = %d, want default 30", cfg.Thresholds.RetractedUpdateWindowDays)
	}
	if cfg.Output.SaveToFile || cfg.Output.ReportFile != "test_results.txt" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.MaxSampleRecords != 3 || !cfg.ShowSamplesForPassingTests || cfg.ContinueOnFailure {
		t.Errorf("flags = %d / %v / %v",
			cfg.MaxSampleRecords, cfg.ShowSamplesForPassingTests, cfg.ContinueOnFailure)
	}
	if len(cfg.DisabledChecks) != 2 || cfg.DisabledChecks[0] != "duplicate_dois" {
		t.Errorf("DisabledChecks = %v", cfg.DisabledChecks)
	}
}

func TestLoadCheckConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checks.yaml")
	if err := os.WriteFile(path, []byte("thresholds: [kaputt"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadCheckConfig(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
