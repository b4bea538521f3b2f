package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CheckThresholds enthält die Schwellwerte, die einzelne Qualitätsprüfungen
// als Query-Parameter erhalten.
type CheckThresholds struct {
	SuspiciousCitationThreshold int `yaml:"suspicious_citation_threshold"`
	RetractedUpdateWindowDays   int `yaml:"retracted_update_window_days"`
	MaxDuplicateDOIs            int `yaml:"max_duplicate_dois"`
}

// CheckOutput steuert, ob und wohin der Textreport geschrieben wird.
type CheckOutput struct {
	SaveToFile bool   `yaml:"save_to_file"`
	ReportFile string `yaml:"report_file"`
}

// CheckConfig konfiguriert die Qualitätsprüfungen. Die Werte kommen aus
// einer YAML-Datei, fehlende Schlüssel behalten ihre Standardwerte.
type CheckConfig struct {
	Thresholds                 CheckThresholds `yaml:"thresholds"`
	Output                     CheckOutput     `yaml:"output"`
	MaxSampleRecords           int             `yaml:"max_sample_records"`
	ShowSamplesForPassingTests bool            `yaml:"show_samples_for_passing_tests"`
	ContinueOnFailure          bool            `yaml:"continue_on_failure"`
	DisabledChecks             []string        `yaml:"disabled_checks"`
}

// DefaultCheckConfig liefert die Standardwerte der Qualitätsprüfungen.
func DefaultCheckConfig() *CheckConfig {
	return &CheckConfig{
		Thresholds: CheckThresholds{
			SuspiciousCitationThreshold: 100000,
			RetractedUpdateWindowDays:   30,
			MaxDuplicateDOIs:            0,
		},
		Output: CheckOutput{
			SaveToFile: true,
			ReportFile: "test_results.txt",
		},
		MaxSampleRecords:  10,
		ContinueOnFailure: true,
	}
}

// LoadCheckConfig lädt die Prüf-Konfiguration aus path. Existiert die Datei
// nicht, kommen die Standardwerte zurück und found ist false; eine kaputte
// Datei ist dagegen ein Fehler.
func LoadCheckConfig(path string) (cfg *CheckConfig, found bool, err error) {
	cfg = DefaultCheckConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return nil, false, fmt.Errorf("prüf-konfiguration %s nicht lesbar: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, true, fmt.Errorf("prüf-konfiguration %s ungültig: %w", path, err)
	}
	return cfg, true, nil
}
