package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PipelineConfig steuert einen einzelnen Pipeline-Lauf. Die Werte kommen aus
// einer YAML-Datei, fehlende Schlüssel behalten ihre Standardwerte.
type PipelineConfig struct {
	API       PipelineAPIConfig       `yaml:"api"`
	Database  PipelineDatabaseConfig  `yaml:"database"`
	Testing   PipelineTestingConfig   `yaml:"testing"`
	Execution PipelineExecutionConfig `yaml:"execution"`
}

// PipelineAPIConfig beschreibt den Abruf von OpenAlex.
type PipelineAPIConfig struct {
	DaysBack   int     `yaml:"days_back"`
	MinAIScore float64 `yaml:"min_ai_score"`
	OutputDir  string  `yaml:"output_dir"`
}

// PipelineDatabaseConfig beschreibt die Schema-Stufe.
type PipelineDatabaseConfig struct {
	DeploySchema bool `yaml:"deploy_schema"`
}

// PipelineTestingConfig beschreibt die Qualitätsprüfungen nach dem Import.
type PipelineTestingConfig struct {
	RunTests   bool   `yaml:"run_tests"`
	ConfigFile string `yaml:"config_file"`
}

// PipelineExecutionConfig enthält Schalter, die sonst nur per Flag kommen.
type PipelineExecutionConfig struct {
	SkipQualityTests bool `yaml:"skip_quality_tests"`
	ForceStore       bool `yaml:"force_store"`
}

// DefaultPipelineConfig liefert die Standardwerte für einen Lauf.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		API: PipelineAPIConfig{
			DaysBack:   3,
			MinAIScore: 0.7,
			OutputDir:  "temp",
		},
		Database: PipelineDatabaseConfig{DeploySchema: true},
		Testing: PipelineTestingConfig{
			RunTests:   true,
			ConfigFile: "checks.yaml",
		},
	}
}

// LoadPipelineConfig lädt die Lauf-Konfiguration aus path. Existiert die
// Datei nicht, kommen die Standardwerte zurück und found ist false; eine
// kaputte Datei ist dagegen ein Fehler.
func LoadPipelineConfig(path string) (cfg *PipelineConfig, found bool, err error) {
	cfg = DefaultPipelineConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return nil, false, fmt.Errorf("pipeline-konfiguration %s nicht lesbar: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, true, fmt.Errorf("pipeline-konfiguration %s ungültig: %w", path, err)
	}
	return cfg, true, nil
}
