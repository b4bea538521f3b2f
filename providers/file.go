package providers

import (
	"context"

	"paper-flow/openalex"

	"go.uber.org/zap"
)

// FileProvider liest Werke aus einem vorhandenen Snapshot statt von der API.
// Gedacht für Wiederholungsläufe und Tests.
type FileProvider struct {
	Path   string
	Logger *zap.Logger
}

// Name gibt den Namen der Quelle zurück.
func (p *FileProvider) Name() string {
	return "file"
}

// FetchWorks lädt die JSON-Datei. Gefiltert wird nicht mehr, die Datei gilt
// als fertiger Snapshot.
func (p *FileProvider) FetchWorks(ctx context.Context) ([]openalex.Work, error) {
	p.Logger.Info("Lese Werke aus Datei", zap.String("path", p.Path))
	return openalex.LoadWorksFile(p.Path)
}
