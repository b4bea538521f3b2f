package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"paper-flow/config"
	"paper-flow/models"
	"paper-flow/openalex"
	"paper-flow/providers"
	"paper-flow/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stufen eines Pipeline-Laufs, in Ausführungsreihenfolge.
const (
	StageFetch        = "FETCH"
	StageSchemaEnsure = "SCHEMA_ENSURE"
	StageLoad         = "LOAD"
	StageValidate     = "VALIDATE"
	StageDone         = "DONE"
)

// RunOptions sind die Schalter eines einzelnen Laufs.
type RunOptions struct {
	// InputFile ersetzt den API-Abruf durch eine Snapshot-Datei.
	InputFile        string
	DryRun           bool
	SkipQualityTests bool
	ForceStore       bool
}

// RunStats sammelt die Kennzahlen eines kompletten Laufs.
type RunStats struct {
	StartTime      time.Time
	PapersFetched  int
	SchemaDeployed bool
	TestsPassed    int
	TestsFailed    int
	Errors         []string

	Import ImportStats
}

// AddError merkt sich einen Stufenfehler für die Zusammenfassung.
func (s *RunStats) AddError(stage, msg string) {
	s.Errors = append(s.Errors, fmt.Sprintf("[%s] %s", stage, msg))
}

// Summary rendert den Abschlussblock eines Laufs.
func (s *RunStats) Summary() string {
	duration := time.Since(s.StartTime).Seconds()

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 70) + "\n")
	b.WriteString("PIPELINE EXECUTION SUMMARY\n")
	b.WriteString(strings.Repeat("=", 70) + "\n")
	fmt.Fprintf(&b, "Duration: %.2f seconds\n", duration)
	fmt.Fprintf(&b, "Papers Fetched: %d\n", s.PapersFetched)
	fmt.Fprintf(&b, "Papers Processed: %d\n", s.Import.PapersProcessed)
	if s.SchemaDeployed {
		b.WriteString("Schema Deployed: Yes\n")
	} else {
		b.WriteString("Schema Deployed: No\n")
	}
	fmt.Fprintf(&b, "Tests Passed: %d\n", s.TestsPassed)
	fmt.Fprintf(&b, "Tests Failed: %d\n", s.TestsFailed)
	fmt.Fprintf(&b, "Errors: %d\n", len(s.Errors))
	if len(s.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range s.Errors {
			b.WriteString("  - " + e + "\n")
		}
	}
	b.WriteString(strings.Repeat("=", 70))
	return b.String()
}

// RunResult fasst das Ergebnis eines Laufs zusammen.
type RunResult struct {
	Run    *models.ImportRun
	Stats  *RunStats
	Report *ValidationReport

	// Forced ist gesetzt, wenn Qualitätsprüfungen fehlschlugen, der Lauf
	// aber per force_store behalten wurde.
	Forced bool
}

// Pipeline orchestriert einen kompletten Import-Lauf über alle Stufen:
// Abruf, Schema, Laden, Qualitätsprüfungen.
type Pipeline struct {
	RunCfg   *config.PipelineConfig
	CheckCfg *config.CheckConfig
	DB       *gorm.DB
	Client   *openalex.Client
	Archiver *storage.Archiver // nil, wenn kein Archiv konfiguriert ist
	Logger   *zap.Logger
}

// Run führt einen kompletten Lauf aus. Ein fehlgeschlagener Lauf kommt als
// Fehler zurück; ein per force_store erzwungener Lauf gilt als Erfolg.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	stats := &RunStats{StartTime: time.Now()}
	skipTests := opts.SkipQualityTests || p.RunCfg.Execution.SkipQualityTests
	forceStore := opts.ForceStore || p.RunCfg.Execution.ForceStore

	p.banner(70, "RESEARCH PAPERS DATA PIPELINE STARTED")
	p.Logger.Info("Lauf konfiguriert",
		zap.Bool("dry_run", opts.DryRun),
		zap.Bool("skip_quality_tests", skipTests),
		zap.Bool("force_store", forceStore),
		zap.String("input_file", opts.InputFile))

	run := &models.ImportRun{
		StartedAt: stats.StartTime,
		Stage:     StageFetch,
		Status:    models.RunStatusRunning,
	}
	if !opts.DryRun {
		if err := p.DB.WithContext(ctx).Create(run).Error; err != nil {
			return nil, fmt.Errorf("laufprotokoll konnte nicht angelegt werden: %w", err)
		}
	}
	result := &RunResult{Run: run, Stats: stats}

	works, snapshotPath, err := p.fetchStage(ctx, opts, stats)
	if err != nil {
		return result, p.failStage(ctx, opts, run, stats, StageFetch, err, snapshotPath, "")
	}

	p.advance(ctx, opts, run, StageSchemaEnsure)
	if err := p.schemaStage(ctx, opts.DryRun, stats); err != nil {
		return result, p.failStage(ctx, opts, run, stats, StageSchemaEnsure, err, snapshotPath, "")
	}

	p.advance(ctx, opts, run, StageLoad)
	if err := p.loadStage(ctx, works, opts.DryRun, stats); err != nil {
		return result, p.failStage(ctx, opts, run, stats, StageLoad, err, snapshotPath, "")
	}

	p.advance(ctx, opts, run, StageValidate)
	var reportPath string
	if skipTests {
		p.stageBanner("STAGE 4: QUALITY TESTS SKIPPED")
		p.Logger.Info("Qualitätsprüfungen auf Wunsch übersprungen")
	} else {
		var report *ValidationReport
		report, reportPath, err = p.validateStage(ctx, opts.DryRun, stats)
		if err != nil {
			return result, p.failStage(ctx, opts, run, stats, StageValidate, err, snapshotPath, reportPath)
		}
		result.Report = report

		if report != nil && !report.AllPassed() {
			if !forceStore {
				p.Logger.Info("Use -force-store to store data despite test failures")
				err := fmt.Errorf("%d qualitätsprüfungen fehlgeschlagen", stats.TestsFailed)
				return result, p.failStage(ctx, opts, run, stats, StageValidate, err, snapshotPath, reportPath)
			}
			p.Logger.Warn("quality tests failed but force_store is enabled - continuing")
			p.Logger.Warn("Data has been stored despite quality test failures")
			result.Forced = true
		}
	}

	status := models.RunStatusSucceeded
	if result.Forced {
		status = models.RunStatusForced
	}
	p.banner(70, "PIPELINE COMPLETED SUCCESSFULLY")
	p.Logger.Info(stats.Summary())
	p.finalize(ctx, opts, run, stats, StageDone, status, nil, snapshotPath, reportPath)
	return result, nil
}

// fetchStage holt die Werke (live oder aus Datei) und schreibt im
// Live-Betrieb den Snapshot.
func (p *Pipeline) fetchStage(ctx context.Context, opts RunOptions, stats *RunStats) ([]openalex.Work, string, error) {
	p.stageBanner("STAGE 1: FETCHING AI PAPERS FROM API")

	var source providers.Provider
	if opts.InputFile != "" {
		source = &providers.FileProvider{Path: opts.InputFile, Logger: p.Logger}
	} else {
		p.Logger.Info("Abruf konfiguriert",
			zap.Int("days_back", p.RunCfg.API.DaysBack),
			zap.Float64("min_ai_score", p.RunCfg.API.MinAIScore),
			zap.String("output_dir", p.RunCfg.API.OutputDir))
		source = &providers.OpenAlexProvider{
			Client:   p.Client,
			DaysBack: p.RunCfg.API.DaysBack,
			MinScore: p.RunCfg.API.MinAIScore,
			Logger:   p.Logger,
		}
	}

	works, err := source.FetchWorks(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("abruf über %s fehlgeschlagen: %w", source.Name(), err)
	}

	stats.PapersFetched = len(works)
	if len(works) == 0 {
		// Kein Fehler: ein leeres Zeitfenster ist ein gültiger Lauf.
		p.Logger.Warn("Keine KI-Werke im Zeitfenster gefunden")
	}
	p.Logger.Info("Abruf abgeschlossen",
		zap.String("source", source.Name()),
		zap.Int("papers", len(works)))

	if opts.InputFile != "" {
		return works, opts.InputFile, nil
	}

	snapshotPath, err := openalex.SaveSnapshot(works, p.RunCfg.API.OutputDir)
	if err != nil {
		return nil, "", fmt.Errorf("snapshot konnte nicht gespeichert werden: %w", err)
	}
	p.Logger.Info("Snapshot gespeichert", zap.String("path", snapshotPath))
	return works, snapshotPath, nil
}

// schemaStage stellt das Datenbankschema bereit.
func (p *Pipeline) schemaStage(ctx context.Context, dryRun bool, stats *RunStats) error {
	p.stageBanner("STAGE 2: ENSURING DATABASE SCHEMA")

	if !p.RunCfg.Database.DeploySchema {
		p.Logger.Info("Schema-Deployment in der Konfiguration deaktiviert")
		return nil
	}
	if dryRun {
		p.Logger.Info("Dry-Run, Schema bleibt unverändert")
		return nil
	}

	if err := storage.EnsureSchema(p.DB.WithContext(ctx), p.Logger); err != nil {
		return err
	}
	stats.SchemaDeployed = true
	return nil
}

// loadStage normalisiert die Werke und importiert sie batchweise.
func (p *Pipeline) loadStage(ctx context.Context, works []openalex.Work, dryRun bool, stats *RunStats) error {
	p.stageBanner("STAGE 3: LOADING PAPERS TO DATABASE")

	normalizer := NewWorkNormalizer(p.Logger)
	papers := make([]*NormalizedPaper, 0, len(works))
	for idx := range works {
		normalized, err := normalizer.Normalize(&works[idx])
		if err != nil {
			p.Logger.Warn("Werk übersprungen",
				zap.Int("index", idx),
				zap.Error(err))
			stats.Import.PapersFailed++
			continue
		}
		papers = append(papers, normalized)
	}

	if dryRun {
		p.Logger.Info("Dry-Run, es wird nichts geschrieben",
			zap.Int("valid_papers", len(papers)))
		return nil
	}
	if len(papers) == 0 {
		p.Logger.Info("Keine Papers zu laden")
		return nil
	}

	p.Logger.Info("Verarbeite Papers", zap.Int("papers", len(papers)))
	importer := NewImporter(p.DB, p.Logger, 0)
	importStats, err := importer.Run(ctx, papers)
	if importStats != nil {
		stats.Import.add(*importStats)
	}
	if err != nil {
		return err
	}

	p.Logger.Info(importStats.Summary())
	if importStats.PapersFailed > 0 {
		p.Logger.Warn("Einige Papers konnten nicht verarbeitet werden",
			zap.Int("failed", importStats.PapersFailed))
	}
	return nil
}

// validateStage führt die Qualitätsprüfungen aus und rendert den Report.
func (p *Pipeline) validateStage(ctx context.Context, dryRun bool, stats *RunStats) (*ValidationReport, string, error) {
	p.stageBanner("STAGE 4: RUNNING QUALITY TESTS")

	if !p.RunCfg.Testing.RunTests {
		p.Logger.Info("Qualitätsprüfungen in der Konfiguration deaktiviert")
		return nil, "", nil
	}
	if dryRun {
		p.Logger.Info("Dry-Run, Prüfungen werden nicht ausgeführt",
			zap.String("config_file", p.RunCfg.Testing.ConfigFile))
		return nil, "", nil
	}

	validator := NewValidator(p.DB, p.Logger, p.CheckCfg)
	report, err := validator.RunAll(ctx)
	if err != nil {
		return nil, "", err
	}

	passed, failed := report.Counts()
	stats.TestsPassed = passed
	stats.TestsFailed = failed

	rendered := RenderReport(report)
	fmt.Println(rendered)

	var reportPath string
	if p.CheckCfg.Output.SaveToFile {
		reportPath = p.CheckCfg.Output.ReportFile
		if err := WriteReport(rendered, reportPath); err != nil {
			p.Logger.Warn("Report konnte nicht gespeichert werden", zap.Error(err))
			reportPath = ""
		} else {
			p.Logger.Info("Report gespeichert", zap.String("path", reportPath))
		}
	}

	if report.AllPassed() {
		p.Logger.Info("Alle Qualitätsprüfungen bestanden")
	} else {
		p.Logger.Warn("Einige Qualitätsprüfungen sind fehlgeschlagen",
			zap.Int("failed", failed))
	}
	return report, reportPath, nil
}

// failStage protokolliert einen Stufenfehler und schließt den Lauf als
// fehlgeschlagen ab.
func (p *Pipeline) failStage(ctx context.Context, opts RunOptions, run *models.ImportRun, stats *RunStats, stage string, stageErr error, snapshotPath, reportPath string) error {
	stats.AddError(stage, stageErr.Error())
	p.Logger.Error("Pipeline-Stufe fehlgeschlagen",
		zap.String("stage", stage),
		zap.Error(stageErr))
	p.finalize(ctx, opts, run, stats, stage, models.RunStatusFailed, stageErr, snapshotPath, reportPath)
	return fmt.Errorf("stufe %s: %w", stage, stageErr)
}

// advance setzt den Stufen-Cursor im Laufprotokoll weiter.
func (p *Pipeline) advance(ctx context.Context, opts RunOptions, run *models.ImportRun, stage string) {
	run.Stage = stage
	if opts.DryRun {
		return
	}
	if err := p.DB.WithContext(ctx).Model(run).Update("stage", stage).Error; err != nil {
		p.Logger.Warn("Stufenwechsel konnte nicht protokolliert werden", zap.Error(err))
	}
}

// finalize archiviert die Artefakte, räumt temporäre Dateien weg und
// schreibt den Endzustand des Laufprotokolls.
func (p *Pipeline) finalize(ctx context.Context, opts RunOptions, run *models.ImportRun, stats *RunStats, stage, status string, runErr error, snapshotPath, reportPath string) {
	if !opts.DryRun && p.Archiver != nil && snapshotPath != "" {
		key, err := p.Archiver.ArchiveRun(ctx, run.StartedAt, snapshotPath, reportPath)
		if err != nil {
			// Archivfehler brechen keinen Lauf ab.
			p.Logger.Warn("Archivierung fehlgeschlagen", zap.Error(err))
		}
		run.ArchiveKey = key
	}
	p.cleanupSnapshot(opts, snapshotPath)

	if opts.DryRun {
		return
	}

	now := time.Now()
	run.FinishedAt = &now
	run.Stage = stage
	run.Status = status
	run.PapersFetched = stats.PapersFetched
	run.PapersProcessed = stats.Import.PapersProcessed
	run.PapersInserted = stats.Import.PapersInserted
	run.PapersUpdated = stats.Import.PapersUpdated
	run.PapersFailed = stats.Import.PapersFailed
	run.AuthorsProcessed = stats.Import.AuthorsProcessed
	run.AuthorshipsProcessed = stats.Import.AuthorshipsProcessed
	run.AuthorshipDuplicatesRemoved = stats.Import.AuthorshipDuplicatesRemoved
	run.ChecksPassed = stats.TestsPassed
	run.ChecksFailed = stats.TestsFailed
	run.SnapshotPath = snapshotPath
	run.ReportPath = reportPath
	if runErr != nil {
		run.ErrorText = runErr.Error()
	}

	if err := p.DB.WithContext(ctx).Save(run).Error; err != nil {
		p.Logger.Warn("Laufprotokoll konnte nicht aktualisiert werden", zap.Error(err))
	}
}

// cleanupSnapshot entfernt selbst erzeugte Snapshots im temp-Verzeichnis.
// Eingabedateien und Snapshots in anderen Verzeichnissen bleiben liegen.
func (p *Pipeline) cleanupSnapshot(opts RunOptions, snapshotPath string) {
	if snapshotPath == "" || opts.InputFile != "" || p.RunCfg.API.OutputDir != "temp" {
		return
	}
	if err := os.Remove(snapshotPath); err != nil {
		p.Logger.Warn("Temporäre Datei konnte nicht entfernt werden",
			zap.String("path", snapshotPath),
			zap.Error(err))
		return
	}
	p.Logger.Debug("Temporäre Datei entfernt", zap.String("path", snapshotPath))
}

// banner schreibt eine Trennzeile, den Titel und wieder eine Trennzeile.
func (p *Pipeline) banner(width int, title string) {
	sep := strings.Repeat("=", width)
	p.Logger.Info(sep)
	p.Logger.Info(title)
	p.Logger.Info(sep)
}

func (p *Pipeline) stageBanner(title string) {
	p.banner(50, title)
}
