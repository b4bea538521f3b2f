package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"paper-flow/config"
)

// Kategorien der Qualitätsprüfungen, in Berichtsreihenfolge.
const (
	CategoryCompleteness = "Data Completeness"
	CategoryValidity     = "Data Validity"
	CategoryBusiness     = "Business Logic"
	CategoryQuality      = "Data Quality"
	CategoryReferential  = "Referential Integrity"
	CategoryTimestamps   = "Timestamps & Metadata"
)

// Namen der konfigurierbaren Schwellwerte.
const (
	paramSuspiciousCitations = "suspicious_citation_threshold"
	paramRetractedWindow     = "retracted_update_window_days"
	paramMaxDuplicateDOIs    = "max_duplicate_dois"
)

// CheckDefinition beschreibt eine einzelne Qualitätsprüfung deklarativ.
// Params benennt die Schwellwerte, die in Reihenfolge der ?-Platzhalter an
// beide Queries gebunden werden. MaxFailuresParam benennt den Schwellwert
// für die erlaubte Trefferzahl (leer = 0 Treffer erlaubt).
type CheckDefinition struct {
	Name             string
	Category         string
	Description      string
	CountQuery       string
	SampleQuery      string
	Params           []string
	MaxFailuresParam string
}

// CheckResult ist das Ergebnis einer ausgeführten Prüfung.
type CheckResult struct {
	Name          string
	Category      string
	Description   string
	Passed        bool
	FailureCount  int
	SampleRecords []map[string]any
	ErrorMessage  string
	ExecutionTime time.Duration
}

// TableSummary sind die Bestandskennzahlen, die der Bericht anhängt.
type TableSummary struct {
	TotalPapers     int64   `gorm:"column:total_papers"`
	AvgCitedByCount float64 `gorm:"column:avg_cited_by_count"`
	MaxCitedByCount int64   `gorm:"column:max_cited_by_count"`
	MinYear         *int    `gorm:"column:min_year"`
	MaxYear         *int    `gorm:"column:max_year"`
}

// ValidationReport bündelt alle Ergebnisse eines Prüflaufs.
type ValidationReport struct {
	StartedAt time.Time
	Duration  time.Duration
	Results   []CheckResult
	Summary   TableSummary
}

// AllPassed meldet, ob jede ausgeführte Prüfung bestanden wurde.
func (r *ValidationReport) AllPassed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Counts liefert bestandene und fehlgeschlagene Prüfungen.
func (r *ValidationReport) Counts() (passed, failed int) {
	for _, res := range r.Results {
		if res.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// TotalIssues summiert die Trefferzahlen aller Prüfungen.
func (r *ValidationReport) TotalIssues() int {
	total := 0
	for _, res := range r.Results {
		total += res.FailureCount
	}
	return total
}

// qualityChecks ist die feste, geordnete Prüftabelle.
var qualityChecks = []CheckDefinition{
	{
		Name:        "missing_titles",
		Category:    CategoryCompleteness,
		Description: "Papers must have a non-empty title",
		CountQuery:  "SELECT COUNT(*) FROM papers WHERE title IS NULL OR TRIM(title) = ''",
		SampleQuery: "SELECT paper_id, doi, publication_year FROM papers WHERE title IS NULL OR TRIM(title) = ''",
	},
	{
		Name:        "missing_publication_info",
		Category:    CategoryCompleteness,
		Description: "Papers must carry a publication year or a publication date",
		CountQuery:  "SELECT COUNT(*) FROM papers WHERE publication_year IS NULL AND publication_date IS NULL",
		SampleQuery: "SELECT paper_id, title FROM papers WHERE publication_year IS NULL AND publication_date IS NULL",
	},
	{
		Name:        "papers_without_authors",
		Category:    CategoryCompleteness,
		Description: "Every paper should be linked to at least one author",
		CountQuery:  "SELECT COUNT(*) FROM papers p LEFT JOIN paper_authors pa ON p.paper_id = pa.paper_id WHERE pa.paper_id IS NULL",
		SampleQuery: "SELECT p.paper_id, p.title FROM papers p LEFT JOIN paper_authors pa ON p.paper_id = pa.paper_id WHERE pa.paper_id IS NULL",
	},
	{
		Name:        "invalid_publication_years",
		Category:    CategoryValidity,
		Description: "Publication years must lie between 1900 and next year",
		CountQuery:  "SELECT COUNT(*) FROM papers WHERE publication_year < 1900 OR publication_year > EXTRACT(YEAR FROM CURRENT_DATE) + 1",
		SampleQuery: "SELECT paper_id, title, publication_year FROM papers WHERE publication_year < 1900 OR publication_year > EXTRACT(YEAR FROM CURRENT_DATE) + 1",
	},
	{
		Name:        "negative_counts",
		Category:    CategoryValidity,
		Description: "Citation and reference counts must never be negative",
		CountQuery:  "SELECT COUNT(*) FROM papers WHERE cited_by_count < 0 OR referenced_works_count < 0",
		SampleQuery: "SELECT paper_id, cited_by_count, referenced_works_count FROM papers WHERE cited_by_count < 0 OR referenced_works_count < 0",
	},
	{
		Name:        "year_date_mismatch",
		Category:    CategoryValidity,
		Description: "Publication year must match the year of the publication date",
		CountQuery:  "SELECT COUNT(*) FROM papers WHERE publication_date IS NOT NULL AND publication_year IS NOT NULL AND EXTRACT(YEAR FROM publication_date) != publication_year",
		SampleQuery: "SELECT paper_id, publication_year, publication_date FROM papers WHERE publication_date IS NOT NULL AND publication_year IS NOT NULL AND EXTRACT(YEAR FROM publication_date) != publication_year",
	},
	{
		Name:        "relevance_score_out_of_range",
		Category:    CategoryBusiness,
		Description: "AI relevance scores must stay within [0, 1]",
		CountQuery:  "SELECT COUNT(*) FROM papers WHERE ai_relevance_score < 0 OR ai_relevance_score > 1",
		SampleQuery: "SELECT paper_id, ai_relevance_score FROM papers WHERE ai_relevance_score < 0 OR ai_relevance_score > 1",
	},
	{
		Name:        "ai_flag_score_mismatch",
		Category:    CategoryBusiness,
		Description: "AI flag and stored relevance score must agree",
		CountQuery:  "SELECT COUNT(*) FROM papers WHERE (has_ai_field AND ai_relevance_score = 0) OR (NOT has_ai_field AND ai_relevance_score > 0)",
		SampleQuery: "SELECT paper_id, has_ai_field, ai_relevance_score FROM papers WHERE (has_ai_field AND ai_relevance_score = 0) OR (NOT has_ai_field AND ai_relevance_score > 0)",
	},
	{
		Name:        "duplicate_author_sequence",
		Category:    CategoryBusiness,
		Description: "Author sequence numbers must be unique within a paper",
		CountQuery:  "SELECT COUNT(*) FROM (SELECT paper_id, author_sequence FROM paper_authors GROUP BY paper_id, author_sequence HAVING COUNT(*) > 1) dup",
		SampleQuery: "SELECT paper_id, author_sequence, COUNT(*) AS occurrences FROM paper_authors GROUP BY paper_id, author_sequence HAVING COUNT(*) > 1",
	},
	{
		Name:             "duplicate_dois",
		Category:         CategoryQuality,
		Description:      "DOIs must be unique across papers",
		CountQuery:       "SELECT COUNT(*) FROM (SELECT doi FROM papers WHERE doi IS NOT NULL GROUP BY doi HAVING COUNT(*) > 1) dup",
		SampleQuery:      "SELECT doi, COUNT(*) AS occurrences FROM papers WHERE doi IS NOT NULL GROUP BY doi HAVING COUNT(*) > 1",
		MaxFailuresParam: paramMaxDuplicateDOIs,
	},
	{
		Name:        "suspicious_citation_counts",
		Category:    CategoryQuality,
		Description: "Citation counts above the configured threshold are suspicious",
		CountQuery:  "SELECT COUNT(*) FROM papers WHERE cited_by_count > ?",
		SampleQuery: "SELECT paper_id, title, cited_by_count FROM papers WHERE cited_by_count > ? ORDER BY cited_by_count DESC",
		Params:      []string{paramSuspiciousCitations},
	},
	{
		Name:        "placeholder_author_names",
		Category:    CategoryQuality,
		Description: "Authors should not keep the placeholder display name",
		CountQuery:  "SELECT COUNT(*) FROM authors WHERE display_name = 'Unknown Author'",
		SampleQuery: "SELECT author_id, display_name FROM authors WHERE display_name = 'Unknown Author'",
	},
	{
		Name:        "orphaned_authorship_papers",
		Category:    CategoryReferential,
		Description: "Authorship links must reference an existing paper",
		CountQuery:  "SELECT COUNT(*) FROM paper_authors pa LEFT JOIN papers p ON pa.paper_id = p.paper_id WHERE p.paper_id IS NULL",
		SampleQuery: "SELECT pa.paper_id, pa.author_id FROM paper_authors pa LEFT JOIN papers p ON pa.paper_id = p.paper_id WHERE p.paper_id IS NULL",
	},
	{
		Name:        "orphaned_authorship_authors",
		Category:    CategoryReferential,
		Description: "Authorship links must reference an existing author",
		CountQuery:  "SELECT COUNT(*) FROM paper_authors pa LEFT JOIN authors a ON pa.author_id = a.author_id WHERE a.author_id IS NULL",
		SampleQuery: "SELECT pa.paper_id, pa.author_id FROM paper_authors pa LEFT JOIN authors a ON pa.author_id = a.author_id WHERE a.author_id IS NULL",
	},
	{
		Name:        "authors_without_papers",
		Category:    CategoryReferential,
		Description: "Every stored author should be linked to at least one paper",
		CountQuery:  "SELECT COUNT(*) FROM authors a LEFT JOIN paper_authors pa ON a.author_id = pa.author_id WHERE pa.author_id IS NULL",
		SampleQuery: "SELECT a.author_id, a.display_name FROM authors a LEFT JOIN paper_authors pa ON a.author_id = pa.author_id WHERE pa.author_id IS NULL",
	},
	{
		Name:        "stale_retracted_papers",
		Category:    CategoryTimestamps,
		Description: "Retracted papers must have been refreshed within the configured window",
		CountQuery:  "SELECT COUNT(*) FROM papers WHERE is_retracted AND ingested_at < NOW() - make_interval(days => ?)",
		SampleQuery: "SELECT paper_id, title, ingested_at FROM papers WHERE is_retracted AND ingested_at < NOW() - make_interval(days => ?)",
		Params:      []string{paramRetractedWindow},
	},
	{
		Name:        "future_publication_dates",
		Category:    CategoryTimestamps,
		Description: "Publication dates must not lie more than a year in the future",
		CountQuery:  "SELECT COUNT(*) FROM papers WHERE publication_date > CURRENT_DATE + INTERVAL '1 year'",
		SampleQuery: "SELECT paper_id, title, publication_date FROM papers WHERE publication_date > CURRENT_DATE + INTERVAL '1 year'",
	},
	{
		Name:        "missing_ingestion_timestamps",
		Category:    CategoryTimestamps,
		Description: "Every paper must carry an ingestion timestamp",
		CountQuery:  "SELECT COUNT(*) FROM papers WHERE ingested_at IS NULL",
		SampleQuery: "SELECT paper_id, title FROM papers WHERE ingested_at IS NULL",
	},
}

// QualityChecks gibt die Prüftabelle zurück (für Bericht und Tests).
func QualityChecks() []CheckDefinition {
	return qualityChecks
}

// Validator führt die Prüftabelle gegen die Datenbank aus.
type Validator struct {
	db     *gorm.DB
	logger *zap.Logger
	cfg    *config.CheckConfig
}

// NewValidator erstellt einen neuen Validator.
func NewValidator(db *gorm.DB, logger *zap.Logger, cfg *config.CheckConfig) *Validator {
	return &Validator{db: db, logger: logger, cfg: cfg}
}

// RunAll führt alle aktivierten Prüfungen in Tabellenreihenfolge aus.
// Ein Query-Fehler markiert die Prüfung als fehlgeschlagen; abgebrochen
// wird nur, wenn continue_on_failure deaktiviert ist.
func (v *Validator) RunAll(ctx context.Context) (*ValidationReport, error) {
	report := &ValidationReport{StartedAt: time.Now()}

	disabled := make(map[string]struct{}, len(v.cfg.DisabledChecks))
	for _, name := range v.cfg.DisabledChecks {
		disabled[name] = struct{}{}
	}

	for _, def := range qualityChecks {
		if _, off := disabled[def.Name]; off {
			v.logger.Info("Prüfung per Konfiguration deaktiviert", zap.String("check", def.Name))
			continue
		}

		result := v.runCheck(ctx, def)
		report.Results = append(report.Results, result)

		if result.Passed {
			v.logger.Info("Prüfung bestanden", zap.String("check", def.Name))
		} else {
			v.logger.Warn("Prüfung fehlgeschlagen",
				zap.String("check", def.Name),
				zap.Int("failure_count", result.FailureCount),
				zap.String("error", result.ErrorMessage))
			if !v.cfg.ContinueOnFailure {
				break
			}
		}
	}

	if err := v.db.WithContext(ctx).Raw(
		"SELECT COUNT(*) AS total_papers, COALESCE(AVG(cited_by_count), 0) AS avg_cited_by_count, COALESCE(MAX(cited_by_count), 0) AS max_cited_by_count, MIN(publication_year) AS min_year, MAX(publication_year) AS max_year FROM papers",
	).Scan(&report.Summary).Error; err != nil {
		v.logger.Warn("Bestandskennzahlen konnten nicht gelesen werden", zap.Error(err))
	}

	report.Duration = time.Since(report.StartedAt)
	return report, nil
}

// runCheck führt eine einzelne Prüfung aus: erst die Zählabfrage, bei
// Treffern zusätzlich die Beispielabfrage.
func (v *Validator) runCheck(ctx context.Context, def CheckDefinition) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:        def.Name,
		Category:    def.Category,
		Description: def.Description,
	}

	args := v.resolveParams(def.Params)

	var count int64
	if err := v.db.WithContext(ctx).Raw(def.CountQuery, args...).Scan(&count).Error; err != nil {
		result.Passed = false
		result.ErrorMessage = fmt.Sprintf("count query failed: %v", err)
		result.ExecutionTime = time.Since(start)
		return result
	}

	result.FailureCount = int(count)
	result.Passed = result.FailureCount <= v.maxFailures(def)

	wantSamples := !result.Passed || v.cfg.ShowSamplesForPassingTests
	if count > 0 && wantSamples && def.SampleQuery != "" {
		sampleSQL := fmt.Sprintf("%s LIMIT %d", def.SampleQuery, v.cfg.MaxSampleRecords)
		var rows []map[string]any
		if err := v.db.WithContext(ctx).Raw(sampleSQL, args...).Scan(&rows).Error; err != nil {
			v.logger.Warn("Beispielabfrage fehlgeschlagen",
				zap.String("check", def.Name), zap.Error(err))
		} else {
			result.SampleRecords = rows
		}
	}

	result.ExecutionTime = time.Since(start)
	return result
}

// resolveParams bindet die benannten Schwellwerte in Platzhalterreihenfolge.
func (v *Validator) resolveParams(params []string) []any {
	args := make([]any, 0, len(params))
	for _, p := range params {
		switch p {
		case paramSuspiciousCitations:
			args = append(args, v.cfg.Thresholds.SuspiciousCitationThreshold)
		case paramRetractedWindow:
			args = append(args, v.cfg.Thresholds.RetractedUpdateWindowDays)
		case paramMaxDuplicateDOIs:
			args = append(args, v.cfg.Thresholds.MaxDuplicateDOIs)
		}
	}
	return args
}

// maxFailures liefert die erlaubte Trefferzahl einer Prüfung.
func (v *Validator) maxFailures(def CheckDefinition) int {
	if def.MaxFailuresParam == paramMaxDuplicateDOIs {
		return v.cfg.Thresholds.MaxDuplicateDOIs
	}
	return 0
}
