package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paper-flow/models"
)

const defaultBatchSize = 50

// Spaltenlisten der Merge-Politik für papers. Overwrite-Spalten übernehmen
// immer den eingehenden Wert, Coalesce-Spalten behalten den gespeicherten
// Wert, wenn der eingehende NULL ist.
var (
	paperOverwriteColumns = []string{
		"title",
		"author_count",
		"institution_count",
		"country_count",
		"cited_by_count",
		"referenced_works_count",
		"is_retracted",
		"is_paratext",
		"has_abstract",
		"updated_date",
	}
	paperCoalesceColumns = []string{
		"doi",
		"publication_year",
		"publication_date",
		"paper_type",
		"language",
		"journal_name",
		"publisher",
		"journal_issn",
		"is_core_journal",
		"is_open_access",
		"oa_status",
		"pdf_url",
		"landing_page_url",
		"license",
		"first_author_name",
		"corresponding_author_name",
		"first_institution",
		"first_country",
		"fwci",
		"citation_percentile",
		"primary_topic",
		"top_concept_1",
		"top_concept_2",
		"top_concept_3",
		"keywords",
		"ai_relevance_score",
		"has_ai_field",
		"created_date",
	}

	authorCoalesceColumns = []string{
		"display_name",
		"orcid",
		"primary_institution",
		"primary_country",
	}

	authorshipOverwriteColumns = []string{
		"author_position",
		"author_sequence",
		"is_corresponding",
	}
	authorshipCoalesceColumns = []string{
		"institution_names",
		"institution_ids",
		"countries",
		"raw_affiliation_strings",
	}
)

// ImportStats zählt die Ergebnisse eines Import-Laufs.
type ImportStats struct {
	PapersProcessed int
	PapersInserted  int
	PapersUpdated   int
	PapersFailed    int

	AuthorsProcessed            int
	AuthorshipsProcessed        int
	AuthorshipDuplicatesRemoved int

	StartTime time.Time
}

// add übernimmt die Zähler eines erfolgreich abgeschlossenen Batches.
func (s *ImportStats) add(delta ImportStats) {
	s.PapersProcessed += delta.PapersProcessed
	s.PapersInserted += delta.PapersInserted
	s.PapersUpdated += delta.PapersUpdated
	s.PapersFailed += delta.PapersFailed
	s.AuthorsProcessed += delta.AuthorsProcessed
	s.AuthorshipsProcessed += delta.AuthorshipsProcessed
	s.AuthorshipDuplicatesRemoved += delta.AuthorshipDuplicatesRemoved
}

// Summary rendert den Importblock für Log und Bericht.
func (s *ImportStats) Summary() string {
	duration := time.Since(s.StartTime).Seconds()

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 70) + "\n")
	b.WriteString("IMPORT SUMMARY\n")
	b.WriteString(strings.Repeat("=", 70) + "\n")
	fmt.Fprintf(&b, "Papers:\n")
	fmt.Fprintf(&b, "  - Processed: %d\n", s.PapersProcessed)
	fmt.Fprintf(&b, "  - Inserted:  %d\n", s.PapersInserted)
	fmt.Fprintf(&b, "  - Updated:   %d\n", s.PapersUpdated)
	fmt.Fprintf(&b, "  - Failed:    %d\n", s.PapersFailed)
	fmt.Fprintf(&b, "Authors processed:        %d\n", s.AuthorsProcessed)
	fmt.Fprintf(&b, "Authorships processed:    %d\n", s.AuthorshipsProcessed)
	fmt.Fprintf(&b, "Authorship duplicates:    %d\n", s.AuthorshipDuplicatesRemoved)
	fmt.Fprintf(&b, "Duration: %.2f seconds\n", duration)
	b.WriteString(strings.Repeat("=", 70))
	return b.String()
}

// Importer schreibt normalisierte Papers per Merge-Upsert in die Datenbank.
type Importer struct {
	db        *gorm.DB
	logger    *zap.Logger
	batchSize int
}

// NewImporter erstellt einen neuen Importer. batchSize <= 0 wählt den Default.
func NewImporter(db *gorm.DB, logger *zap.Logger, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Importer{db: db, logger: logger, batchSize: batchSize}
}

// Run importiert alle Papers in Batches, jeder Batch in einer eigenen
// Transaktion. Schlägt ein Batch fehl, wird er komplett zurückgerollt und
// als fehlgeschlagen gezählt; der Fehler beendet den Import.
func (i *Importer) Run(ctx context.Context, papers []*NormalizedPaper) (*ImportStats, error) {
	stats := &ImportStats{StartTime: time.Now()}

	for start := 0; start < len(papers); start += i.batchSize {
		end := min(start+i.batchSize, len(papers))
		batch := papers[start:end]

		delta, err := i.importBatch(ctx, batch)
		if err != nil {
			stats.PapersFailed += len(batch)
			i.logger.Error("Batch-Import fehlgeschlagen, Batch zurückgerollt",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			return stats, fmt.Errorf("fehler beim Import des Batches ab Position %d: %w", start, err)
		}
		stats.add(delta)

		if stats.PapersProcessed%50 == 0 {
			i.logger.Info("Fortschritt",
				zap.Int("processed", stats.PapersProcessed),
				zap.Int("total", len(papers)))
		}
	}

	return stats, nil
}

// importBatch verarbeitet einen Batch innerhalb einer Transaktion und gibt
// dessen Zähler zurück. Die Zähler werden erst nach dem Commit übernommen.
func (i *Importer) importBatch(ctx context.Context, batch []*NormalizedPaper) (ImportStats, error) {
	var delta ImportStats

	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := existingPaperIDs(tx, batch)
		if err != nil {
			return err
		}

		for _, p := range batch {
			authors := DedupeAuthors(p.Authors)
			if len(authors) > 0 {
				if err := upsertAuthors(tx, authors); err != nil {
					return fmt.Errorf("fehler beim Upsert der Autoren für %s: %w", p.Paper.PaperID, err)
				}
			}

			if err := upsertPaper(tx, &p.Paper); err != nil {
				return fmt.Errorf("fehler beim Upsert des Papers %s: %w", p.Paper.PaperID, err)
			}

			links, removed := DedupeAuthorships(p.Authorships)
			if len(links) > 0 {
				if err := upsertAuthorships(tx, links); err != nil {
					return fmt.Errorf("fehler beim Upsert der Verknüpfungen für %s: %w", p.Paper.PaperID, err)
				}
			}

			delta.PapersProcessed++
			if _, ok := existing[p.Paper.PaperID]; ok {
				delta.PapersUpdated++
			} else {
				delta.PapersInserted++
			}
			delta.AuthorsProcessed += len(authors)
			delta.AuthorshipsProcessed += len(links)
			delta.AuthorshipDuplicatesRemoved += removed
		}

		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}

	return delta, nil
}

// existingPaperIDs liest vor dem Schreiben, welche Papers des Batches schon
// gespeichert sind. Im Ein-Schreiber-Modell ist das die exakte
// Insert/Update-Klassifikation.
func existingPaperIDs(tx *gorm.DB, batch []*NormalizedPaper) (map[string]struct{}, error) {
	ids := make([]string, 0, len(batch))
	for _, p := range batch {
		ids = append(ids, p.Paper.PaperID)
	}

	var found []string
	if err := tx.Model(&models.Paper{}).Where("paper_id IN ?", ids).Pluck("paper_id", &found).Error; err != nil {
		return nil, fmt.Errorf("fehler beim Lesen vorhandener paper_ids: %w", err)
	}

	existing := make(map[string]struct{}, len(found))
	for _, id := range found {
		existing[id] = struct{}{}
	}
	return existing, nil
}

func upsertAuthors(tx *gorm.DB, authors []models.Author) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "author_id"}},
		DoUpdates: clause.Assignments(authorAssignments()),
	}).Create(&authors).Error
}

func upsertPaper(tx *gorm.DB, paper *models.Paper) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "paper_id"}},
		DoUpdates: clause.Assignments(paperAssignments()),
	}).Create(paper).Error
}

func upsertAuthorships(tx *gorm.DB, links []models.PaperAuthor) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "paper_id"}, {Name: "author_id"}},
		DoUpdates: clause.Assignments(authorshipAssignments()),
	}).Create(&links).Error
}

// paperAssignments baut die ON-CONFLICT-Zuweisungen für papers aus den
// Spaltenlisten der Merge-Politik.
func paperAssignments() map[string]any {
	m := make(map[string]any, len(paperOverwriteColumns)+len(paperCoalesceColumns)+1)
	for _, col := range paperOverwriteColumns {
		m[col] = gorm.Expr("EXCLUDED." + col)
	}
	for _, col := range paperCoalesceColumns {
		m[col] = gorm.Expr(fmt.Sprintf("COALESCE(EXCLUDED.%s, papers.%s)", col, col))
	}
	m["ingested_at"] = gorm.Expr("CURRENT_TIMESTAMP")
	return m
}

func authorAssignments() map[string]any {
	m := make(map[string]any, len(authorCoalesceColumns)+1)
	for _, col := range authorCoalesceColumns {
		m[col] = gorm.Expr(fmt.Sprintf("COALESCE(EXCLUDED.%s, authors.%s)", col, col))
	}
	m["updated_at"] = gorm.Expr("CURRENT_TIMESTAMP")
	return m
}

func authorshipAssignments() map[string]any {
	m := make(map[string]any, len(authorshipOverwriteColumns)+len(authorshipCoalesceColumns)+1)
	for _, col := range authorshipOverwriteColumns {
		m[col] = gorm.Expr("EXCLUDED." + col)
	}
	for _, col := range authorshipCoalesceColumns {
		m[col] = gorm.Expr(fmt.Sprintf("COALESCE(EXCLUDED.%s, paper_authors.%s)", col, col))
	}
	m["created_at"] = gorm.Expr("CURRENT_TIMESTAMP")
	return m
}
