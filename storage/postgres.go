package storage

import (
	"fmt"

	"paper-flow/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open stellt die Verbindung zur PostgreSQL-Datenbank her.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("verbindung zur datenbank fehlgeschlagen: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql-pool nicht verfügbar: %w", err)
	}
	// Die Pipeline schreibt seriell, eine Verbindung genügt.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Aggregatobjekte, die AutoMigrate nicht abdeckt. Jedes Statement ist für
// sich idempotent und wird einzeln ausgeführt.
var schemaObjects = []struct {
	name string
	sql  string
}{
	{
		name: "v_top_cited_papers",
		sql: `CREATE OR REPLACE VIEW v_top_cited_papers AS
			SELECT paper_id, title, doi, publication_year, journal_name,
			       cited_by_count, fwci, ai_relevance_score
			FROM papers
			ORDER BY cited_by_count DESC
			LIMIT 100`,
	},
	{
		name: "v_author_productivity",
		sql: `CREATE OR REPLACE VIEW v_author_productivity AS
			SELECT author_id, display_name, primary_institution, primary_country,
			       paper_count, total_citations
			FROM authors
			ORDER BY paper_count DESC, total_citations DESC`,
	},
	{
		name: "v_papers_per_year",
		sql: `CREATE OR REPLACE VIEW v_papers_per_year AS
			SELECT publication_year,
			       COUNT(*) AS paper_count,
			       AVG(cited_by_count) AS avg_citations,
			       COUNT(*) FILTER (WHERE is_open_access) AS open_access_count
			FROM papers
			WHERE publication_year IS NOT NULL
			GROUP BY publication_year
			ORDER BY publication_year DESC`,
	},
	{
		// Die Subquery liefert ohne GROUP BY immer genau eine Zeile, beim
		// letzten gelöschten Werk also die Nullwerte.
		name: "refresh_author_metrics",
		sql: `CREATE OR REPLACE FUNCTION refresh_author_metrics() RETURNS trigger AS $$
			DECLARE
			    affected varchar;
			BEGIN
			    IF TG_OP = 'DELETE' THEN
			        affected := OLD.author_id;
			    ELSE
			        affected := NEW.author_id;
			    END IF;

			    UPDATE authors
			    SET paper_count = stats.cnt,
			        total_citations = stats.cites,
			        updated_at = CURRENT_TIMESTAMP
			    FROM (
			        SELECT COUNT(*) AS cnt,
			               COALESCE(SUM(p.cited_by_count), 0) AS cites
			        FROM paper_authors pa
			        JOIN papers p ON p.paper_id = pa.paper_id
			        WHERE pa.author_id = affected
			    ) AS stats
			    WHERE authors.author_id = affected;

			    RETURN NULL;
			END;
			$$ LANGUAGE plpgsql`,
	},
	{
		name: "trg_refresh_author_metrics (drop)",
		sql:  `DROP TRIGGER IF EXISTS trg_refresh_author_metrics ON paper_authors`,
	},
	{
		name: "trg_refresh_author_metrics",
		sql: `CREATE TRIGGER trg_refresh_author_metrics
			AFTER INSERT OR UPDATE OR DELETE ON paper_authors
			FOR EACH ROW EXECUTE FUNCTION refresh_author_metrics()`,
	},
}

// EnsureSchema migriert die Tabellen und legt die Views und den
// Autor-Metrik-Trigger an. Danach wird der Stand aus information_schema
// gegengeprüft und geloggt.
func EnsureSchema(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(&models.Paper{}, &models.Author{}, &models.PaperAuthor{}, &models.ImportRun{}); err != nil {
		return fmt.Errorf("schema-migration fehlgeschlagen: %w", err)
	}

	for _, obj := range schemaObjects {
		if err := db.Exec(obj.sql).Error; err != nil {
			return fmt.Errorf("schema-objekt %s konnte nicht angelegt werden: %w", obj.name, err)
		}
	}

	var tables []string
	err := db.Raw(`SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`).Scan(&tables).Error
	if err != nil {
		return fmt.Errorf("schema-verifikation fehlgeschlagen: %w", err)
	}

	var views []string
	err = db.Raw(`SELECT table_name FROM information_schema.views
		WHERE table_schema = 'public'
		ORDER BY table_name`).Scan(&views).Error
	if err != nil {
		return fmt.Errorf("schema-verifikation fehlgeschlagen: %w", err)
	}

	log.Info("Schema bereitgestellt",
		zap.Strings("tables", tables),
		zap.Strings("views", views))
	return nil
}
