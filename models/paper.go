package models

import (
	"time"

	"gorm.io/datatypes"
)

// Paper repräsentiert eine wissenschaftliche Arbeit mit allen Metadaten,
// die aus einem OpenAlex-Work-Dokument abgeleitet werden.
type Paper struct {
	// Nackte OpenAlex-ID (z.B. "W2741809807"), letztes URL-Segment
	PaperID string  `json:"paper_id" gorm:"column:paper_id;primaryKey;size:64"`
	DOI     *string `json:"doi,omitempty" gorm:"column:doi;uniqueIndex;size:512"`

	Title           *string    `json:"title,omitempty" gorm:"type:text"`
	PublicationYear *int       `json:"publication_year,omitempty" gorm:"index"`
	PublicationDate *time.Time `json:"publication_date,omitempty" gorm:"type:date"`
	PaperType       *string    `json:"paper_type,omitempty" gorm:"index"`
	Language        *string    `json:"language,omitempty"`

	// Venue-Angaben aus primary_location.source
	JournalName   *string `json:"journal_name,omitempty" gorm:"index"`
	Publisher     *string `json:"publisher,omitempty"`
	JournalISSN   *string `json:"journal_issn,omitempty" gorm:"column:journal_issn;size:32"`
	IsCoreJournal *bool   `json:"is_core_journal,omitempty"`

	// Open-Access-Angaben
	IsOpenAccess   *bool   `json:"is_open_access,omitempty"`
	OAStatus       *string `json:"oa_status,omitempty" gorm:"column:oa_status;size:32"`
	PDFURL         *string `json:"pdf_url,omitempty" gorm:"column:pdf_url;type:text"`
	LandingPageURL *string `json:"landing_page_url,omitempty" gorm:"column:landing_page_url;type:text"`
	License        *string `json:"license,omitempty" gorm:"size:64"`

	// Aggregierte Autorenangaben (vor der Deduplizierung gezählt)
	AuthorCount             int     `json:"author_count"`
	FirstAuthorName         *string `json:"first_author_name,omitempty"`
	CorrespondingAuthorName *string `json:"corresponding_author_name,omitempty"`
	InstitutionCount        int     `json:"institution_count"`
	CountryCount            int     `json:"country_count"`
	FirstInstitution        *string `json:"first_institution,omitempty"`
	FirstCountry            *string `json:"first_country,omitempty" gorm:"size:8"`

	// Zitationsmetriken
	CitedByCount         int      `json:"cited_by_count" gorm:"index"`
	ReferencedWorksCount int      `json:"referenced_works_count"`
	FWCI                 *float64 `json:"fwci,omitempty" gorm:"column:fwci"`
	CitationPercentile   *float64 `json:"citation_percentile,omitempty"`

	// Thematische Einordnung
	PrimaryTopic *string        `json:"primary_topic,omitempty" gorm:"index"`
	TopConcept1  *string        `json:"top_concept_1,omitempty" gorm:"column:top_concept_1"`
	TopConcept2  *string        `json:"top_concept_2,omitempty" gorm:"column:top_concept_2"`
	TopConcept3  *string        `json:"top_concept_3,omitempty" gorm:"column:top_concept_3"`
	Keywords     datatypes.JSON `json:"keywords,omitempty" gorm:"type:jsonb"`

	IsRetracted bool `json:"is_retracted" gorm:"index"`
	IsParatext  bool `json:"is_paratext"`
	HasAbstract bool `json:"has_abstract"`

	// Persistierter binärer Relevanzpfad (0.5 bei Vokabeltreffer, sonst 0.0)
	AIRelevanceScore float64 `json:"ai_relevance_score" gorm:"column:ai_relevance_score"`
	HasAIField       bool    `json:"has_ai_field" gorm:"column:has_ai_field;index"`

	// Quellzeitstempel, unverändert übernommen
	CreatedDate *string `json:"created_date,omitempty" gorm:"size:32"`
	UpdatedDate *string `json:"updated_date,omitempty" gorm:"size:64"`

	IngestedAt time.Time `json:"ingested_at" gorm:"column:ingested_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Paper) TableName() string {
	return "papers"
}
