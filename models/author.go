package models

import (
	"time"
)

// Author repräsentiert eine Autorin oder einen Autor aus OpenAlex.
type Author struct {
	AuthorID    string  `json:"author_id" gorm:"column:author_id;primaryKey;size:64"`
	DisplayName string  `json:"display_name" gorm:"not null"`
	ORCID       *string `json:"orcid,omitempty" gorm:"column:orcid;size:32"`

	// Erste bekannte Zugehörigkeit (aus der ersten Authorship übernommen)
	PrimaryInstitution *string `json:"primary_institution,omitempty"`
	PrimaryCountry     *string `json:"primary_country,omitempty" gorm:"size:8"`

	// Von der Datenbank gepflegte Metriken, der Import schreibt sie nie
	PaperCount     int `json:"paper_count" gorm:"not null;default:0"`
	TotalCitations int `json:"total_citations" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Author) TableName() string {
	return "authors"
}
