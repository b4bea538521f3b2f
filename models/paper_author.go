package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaperAuthor modelliert die Verknüpfung zwischen Paper und Author samt
// Positions- und Zugehörigkeitsangaben aus der jeweiligen Authorship.
type PaperAuthor struct {
	PaperID  string `json:"paper_id" gorm:"column:paper_id;primaryKey;size:64"`
	AuthorID string `json:"author_id" gorm:"column:author_id;primaryKey;size:64"`

	AuthorPosition  *string `json:"author_position,omitempty" gorm:"size:16"`
	AuthorSequence  int     `json:"author_sequence" gorm:"not null"`
	IsCorresponding bool    `json:"is_corresponding"`

	// Listenfelder als jsonb; leere Listen werden als NULL gespeichert
	InstitutionNames      datatypes.JSON `json:"institution_names,omitempty" gorm:"type:jsonb"`
	InstitutionIDs        datatypes.JSON `json:"institution_ids,omitempty" gorm:"column:institution_ids;type:jsonb"`
	Countries             datatypes.JSON `json:"countries,omitempty" gorm:"type:jsonb"`
	RawAffiliationStrings datatypes.JSON `json:"raw_affiliation_strings,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (PaperAuthor) TableName() string {
	return "paper_authors"
}
