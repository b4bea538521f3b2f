package openalex

// Work ist das rohe OpenAlex-Work-Dokument, so wie es die API liefert.
// Nur die Felder, die der Import tatsächlich auswertet, sind abgebildet.
type Work struct {
	ID              string `json:"id"`
	DOI             string `json:"doi,omitempty"`
	Title           string `json:"title,omitempty"`
	DisplayName     string `json:"display_name,omitempty"`
	PublicationYear *int   `json:"publication_year,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
	Type            string `json:"type,omitempty"`
	Language        string `json:"language,omitempty"`

	PrimaryLocation *Location   `json:"primary_location,omitempty"`
	OpenAccess      *OpenAccess `json:"open_access,omitempty"`

	Authorships []Authorship `json:"authorships,omitempty"`

	CitedByCount         int `json:"cited_by_count"`
	ReferencedWorksCount int `json:"referenced_works_count"`

	PrimaryTopic *Topic    `json:"primary_topic,omitempty"`
	Topics       []Topic   `json:"topics,omitempty"`
	Concepts     []Concept `json:"concepts,omitempty"`
	Keywords     []Keyword `json:"keywords,omitempty"`

	IsRetracted bool `json:"is_retracted"`
	IsParatext  bool `json:"is_paratext"`

	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index,omitempty"`

	CreatedDate string `json:"created_date,omitempty"`
	UpdatedDate string `json:"updated_date,omitempty"`
}

// Location beschreibt den primären Veröffentlichungsort eines Works.
type Location struct {
	PDFURL         string  `json:"pdf_url,omitempty"`
	LandingPageURL string  `json:"landing_page_url,omitempty"`
	License        string  `json:"license,omitempty"`
	Source         *Source `json:"source,omitempty"`
}

// Source ist die Quelle (Journal, Repository) eines Veröffentlichungsorts.
type Source struct {
	ID                   string `json:"id,omitempty"`
	DisplayName          string `json:"display_name,omitempty"`
	HostOrganizationName string `json:"host_organization_name,omitempty"`
	ISSNL                string `json:"issn_l,omitempty"`
	IsCore               *bool  `json:"is_core,omitempty"`
}

// OpenAccess bündelt die Open-Access-Angaben eines Works.
type OpenAccess struct {
	IsOA     *bool  `json:"is_oa,omitempty"`
	OAStatus string `json:"oa_status,omitempty"`
	OAURL    string `json:"oa_url,omitempty"`
}

// Authorship verknüpft ein Work mit einer Autorin/einem Autor samt Position
// und Zugehörigkeiten.
type Authorship struct {
	AuthorPosition        string        `json:"author_position,omitempty"`
	Author                WorkAuthor    `json:"author"`
	IsCorresponding       bool          `json:"is_corresponding"`
	Institutions          []Institution `json:"institutions,omitempty"`
	Countries             []string      `json:"countries,omitempty"`
	RawAffiliationStrings []string      `json:"raw_affiliation_strings,omitempty"`
}

// WorkAuthor ist der Autorendatensatz innerhalb einer Authorship.
type WorkAuthor struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	ORCID       string `json:"orcid,omitempty"`
}

// Institution ist eine Zugehörigkeit innerhalb einer Authorship.
type Institution struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// Concept ist ein gewichtetes OpenAlex-Konzept.
type Concept struct {
	ID          string  `json:"id,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	Score       float64 `json:"score"`
}

// Topic ist ein OpenAlex-Topic mit Feld- und Unterfeldzuordnung.
type Topic struct {
	ID          string     `json:"id,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	Score       float64    `json:"score"`
	Field       TopicLevel `json:"field,omitempty"`
	Subfield    TopicLevel `json:"subfield,omitempty"`
}

// TopicLevel ist eine Ebene der Topic-Hierarchie (Field, Subfield, Domain).
type TopicLevel struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Keyword ist ein gewichtetes Schlagwort eines Works.
type Keyword struct {
	ID          string  `json:"id,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	Score       float64 `json:"score"`
}

// concept ist die Kurzform aus der Konzeptsuche (/concepts).
type conceptResult struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	CitedByCount int    `json:"cited_by_count"`
}

// listMeta sind die Paginierungs-Metadaten einer OpenAlex-Listenantwort.
type listMeta struct {
	Count      int    `json:"count"`
	NextCursor string `json:"next_cursor"`
	PerPage    int    `json:"per_page"`
}

// worksResponse ist die Antwort von /works.
type worksResponse struct {
	Meta    listMeta `json:"meta"`
	Results []Work   `json:"results"`
}

// conceptsResponse ist die Antwort von /concepts.
type conceptsResponse struct {
	Meta    listMeta        `json:"meta"`
	Results []conceptResult `json:"results"`
}
