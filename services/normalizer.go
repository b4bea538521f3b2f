package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"paper-flow/models"
	"paper-flow/openalex"
)

// Vokabular für den persistierten binären Relevanzpfad. Geprüft wird auf
// Substring-Treffer in Titel, Konzeptnamen und Schlagworten.
var aiVocabulary = []string{
	"artificial intelligence",
	"machine learning",
	"deep learning",
	"neural network",
	"ai",
	"ml",
	"dl",
}

// NormalizedPaper bündelt die drei Zeilenformen, die aus einem einzelnen
// Work-Dokument entstehen.
type NormalizedPaper struct {
	Paper       models.Paper
	Authors     []models.Author
	Authorships []models.PaperAuthor
}

// WorkNormalizer überführt rohe Work-Dokumente in die relationalen
// Zeilenformen für papers, authors und paper_authors.
type WorkNormalizer struct {
	logger *zap.Logger
}

// NewWorkNormalizer erstellt einen neuen WorkNormalizer.
func NewWorkNormalizer(logger *zap.Logger) *WorkNormalizer {
	return &WorkNormalizer{logger: logger}
}

// Normalize transformiert ein Work-Dokument vollständig. Ein Dokument ohne
// verwertbare ID wird als Ganzes abgelehnt, es entstehen nie Teilzeilen.
func (n *WorkNormalizer) Normalize(w *openalex.Work) (*NormalizedPaper, error) {
	paperID := openalex.TrailingID(w.ID)
	if paperID == "" {
		return nil, fmt.Errorf("work ohne verwertbare ID")
	}

	paper, err := n.normalizePaper(paperID, w)
	if err != nil {
		return nil, err
	}

	result := &NormalizedPaper{Paper: paper}
	for idx, authorship := range w.Authorships {
		authorID := openalex.TrailingID(authorship.Author.ID)
		if authorID == "" {
			n.logger.Warn("Authorship ohne Author-ID übersprungen",
				zap.String("paper_id", paperID),
				zap.Int("sequence", idx+1))
			continue
		}

		result.Authors = append(result.Authors, normalizeAuthor(authorID, authorship))
		// Die Sequenz zählt über das rohe Array, übersprungene Einträge eingeschlossen
		result.Authorships = append(result.Authorships, normalizeAuthorship(paperID, authorID, authorship, idx+1))
	}

	return result, nil
}

// normalizePaper leitet alle Paper-Spalten aus dem Work-Dokument ab.
func (n *WorkNormalizer) normalizePaper(paperID string, w *openalex.Work) (models.Paper, error) {
	var src *openalex.Source
	var loc openalex.Location
	if w.PrimaryLocation != nil {
		loc = *w.PrimaryLocation
		src = w.PrimaryLocation.Source
	}
	var oa openalex.OpenAccess
	if w.OpenAccess != nil {
		oa = *w.OpenAccess
	}

	pubDate, err := parseDate(w.PublicationDate)
	if err != nil {
		return models.Paper{}, fmt.Errorf("ungültiges publication_date %q: %w", w.PublicationDate, err)
	}

	title := w.Title
	if title == "" {
		title = w.DisplayName
	}

	pdfURL := loc.PDFURL
	if pdfURL == "" {
		pdfURL = oa.OAURL
	}

	// Aggregierte Autorenangaben über alle Authorships
	var firstAuthorName, correspondingAuthorName *string
	for _, a := range w.Authorships {
		if firstAuthorName == nil && a.AuthorPosition == "first" {
			firstAuthorName = strPtr(a.Author.DisplayName)
		}
		if correspondingAuthorName == nil && a.IsCorresponding {
			correspondingAuthorName = strPtr(a.Author.DisplayName)
		}
	}

	allInstitutions := map[string]struct{}{}
	allCountries := map[string]struct{}{}
	var firstInstitution, firstCountry *string
	for _, a := range w.Authorships {
		for _, inst := range a.Institutions {
			if inst.DisplayName == "" {
				continue
			}
			allInstitutions[inst.DisplayName] = struct{}{}
			if firstInstitution == nil {
				firstInstitution = strPtr(inst.DisplayName)
			}
		}
		for _, country := range a.Countries {
			if country == "" {
				continue
			}
			allCountries[country] = struct{}{}
			if firstCountry == nil {
				firstCountry = strPtr(country)
			}
		}
	}

	// Konzepte absteigend nach Score, die drei stärksten werden persistiert
	topConcepts := make([]openalex.Concept, len(w.Concepts))
	copy(topConcepts, w.Concepts)
	sort.SliceStable(topConcepts, func(i, j int) bool {
		return topConcepts[i].Score > topConcepts[j].Score
	})
	if len(topConcepts) > 3 {
		topConcepts = topConcepts[:3]
	}
	conceptName := func(i int) *string {
		if i < len(topConcepts) {
			return strPtr(topConcepts[i].DisplayName)
		}
		return nil
	}

	var primaryTopic *string
	if len(w.Topics) > 0 {
		primaryTopic = strPtr(w.Topics[0].DisplayName)
	}

	var keywordNames []string
	for _, kw := range w.Keywords {
		keywordNames = append(keywordNames, kw.DisplayName)
	}

	hasAIField := hasAIVocabulary(w)
	score := 0.0
	if hasAIField {
		score = 0.5
	}

	var srcName, srcPublisher, srcISSN *string
	var srcIsCore *bool
	if src != nil {
		srcName = strPtr(src.DisplayName)
		srcPublisher = strPtr(src.HostOrganizationName)
		srcISSN = strPtr(src.ISSNL)
		srcIsCore = src.IsCore
	}

	return models.Paper{
		PaperID:         paperID,
		DOI:             strPtr(openalex.StripDOIPrefix(w.DOI)),
		Title:           strPtr(title),
		PublicationYear: w.PublicationYear,
		PublicationDate: pubDate,
		PaperType:       strPtr(w.Type),
		Language:        strPtr(w.Language),

		JournalName:   srcName,
		Publisher:     srcPublisher,
		JournalISSN:   srcISSN,
		IsCoreJournal: srcIsCore,

		IsOpenAccess:   oa.IsOA,
		OAStatus:       strPtr(oa.OAStatus),
		PDFURL:         strPtr(pdfURL),
		LandingPageURL: strPtr(loc.LandingPageURL),
		License:        strPtr(loc.License),

		AuthorCount:             len(w.Authorships),
		FirstAuthorName:         firstAuthorName,
		CorrespondingAuthorName: correspondingAuthorName,
		InstitutionCount:        len(allInstitutions),
		CountryCount:            len(allCountries),
		FirstInstitution:        firstInstitution,
		FirstCountry:            firstCountry,

		CitedByCount:         w.CitedByCount,
		ReferencedWorksCount: w.ReferencedWorksCount,
		FWCI:                 nil,
		CitationPercentile:   nil,

		PrimaryTopic: primaryTopic,
		TopConcept1:  conceptName(0),
		TopConcept2:  conceptName(1),
		TopConcept3:  conceptName(2),
		Keywords:     jsonList(keywordNames),

		IsRetracted: w.IsRetracted,
		IsParatext:  w.IsParatext,
		HasAbstract: len(w.AbstractInvertedIndex) > 0,

		AIRelevanceScore: score,
		HasAIField:       hasAIField,

		CreatedDate: strPtr(w.CreatedDate),
		UpdatedDate: strPtr(w.UpdatedDate),
	}, nil
}

// normalizeAuthor leitet die Author-Zeile aus einer Authorship ab.
func normalizeAuthor(authorID string, a openalex.Authorship) models.Author {
	name := a.Author.DisplayName
	if name == "" {
		name = "Unknown Author"
	}

	var primaryInstitution *string
	if len(a.Institutions) > 0 {
		primaryInstitution = strPtr(a.Institutions[0].DisplayName)
	}
	var primaryCountry *string
	if len(a.Countries) > 0 {
		primaryCountry = strPtr(a.Countries[0])
	}

	return models.Author{
		AuthorID:           authorID,
		DisplayName:        name,
		ORCID:              strPtr(openalex.StripORCIDPrefix(a.Author.ORCID)),
		PrimaryInstitution: primaryInstitution,
		PrimaryCountry:     primaryCountry,
	}
}

// normalizeAuthorship leitet die Verknüpfungszeile aus einer Authorship ab.
func normalizeAuthorship(paperID, authorID string, a openalex.Authorship, sequence int) models.PaperAuthor {
	var institutionNames, institutionIDs []string
	for _, inst := range a.Institutions {
		if inst.DisplayName != "" {
			institutionNames = append(institutionNames, inst.DisplayName)
		}
		if inst.ID != "" {
			institutionIDs = append(institutionIDs, openalex.TrailingID(inst.ID))
		}
	}

	return models.PaperAuthor{
		PaperID:               paperID,
		AuthorID:              authorID,
		AuthorPosition:        strPtr(a.AuthorPosition),
		AuthorSequence:        sequence,
		IsCorresponding:       a.IsCorresponding,
		InstitutionNames:      jsonList(institutionNames),
		InstitutionIDs:        jsonList(institutionIDs),
		Countries:             jsonList(a.Countries),
		RawAffiliationStrings: jsonList(a.RawAffiliationStrings),
	}
}

// hasAIVocabulary prüft das AI-Vokabular gegen Titel, Konzepte und
// Schlagworte. Geprüft wird nur das rohe title-Feld, ohne Fallback auf
// display_name.
func hasAIVocabulary(w *openalex.Work) bool {
	titleLower := strings.ToLower(w.Title)

	conceptsLower := make([]string, 0, len(w.Concepts))
	for _, c := range w.Concepts {
		conceptsLower = append(conceptsLower, strings.ToLower(c.DisplayName))
	}
	keywordsLower := make([]string, 0, len(w.Keywords))
	for _, kw := range w.Keywords {
		keywordsLower = append(keywordsLower, strings.ToLower(kw.DisplayName))
	}

	for _, term := range aiVocabulary {
		if strings.Contains(titleLower, term) {
			return true
		}
		for _, c := range conceptsLower {
			if strings.Contains(c, term) {
				return true
			}
		}
		for _, kw := range keywordsLower {
			if strings.Contains(kw, term) {
				return true
			}
		}
	}
	return false
}

// parseDate akzeptiert leere Strings als fehlend und YYYY-MM-DD als Datum.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// strPtr gibt nil für leere Strings zurück, sonst einen Pointer.
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// jsonList serialisiert eine Stringliste als jsonb, leere Listen als NULL.
func jsonList(values []string) datatypes.JSON {
	if len(values) == 0 {
		return nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
