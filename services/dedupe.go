package services

import (
	"paper-flow/models"
)

// DedupeAuthors entfernt doppelte Autoren innerhalb eines Batches. Bei
// mehrfach auftretender author_id gewinnt das zuletzt gesehene Exemplar,
// die Position des ersten Auftretens bleibt erhalten.
func DedupeAuthors(authors []models.Author) []models.Author {
	if len(authors) < 2 {
		return authors
	}

	out := make([]models.Author, 0, len(authors))
	index := make(map[string]int, len(authors))
	for _, a := range authors {
		if i, seen := index[a.AuthorID]; seen {
			out[i] = a
			continue
		}
		index[a.AuthorID] = len(out)
		out = append(out, a)
	}
	return out
}

// DedupeAuthorships entfernt doppelte Verknüpfungen innerhalb eines Batches.
// Bei mehrfach auftretendem Paar (paper_id, author_id) gewinnt das zuerst
// gesehene Exemplar. Die Anzahl verworfener Duplikate wird mitgezählt.
func DedupeAuthorships(links []models.PaperAuthor) ([]models.PaperAuthor, int) {
	if len(links) < 2 {
		return links, 0
	}

	type key struct {
		paperID  string
		authorID string
	}

	out := make([]models.PaperAuthor, 0, len(links))
	seen := make(map[key]struct{}, len(links))
	removed := 0
	for _, l := range links {
		k := key{paperID: l.PaperID, authorID: l.AuthorID}
		if _, dup := seen[k]; dup {
			removed++
			continue
		}
		seen[k] = struct{}{}
		out = append(out, l)
	}
	return out, removed
}
