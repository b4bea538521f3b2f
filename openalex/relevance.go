package openalex

import (
	"sort"
	"strings"
)

// Gewichtete Begriffe für den kontinuierlichen Relevanz-Score.
var (
	relatedKeywordTerms = []string{
		"machine learning",
		"deep learning",
		"neural network",
		"computer vision",
		"natural language",
		"reinforcement learning",
	}
	relatedConceptTerms = []string{
		"machine learning",
		"deep learning",
		"neural network",
	}
	aiFieldTerms = []string{"artificial intelligence", "ai"}
)

// RelevanceScore berechnet den kontinuierlichen AI-Relevanz-Score eines
// Works aus Keywords, Konzepten und Topic-Zuordnung. Die Teilwerte werden
// per Maximum aggregiert und bei 1.0 gedeckelt.
func RelevanceScore(w *Work) float64 {
	score := 0.0

	for _, kw := range w.Keywords {
		name := strings.ToLower(kw.DisplayName)
		switch {
		case strings.Contains(name, "artificial intelligence") || name == "ai":
			// Doppeltes Gewicht für direkte AI-Schlagworte
			score = max(score, kw.Score*2.0)
		case containsAny(name, relatedKeywordTerms):
			score = max(score, kw.Score*1.5)
		}
	}

	for _, c := range w.Concepts {
		name := strings.ToLower(c.DisplayName)
		switch {
		case strings.Contains(name, "artificial intelligence"):
			score = max(score, c.Score*2.0)
		case containsAny(name, relatedConceptTerms):
			score = max(score, c.Score*1.5)
		}
	}

	if w.PrimaryTopic != nil {
		field := strings.ToLower(w.PrimaryTopic.Field.DisplayName)
		subfield := strings.ToLower(w.PrimaryTopic.Subfield.DisplayName)
		switch {
		case strings.Contains(field, "artificial intelligence") || strings.Contains(subfield, "artificial intelligence"):
			score = max(score, 0.9)
		case strings.Contains(field, "computer science"):
			score = max(score, 0.5)
		}
	}

	for _, t := range w.Topics {
		field := strings.ToLower(t.Field.DisplayName)
		subfield := strings.ToLower(t.Subfield.DisplayName)
		switch {
		case strings.Contains(field, "artificial intelligence") || strings.Contains(subfield, "artificial intelligence"):
			score = max(score, t.Score*0.8)
		case strings.Contains(field, "computer science"):
			score = max(score, t.Score*0.4)
		}
	}

	return min(score, 1.0)
}

// HasAIFieldOrSubfield prüft, ob ein Work "Artificial Intelligence" als
// Field oder Subfield trägt (Primary Topic oder beliebiges Topic).
func HasAIFieldOrSubfield(w *Work) bool {
	if w.PrimaryTopic != nil && topicLevelMatches(*w.PrimaryTopic) {
		return true
	}
	for _, t := range w.Topics {
		if topicLevelMatches(t) {
			return true
		}
	}
	return false
}

func topicLevelMatches(t Topic) bool {
	field := strings.ToLower(t.Field.DisplayName)
	subfield := strings.ToLower(t.Subfield.DisplayName)
	return containsAny(field, aiFieldTerms) || containsAny(subfield, aiFieldTerms)
}

// IsRelevant akzeptiert ein Work bei hohem Score ODER AI-Field/Subfield.
func IsRelevant(w *Work, minScore float64) bool {
	return RelevanceScore(w) >= minScore || HasAIFieldOrSubfield(w)
}

// FilterRelevant behält nur relevante Works und sortiert sie absteigend
// nach Score.
func FilterRelevant(works []Work, minScore float64) []Work {
	type scored struct {
		work  Work
		score float64
	}

	var kept []scored
	for _, w := range works {
		s := RelevanceScore(&w)
		if s >= minScore || HasAIFieldOrSubfield(&w) {
			kept = append(kept, scored{work: w, score: s})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	out := make([]Work, 0, len(kept))
	for _, k := range kept {
		out = append(out, k.work)
	}
	return out
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
