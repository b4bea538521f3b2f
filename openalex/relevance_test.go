package openalex

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRelevanceScoreKeywords(t *testing.T) {
	tests := []struct {
		name string
		work Work
		want float64
	}{
		{
			name: "ai keyword doubled",
			work: Work{Keywords: []Keyword{{DisplayName: "Artificial Intelligence", Score: 0.45}}},
			want: 0.9,
		},
		{
			name: "bare ai keyword doubled",
			work: Work{Keywords: []Keyword{{DisplayName: "AI", Score: 0.3}}},
			want: 0.6,
		},
		{
			name: "related keyword gets factor 1.5",
			work: Work{Keywords: []Keyword{{DisplayName: "Deep Learning", Score: 0.5}}},
			want: 0.75,
		},
		{
			name: "related keyword matched as substring",
			work: Work{Keywords: []Keyword{{DisplayName: "Natural Language Processing", Score: 0.4}}},
			want: 0.6,
		},
		{
			name: "unrelated keyword ignored",
			work: Work{Keywords: []Keyword{{DisplayName: "Organic Chemistry", Score: 0.99}}},
			want: 0,
		},
		{
			name: "maximum wins over weaker match",
			work: Work{Keywords: []Keyword{
				{DisplayName: "Deep Learning", Score: 0.4},
				{DisplayName: "Artificial Intelligence", Score: 0.45},
			}},
			want: 0.9,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelevanceScore(&tt.work); !almostEqual(got, tt.want) {
				t.Errorf("RelevanceScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRelevanceScoreConceptsAndTopics(t *testing.T) {
	tests := []struct {
		name string
		work Work
		want float64
	}{
		{
			name: "ai concept doubled and capped at 1.0",
			work: Work{Concepts: []Concept{{DisplayName: "Artificial intelligence", Score: 0.6}}},
			want: 1.0,
		},
		{
			name: "related concept gets factor 1.5",
			work: Work{Concepts: []Concept{{DisplayName: "Neural network", Score: 0.4}}},
			want: 0.6,
		},
		{
			name: "ai primary topic floors at 0.9",
			work: Work{PrimaryTopic: &Topic{
				Score:    0.01,
				Subfield: TopicLevel{DisplayName: "Artificial Intelligence"},
			}},
			want: 0.9,
		},
		{
			name: "cs primary topic floors at 0.5",
			work: Work{PrimaryTopic: &Topic{
				Field: TopicLevel{DisplayName: "Computer Science"},
			}},
			want: 0.5,
		},
		{
			name: "secondary ai topic weighted 0.8",
			work: Work{Topics: []Topic{{
				Score: 0.8,
				Field: TopicLevel{DisplayName: "Artificial Intelligence"},
			}}},
			want: 0.64,
		},
		{
			name: "secondary cs topic weighted 0.4",
			work: Work{Topics: []Topic{{
				Score: 0.5,
				Field: TopicLevel{DisplayName: "Computer Science"},
			}}},
			want: 0.2,
		},
		{
			name: "empty work scores zero",
			work: Work{},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelevanceScore(&tt.work); !almostEqual(got, tt.want) {
				t.Errorf("RelevanceScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasAIFieldOrSubfield(t *testing.T) {
	tests := []struct {
		name string
		work Work
		want bool
	}{
		{
			name: "primary topic subfield",
			work: Work{PrimaryTopic: &Topic{Subfield: TopicLevel{DisplayName: "Artificial Intelligence"}}},
			want: true,
		},
		{
			name: "secondary topic field",
			work: Work{Topics: []Topic{{Field: TopicLevel{DisplayName: "Artificial Intelligence"}}}},
			want: true,
		},
		{
			// "ai" wird als Teilstring gesucht und trifft auch "Pain".
			name: "loose substring match",
			work: Work{Topics: []Topic{{Subfield: TopicLevel{DisplayName: "Pain Medicine"}}}},
			want: true,
		},
		{
			name: "unrelated field",
			work: Work{PrimaryTopic: &Topic{Field: TopicLevel{DisplayName: "History"}}},
			want: false,
		},
		{
			name: "no topics",
			work: Work{},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAIFieldOrSubfield(&tt.work); got != tt.want {
				t.Errorf("HasAIFieldOrSubfield = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRelevant(t *testing.T) {
	highScore := Work{Keywords: []Keyword{{DisplayName: "Deep Learning", Score: 0.5}}}
	if !IsRelevant(&highScore, 0.7) {
		t.Error("work with score 0.75 should be relevant at threshold 0.7")
	}

	lowScoreWithField := Work{
		Keywords:     []Keyword{{DisplayName: "Medicine", Score: 0.2}},
		PrimaryTopic: &Topic{Subfield: TopicLevel{DisplayName: "Artificial Intelligence"}},
	}
	if !IsRelevant(&lowScoreWithField, 0.7) {
		t.Error("work with AI subfield should be relevant regardless of score")
	}

	irrelevant := Work{Keywords: []Keyword{{DisplayName: "Medicine", Score: 0.2}}}
	if IsRelevant(&irrelevant, 0.7) {
		t.Error("work without score or AI field should not be relevant")
	}
}

func TestFilterRelevantSortsByScore(t *testing.T) {
	works := []Work{
		{ID: "W1", Keywords: []Keyword{{DisplayName: "Artificial Intelligence", Score: 0.45}}}, // 0.9
		{ID: "W2", Topics: []Topic{{Score: 0.5, Field: TopicLevel{DisplayName: "Computer Science"}}}}, // 0.2, raus
		{ID: "W3", Concepts: []Concept{{DisplayName: "Artificial intelligence", Score: 0.6}}}, // 1.0
		{ID: "W4", PrimaryTopic: &Topic{Subfield: TopicLevel{DisplayName: "Artificial Intelligence"}}}, // 0.9 via Floor
	}

	kept := FilterRelevant(works, 0.7)
	if len(kept) != 3 {
		t.Fatalf("expected 3 works kept, got %d", len(kept))
	}
	if kept[0].ID != "W3" {
		t.Errorf("expected W3 first (score 1.0), got %s", kept[0].ID)
	}
	// W1 und W4 haben beide 0.9, die Eingabereihenfolge bleibt erhalten.
	if kept[1].ID != "W1" || kept[2].ID != "W4" {
		t.Errorf("expected stable order W1, W4, got %s, %s", kept[1].ID, kept[2].ID)
	}
}

func TestFilterRelevantEmptyInput(t *testing.T) {
	if kept := FilterRelevant(nil, 0.7); len(kept) != 0 {
		t.Errorf("expected no works, got %d", len(kept))
	}
}
