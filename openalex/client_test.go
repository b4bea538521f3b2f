package openalex

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestFindAIConceptPicksMostCited(t *testing.T) {
	var gotSearch, gotMailto, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/concepts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotSearch = r.URL.Query().Get("search")
		gotMailto = r.URL.Query().Get("mailto")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"results": [
			{"id": "https://openalex.org/C2522767166", "display_name": "Data science", "cited_by_count": 100},
			{"id": "https://openalex.org/C154945302", "display_name": "Artificial intelligence", "cited_by_count": 9000},
			{"id": "https://openalex.org/C119857082", "display_name": "Machine learning", "cited_by_count": 5000}
		]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "ops@example.org", zap.NewNop())
	id, err := client.FindAIConcept(context.Background())
	if err != nil {
		t.Fatalf("FindAIConcept: %v", err)
	}
	if id != "C154945302" {
		t.Errorf("expected C154945302, got %s", id)
	}
	if gotSearch != "artificial intelligence" {
		t.Errorf("expected search query, got %q", gotSearch)
	}
	if gotMailto != "ops@example.org" {
		t.Errorf("expected mailto param, got %q", gotMailto)
	}
	if !strings.Contains(gotUA, "mailto:ops@example.org") {
		t.Errorf("expected polite User-Agent, got %q", gotUA)
	}
}

func TestFindAIConceptNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": []}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())
	if _, err := client.FindAIConcept(context.Background()); err == nil {
		t.Fatal("expected error for empty concept search")
	}
}

func TestFetchRecentWorksFollowsCursor(t *testing.T) {
	var cursors []string
	var filters []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("per-page"); got != "200" {
			t.Errorf("expected per-page=200, got %q", got)
		}
		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)
		filters = append(filters, r.URL.Query().Get("filter"))

		switch cursor {
		case "*":
			fmt.Fprint(w, `{"meta": {"next_cursor": "page2"}, "results": [{"id": "W1"}, {"id": "W2"}]}`)
		case "page2":
			fmt.Fprint(w, `{"meta": {"next_cursor": ""}, "results": [{"id": "W3"}]}`)
		default:
			t.Errorf("unexpected cursor %q", cursor)
			fmt.Fprint(w, `{"meta": {"next_cursor": ""}, "results": []}`)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())
	works, err := client.FetchRecentWorks(context.Background(), "C154945302", 3)
	if err != nil {
		t.Fatalf("FetchRecentWorks: %v", err)
	}

	if len(works) != 3 {
		t.Fatalf("expected 3 works, got %d", len(works))
	}
	if works[0].ID != "W1" || works[2].ID != "W3" {
		t.Errorf("unexpected work order: %v", []string{works[0].ID, works[1].ID, works[2].ID})
	}
	if len(cursors) != 2 || cursors[0] != "*" || cursors[1] != "page2" {
		t.Errorf("unexpected cursor sequence: %v", cursors)
	}
	for _, f := range filters {
		if !strings.HasPrefix(f, "concepts.id:C154945302,from_publication_date:") {
			t.Errorf("unexpected filter %q", f)
		}
		if !strings.Contains(f, ",to_publication_date:") {
			t.Errorf("filter misses date window: %q", f)
		}
	}
}

func TestFetchRecentWorksRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "upstream hiccup", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"meta": {"next_cursor": ""}, "results": [{"id": "W1"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())
	works, err := client.FetchRecentWorks(context.Background(), "C1", 1)
	if err != nil {
		t.Fatalf("FetchRecentWorks after retry: %v", err)
	}
	if len(works) != 1 {
		t.Fatalf("expected 1 work, got %d", len(works))
	}
	if calls != 2 {
		t.Errorf("expected 2 requests (1 failure, 1 retry), got %d", calls)
	}
}

func TestFetchRecentWorksCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "always failing", http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, "", zap.NewNop())
	if _, err := client.FetchRecentWorks(ctx, "C1", 1); err == nil {
		t.Fatal("expected error with cancelled context")
	}
}

func TestSaveSnapshotRoundtrip(t *testing.T) {
	dir := t.TempDir()
	works := []Work{{ID: "W1", Title: "Ein Werk"}, {ID: "W2"}}

	path, err := SaveSnapshot(works, dir)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "ai_papers_") || !strings.HasSuffix(base, ".json") {
		t.Errorf("unexpected snapshot name %q", base)
	}

	loaded, err := LoadWorksFile(path)
	if err != nil {
		t.Fatalf("LoadWorksFile: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != "W1" || loaded[0].Title != "Ein Werk" {
		t.Errorf("roundtrip mismatch: %+v", loaded)
	}
}

func TestLoadWorksFileErrors(t *testing.T) {
	if _, err := LoadWorksFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWorksFile(bad); err == nil {
		t.Error("expected error for malformed file")
	}
}
