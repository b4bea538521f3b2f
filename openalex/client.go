package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// httpClient wird für alle OpenAlex-Anfragen verwendet.
var httpClient = &http.Client{Timeout: 60 * time.Second}

const (
	defaultBaseURL = "https://api.openalex.org"
	perPage        = 200
	maxRetries     = 10
	initialDelay   = time.Second
)

// Client kapselt die Interaktion mit der OpenAlex-API.
type Client struct {
	BaseURL string
	Mailto  string
	Logger  *zap.Logger
}

// NewClient erstellt einen neuen OpenAlex-Client.
func NewClient(baseURL, mailto string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{BaseURL: baseURL, Mailto: mailto, Logger: logger}
}

// userAgent baut den höflichen User-Agent, bei gesetzter Mailadresse mit mailto.
func (c *Client) userAgent() string {
	if c.Mailto != "" {
		return fmt.Sprintf("paper-flow/1.0 (mailto:%s)", c.Mailto)
	}
	return "paper-flow/1.0"
}

// getJSON ruft eine URL ab und dekodiert die JSON-Antwort in out.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("fehler beim Erstellen der Anfrage: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("openalex hat status %d zurückgegeben: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("fehler beim Parsen der OpenAlex-Antwort: %w", err)
	}
	return nil
}

// withRetry wiederholt fn mit exponentiellem Backoff (1s, 2s, 4s, ...).
func (c *Client) withRetry(ctx context.Context, desc string, fn func() error) error {
	delay := initialDelay

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}

		c.Logger.Warn("OpenAlex-Anfrage fehlgeschlagen, versuche erneut",
			zap.String("operation", desc),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Duration("delay", delay),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("alle %d Versuche für %s erschöpft: %w", maxRetries, desc, lastErr)
}

// FindAIConcept sucht das Konzept "artificial intelligence" und gibt die
// nackte ID des Treffers mit den meisten Zitationen zurück.
func (c *Client) FindAIConcept(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("search", "artificial intelligence")
	if c.Mailto != "" {
		q.Set("mailto", c.Mailto)
	}
	searchURL := fmt.Sprintf("%s/concepts?%s", c.BaseURL, q.Encode())

	var resp conceptsResponse
	err := c.withRetry(ctx, "concept search", func() error {
		return c.getJSON(ctx, searchURL, &resp)
	})
	if err != nil {
		return "", fmt.Errorf("fehler bei der Konzeptsuche: %w", err)
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("kein Konzept für 'artificial intelligence' gefunden")
	}

	best := resp.Results[0]
	for _, r := range resp.Results[1:] {
		if r.CitedByCount > best.CitedByCount {
			best = r
		}
	}

	c.Logger.Info("AI-Konzept gefunden",
		zap.String("concept", best.DisplayName),
		zap.String("id", best.ID),
		zap.Int("cited_by_count", best.CitedByCount))

	return TrailingID(best.ID), nil
}

// FetchRecentWorks holt alle Works der letzten daysBack Tage zum gegebenen
// Konzept per Cursor-Paginierung. Die Ergebnisse sind ungefiltert.
func (c *Client) FetchRecentWorks(ctx context.Context, conceptID string, daysBack int) ([]Work, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -daysBack)

	filter := fmt.Sprintf("concepts.id:%s,from_publication_date:%s,to_publication_date:%s",
		conceptID, start.Format("2006-01-02"), end.Format("2006-01-02"))

	c.Logger.Info("Hole Works von OpenAlex",
		zap.String("from", start.Format("2006-01-02")),
		zap.String("to", end.Format("2006-01-02")),
		zap.String("concept_id", conceptID))

	var all []Work
	cursor := "*"
	page := 0

	for cursor != "" {
		q := url.Values{}
		q.Set("filter", filter)
		q.Set("per-page", fmt.Sprintf("%d", perPage))
		q.Set("cursor", cursor)
		if c.Mailto != "" {
			q.Set("mailto", c.Mailto)
		}
		pageURL := fmt.Sprintf("%s/works?%s", c.BaseURL, q.Encode())

		var resp worksResponse
		err := c.withRetry(ctx, "works page", func() error {
			resp = worksResponse{}
			return c.getJSON(ctx, pageURL, &resp)
		})
		if err != nil {
			return nil, fmt.Errorf("fehler beim Abrufen der Works: %w", err)
		}

		if len(resp.Results) == 0 {
			break
		}

		page++
		all = append(all, resp.Results...)
		c.Logger.Info("Seite geladen",
			zap.Int("page", page),
			zap.Int("results", len(resp.Results)),
			zap.Int("total", len(all)))

		cursor = resp.Meta.NextCursor
	}

	c.Logger.Info("Alle Works geladen", zap.Int("count", len(all)))
	return all, nil
}

// SaveSnapshot schreibt die Works als eingerücktes JSON in eine Datei mit
// Zeitstempel im Namen und gibt den Pfad zurück.
func SaveSnapshot(works []Work, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("fehler beim Anlegen des Ausgabeverzeichnisses: %w", err)
	}

	name := fmt.Sprintf("ai_papers_%s.json", time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(outputDir, name)

	data, err := json.MarshalIndent(works, "", "  ")
	if err != nil {
		return "", fmt.Errorf("fehler beim Serialisieren der Works: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("fehler beim Schreiben der Snapshot-Datei: %w", err)
	}

	return path, nil
}

// LoadWorksFile liest ein JSON-Array von Work-Dokumenten aus einer Datei.
func LoadWorksFile(path string) ([]Work, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fehler beim Lesen der Eingabedatei: %w", err)
	}

	var works []Work
	if err := json.Unmarshal(data, &works); err != nil {
		return nil, fmt.Errorf("fehler beim Parsen der Eingabedatei: %w", err)
	}
	return works, nil
}
