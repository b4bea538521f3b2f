package providers

import (
	"context"
	"fmt"

	"paper-flow/openalex"

	"go.uber.org/zap"
)

// OpenAlexProvider holt aktuelle Werke live von OpenAlex und behält nur die
// KI-relevanten.
type OpenAlexProvider struct {
	Client   *openalex.Client
	DaysBack int
	MinScore float64
	Logger   *zap.Logger
}

// Name gibt den Namen der Quelle zurück.
func (p *OpenAlexProvider) Name() string {
	return "openalex"
}

// FetchWorks sucht zuerst das KI-Konzept, lädt dann alle Werke des
// Zeitfensters und filtert sie nach Relevanz.
func (p *OpenAlexProvider) FetchWorks(ctx context.Context) ([]openalex.Work, error) {
	p.Logger.Info("Suche KI-Konzept")
	conceptID, err := p.Client.FindAIConcept(ctx)
	if err != nil {
		return nil, fmt.Errorf("ki-konzept nicht gefunden: %w", err)
	}
	p.Logger.Info("KI-Konzept gefunden", zap.String("concept_id", conceptID))

	works, err := p.Client.FetchRecentWorks(ctx, conceptID, p.DaysBack)
	if err != nil {
		return nil, err
	}

	kept := openalex.FilterRelevant(works, p.MinScore)
	p.Logger.Info("Relevanzfilter angewendet",
		zap.Int("fetched", len(works)),
		zap.Int("kept", len(kept)),
		zap.Float64("min_score", p.MinScore))
	return kept, nil
}
