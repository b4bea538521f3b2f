package providers

import (
	"context"

	"paper-flow/openalex"
)

// Provider ist das Interface, das jede Werk-Quelle der Pipeline implementieren muss.
type Provider interface {
	// FetchWorks liefert die Rohdokumente, die ein Lauf verarbeiten soll.
	FetchWorks(ctx context.Context) ([]openalex.Work, error)

	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "openalex").
	Name() string
}
