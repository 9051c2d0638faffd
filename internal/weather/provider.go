package weather

import (
	"context"
)

// Source abstracts the external weather provider. Fetch returns a normalized
// Observation (Celsius) or an error wrapping ErrLocationNotFound or ErrTransient.
type Source interface {
	Name() string
	Fetch(ctx context.Context, location string) (Observation, error)
}

// Store is the contract the observation stores (memory, sqlite, postgres) satisfy.
// Reads of absent data return store.ErrNotFound.
type Store interface {
	InsertObservation(ctx context.Context, obs Observation) error
	// ListObservations returns every stored observation for location in insertion order.
	ListObservations(ctx context.Context, location string) ([]Observation, error)
	LatestObservation(ctx context.Context, location string) (Observation, error)

	// UpsertDailySummary replaces any summary already stored for (Location, Date).
	UpsertDailySummary(ctx context.Context, summary DailySummary) error
	LatestDailySummary(ctx context.Context, location string) (DailySummary, error)
}
