package repository

import (
	"context"
	"time"
)

// PropertyReader provides read-only access to property records.
type PropertyReader interface {
	GetByID(ctx context.Context, id int64) (Property, error)
	ListRecent(ctx context.Context, since time.Time) ([]Property, error)
	ListOffMarketCandidates(ctx context.Context, since time.Time, limit int) ([]Property, error)
	ListUnscored(ctx context.Context, afterID int64, limit int) ([]Property, error)
}

// ScoreWriter persists scoring output.
type ScoreWriter interface {
	SaveScore(ctx context.Context, id int64, expectedVersion int64, update ScoreUpdate) error
	SaveOffMarketAnalysis(ctx context.Context, id int64, update OffMarketUpdate) error
}

// OutcomeStore records and aggregates what happened to a lead after contact.
type OutcomeStore interface {
	InsertOutcome(ctx context.Context, params InsertOutcomeParams) (LeadOutcome, error)
	OutcomeCounts(ctx context.Context) (map[string]int, error)
}

// AnalyticsReader exposes scoring aggregates.
type AnalyticsReader interface {
	ScoringStats(ctx context.Context) (ScoringStats, error)
}

// Store is the full repository surface used by the lead scoring service.
type Store interface {
	PropertyReader
	ScoreWriter
	OutcomeStore
	AnalyticsReader
}

var _ Store = (*Repository)(nil)
