package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ScoreUpdate carries every field written by one scoring pass.
type ScoreUpdate struct {
	LeadScore              int
	AcquisitionProbability int
	AcquisitionConfidence  string
	UrgencyLevel           string
	DistressIndicators     []string
	SuccessLikelihood      int
	ScoredAt               time.Time
}

// OffMarketUpdate carries the off-market analysis for one property.
// Analysis is stored as an opaque JSON document.
type OffMarketUpdate struct {
	Score      int
	Analysis   any
	AnalyzedAt time.Time
}

// SaveScore writes the score fields and bumps score_version, but only when the row
// still carries expectedVersion. Urgency is written in the same statement as the score.
func (r *Repository) SaveScore(ctx context.Context, id int64, expectedVersion int64, update ScoreUpdate) error {
	indicators := update.DistressIndicators
	if indicators == nil {
		indicators = []string{}
	}
	indicatorsJSON, err := json.Marshal(indicators)
	if err != nil {
		return fmt.Errorf("marshal distress indicators: %w", err)
	}

	query := `
		UPDATE properties SET
			lead_score = $3,
			acquisition_probability = $4,
			acquisition_confidence = $5,
			urgency_level = $6,
			distress_indicators = $7,
			success_likelihood = $8,
			scored_at = $9,
			score_version = score_version + 1
		WHERE id = $1 AND score_version = $2`

	tag, err := r.pool.Exec(ctx, query,
		id, expectedVersion,
		update.LeadScore,
		update.AcquisitionProbability,
		update.AcquisitionConfidence,
		update.UrgencyLevel,
		indicatorsJSON,
		update.SuccessLikelihood,
		update.ScoredAt,
	)
	if err != nil {
		return fmt.Errorf("save score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

// SaveOffMarketAnalysis stores the off-market score and its analysis document.
func (r *Repository) SaveOffMarketAnalysis(ctx context.Context, id int64, update OffMarketUpdate) error {
	analysisJSON, err := json.Marshal(update.Analysis)
	if err != nil {
		return fmt.Errorf("marshal off-market analysis: %w", err)
	}

	query := `
		UPDATE properties SET
			off_market_score = $2,
			off_market_analysis = $3,
			off_market_analyzed_at = $4
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id, update.Score, analysisJSON, update.AnalyzedAt); err != nil {
		return fmt.Errorf("save off-market analysis: %w", err)
	}
	return nil
}
