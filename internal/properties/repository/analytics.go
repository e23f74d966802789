package repository

import (
	"context"
	"fmt"
)

// ScoringStats aggregates the current score columns.
type ScoringStats struct {
	TotalScored          int
	AvgScore             float64
	HighScoreCount       int
	CriticalUrgencyCount int
}

// ScoringStats returns aggregates over every scored property.
func (r *Repository) ScoringStats(ctx context.Context) (ScoringStats, error) {
	var stats ScoringStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) AS total_scored,
			COALESCE(AVG(lead_score), 0)::float8 AS avg_score,
			COUNT(*) FILTER (WHERE lead_score >= 80) AS high_score_count,
			COUNT(*) FILTER (WHERE urgency_level = 'critical') AS critical_urgency_count
		FROM properties
		WHERE lead_score IS NOT NULL
	`).Scan(
		&stats.TotalScored,
		&stats.AvgScore,
		&stats.HighScoreCount,
		&stats.CriticalUrgencyCount,
	)
	if err != nil {
		return ScoringStats{}, fmt.Errorf("scoring stats: %w", err)
	}
	return stats, nil
}
