package repository

import (
	"context"
	"fmt"
	"time"
)

// LeadOutcome records the result of working a scored lead.
type LeadOutcome struct {
	ID               int64
	PropertyID       int64
	Outcome          string
	AcquisitionPrice *int64
	Notes            string
	RecordedAt       time.Time
}

type InsertOutcomeParams struct {
	PropertyID       int64
	Outcome          string
	AcquisitionPrice *int64
	Notes            string
}

// InsertOutcome appends an outcome row for a property.
func (r *Repository) InsertOutcome(ctx context.Context, params InsertOutcomeParams) (LeadOutcome, error) {
	query := `
		INSERT INTO lead_outcomes (property_id, outcome, acquisition_price, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, property_id, outcome, acquisition_price, notes, recorded_at`

	var o LeadOutcome
	err := r.pool.QueryRow(ctx, query, params.PropertyID, params.Outcome, params.AcquisitionPrice, params.Notes).Scan(
		&o.ID, &o.PropertyID, &o.Outcome, &o.AcquisitionPrice, &o.Notes, &o.RecordedAt,
	)
	if err != nil {
		return LeadOutcome{}, fmt.Errorf("insert outcome: %w", err)
	}
	return o, nil
}

// OutcomeCounts returns the number of recorded outcomes per outcome value.
func (r *Repository) OutcomeCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT outcome, COUNT(*) FROM lead_outcomes GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("scan outcome count: %w", err)
		}
		counts[outcome] = count
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return counts, nil
}
