// Package repository provides PostgreSQL access to property listings and their
// scoring output.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadscore_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrVersionConflict is returned when a score write lost an optimistic version race.
var ErrVersionConflict = errors.New("property score version changed")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Property is a stored listing. Nullable columns map to pointers.
type Property struct {
	ID             int64
	Address        string
	Zip            *string
	PropertyType   string
	Units          *int
	Sqft           *int
	LotSize        *int
	Price          *int64
	Zoning         *string
	DistressStatus *string
	Details        *string
	Tenure         *string
	OwnerName      *string
	OwnerContact   *string
	Source         string
	CreatedAt      time.Time

	LeadScore    *int
	UrgencyLevel *string
	ScoredAt     *time.Time
	ScoreVersion int64
}

// ListingAgeDays returns how long ago the property was created. A zero timestamp
// reports ok=false so age rules are skipped.
func (p Property) ListingAgeDays(now time.Time) (float64, bool) {
	if p.CreatedAt.IsZero() {
		return 0, false
	}
	return now.Sub(p.CreatedAt).Hours() / 24, true
}

// StringValue returns the value of a nullable text column, or "" for NULL.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const propertyColumns = `
	id, address, zip, property_type, units, sqft, lot_size, price, zoning,
	distress_status, details, tenure, owner_name, owner_contact, source, created_at,
	lead_score, urgency_level, scored_at, score_version`

func scanProperty(row pgx.Row) (Property, error) {
	var p Property
	err := row.Scan(
		&p.ID, &p.Address, &p.Zip, &p.PropertyType, &p.Units, &p.Sqft, &p.LotSize, &p.Price, &p.Zoning,
		&p.DistressStatus, &p.Details, &p.Tenure, &p.OwnerName, &p.OwnerContact, &p.Source, &p.CreatedAt,
		&p.LeadScore, &p.UrgencyLevel, &p.ScoredAt, &p.ScoreVersion,
	)
	return p, err
}

func collectProperties(rows pgx.Rows) ([]Property, error) {
	defer rows.Close()

	items := make([]Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// GetByID loads a single property.
func (r *Repository) GetByID(ctx context.Context, id int64) (Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`

	p, err := scanProperty(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, apperr.NotFound("property not found")
	}
	if err != nil {
		return Property{}, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

// ListRecent returns properties created at or after since, newest first.
func (r *Repository) ListRecent(ctx context.Context, since time.Time) ([]Property, error) {
	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE created_at >= $1
		ORDER BY created_at DESC, id ASC`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list recent properties: %w", err)
	}
	items, err := collectProperties(rows)
	if err != nil {
		return nil, fmt.Errorf("scan recent properties: %w", err)
	}
	return items, nil
}

// ListOffMarketCandidates returns up to limit recent properties, cheapest first.
// Unpriced listings sort last.
func (r *Repository) ListOffMarketCandidates(ctx context.Context, since time.Time, limit int) ([]Property, error) {
	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE created_at >= $1
		ORDER BY price ASC NULLS LAST, created_at DESC, id ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list off-market candidates: %w", err)
	}
	items, err := collectProperties(rows)
	if err != nil {
		return nil, fmt.Errorf("scan off-market candidates: %w", err)
	}
	return items, nil
}

// ListUnscored pages through properties that have never been scored, by id.
func (r *Repository) ListUnscored(ctx context.Context, afterID int64, limit int) ([]Property, error) {
	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE scored_at IS NULL AND id > $1
		ORDER BY id ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list unscored properties: %w", err)
	}
	items, err := collectProperties(rows)
	if err != nil {
		return nil, fmt.Errorf("scan unscored properties: %w", err)
	}
	return items, nil
}
