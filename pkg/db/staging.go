package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/TFMV/DupeFinder/internal/matcher"
)

// StagedListings reads the rows a CSV upload copied into the staging table.
// Staging columns are text; numeric fields are cast here so a blank cell
// becomes an absent factor, not a zero.
func (r *Repository) StagedListings(ctx context.Context, table string) ([]matcher.MatchRequest, error) {
	query := fmt.Sprintf(
		`SELECT address, NULLIF(latitude, '')::float8, NULLIF(longitude, '')::float8,
			NULLIF(monthly_income, '')::float8, coalesce(advertiser_name, '')
		 FROM %s`, pgx.Identifier{table}.Sanitize())

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reading staged listings from %s: %w", table, err)
	}
	defer rows.Close()

	var listings []matcher.MatchRequest
	for rows.Next() {
		var l matcher.MatchRequest
		if err := rows.Scan(&l.Address, &l.Latitude, &l.Longitude, &l.MonthlyIncome, &l.AdvertiserName); err != nil {
			return nil, fmt.Errorf("scanning staged listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// CreateRun records a new match run and returns its id.
func (r *Repository) CreateRun(ctx context.Context, description string) (int, error) {
	return matcher.CreateMatchRun(ctx, r.pool, description)
}

// StageCSV copies an uploaded CSV into the staging table.
func (r *Repository) StageCSV(ctx context.Context, csvPath, table string) (int64, error) {
	return LoadCSV(ctx, r.pool, csvPath, table)
}

// TruncateStaging empties the staging table between batch uploads.
func (r *Repository) TruncateStaging(ctx context.Context, table string) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE "+pgx.Identifier{table}.Sanitize())
	if err != nil {
		return fmt.Errorf("truncating %s: %w", table, err)
	}
	return nil
}
