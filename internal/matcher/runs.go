package matcher

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateMatchRun records a new deduplication run and returns its id. Block
// keys and listing tokens are scoped to a run so reruns never mix artifacts.
func CreateMatchRun(ctx context.Context, pool *pgxpool.Pool, description string) (int, error) {
	var runID int
	err := pool.QueryRow(ctx,
		"INSERT INTO match_runs (description) VALUES ($1) RETURNING run_id", description).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("creating match run: %w", err)
	}
	return runID, nil
}

// ClearRunArtifacts deletes derived data for a run before a rebuild.
func ClearRunArtifacts(ctx context.Context, pool *pgxpool.Pool, runID int) error {
	tables := []string{"property_keys", "listing_tokens", "tokens_idf"}
	for _, table := range tables {
		query := fmt.Sprintf("DELETE FROM %s WHERE run_id = $1", table)
		if _, err := pool.Exec(ctx, query, runID); err != nil {
			return fmt.Errorf("clearing %s for run %d: %w", table, runID, err)
		}
	}
	return nil
}
