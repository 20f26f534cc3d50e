// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/TFMV/DupeFinder/internal/matcher"
)

const propertyColumns = `id, address, coalesce(postcode_area, ''), latitude, longitude,
	monthly_income, coalesce(advertiser_name, ''), created_at`

// Repository provides access to the stored property pool.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *zap.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

// CandidatesByPostcodeArea fetches the candidate pool for a postcode area.
// The area prefilter keeps the pairwise scoring pass bounded: listings in
// different postcode areas are never duplicate candidates.
func (r *Repository) CandidatesByPostcodeArea(ctx context.Context, area string) ([]matcher.PropertyRecord, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+propertyColumns+" FROM properties WHERE postcode_area = $1", area)
	if err != nil {
		return nil, fmt.Errorf("querying candidates for area %q: %w", area, err)
	}
	return scanProperties(rows)
}

// CandidatesByBlockKey fetches properties sharing a block key in the most
// recent key-generation run. Prefilter for listings with no parseable
// postcode.
func (r *Repository) CandidatesByBlockKey(ctx context.Context, blockKey string) ([]matcher.PropertyRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.address, coalesce(p.postcode_area, ''), p.latitude, p.longitude,
			p.monthly_income, coalesce(p.advertiser_name, ''), p.created_at
		 FROM properties p
		 JOIN property_keys k ON k.property_id = p.id
		 WHERE k.block_key = $1 AND k.run_id = (SELECT coalesce(max(id), 0) FROM match_runs)`,
		blockKey)
	if err != nil {
		return nil, fmt.Errorf("querying candidates for block key %s: %w", blockKey, err)
	}
	return scanProperties(rows)
}

// tokenCandidateLimit caps the token-overlap pool so a listing full of
// common tokens cannot pull in most of the table.
const tokenCandidateLimit = 200

// TokenCandidates ranks stored properties by IDF-weighted overlap between
// the given address tokens and the latest run's listing tokens. The IDF
// weight keeps ubiquitous tokens ("street", "road") from dominating.
func (r *Repository) TokenCandidates(ctx context.Context, tokens []string) ([]matcher.PropertyRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.address, coalesce(p.postcode_area, ''), p.latitude, p.longitude,
			p.monthly_income, coalesce(p.advertiser_name, ''), p.created_at
		 FROM properties p
		 JOIN listing_tokens lt ON lt.property_id = p.id
		 JOIN tokens_idf t ON t.ngram_token = lt.ngram_token AND t.run_id = lt.run_id
		 WHERE lt.entity_type_id = $1
		   AND lt.ngram_token = ANY($2)
		   AND lt.run_id = (SELECT coalesce(max(id), 0) FROM match_runs)
		 GROUP BY p.id
		 ORDER BY sum(t.ngram_idf * lt.ngram_frequency) DESC
		 LIMIT $3`,
		matcher.EntityTypeAddress, tokens, tokenCandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("querying token candidates: %w", err)
	}
	return scanProperties(rows)
}

// ReferenceAddresses exposes the block-key reference set to callers that
// assemble candidate pools.
func (r *Repository) ReferenceAddresses(ctx context.Context) ([]string, error) {
	return matcher.LoadReferenceAddresses(ctx, r.pool)
}

// AllProperties fetches the whole pool. Last-resort prefilter for listings
// with neither a postcode nor a block key.
func (r *Repository) AllProperties(ctx context.Context) ([]matcher.PropertyRecord, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+propertyColumns+" FROM properties")
	if err != nil {
		return nil, fmt.Errorf("querying all properties: %w", err)
	}
	return scanProperties(rows)
}

// InsertProperty stores a property, assigning an id when the record has
// none, and returns the id.
func (r *Repository) InsertProperty(ctx context.Context, p matcher.PropertyRecord) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PostcodeArea == "" {
		p.PostcodeArea = matcher.PostcodeArea(p.Address)
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO properties (id, address, postcode_area, latitude, longitude, monthly_income, advertiser_name)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''))`,
		p.ID, p.Address, p.PostcodeArea, p.Latitude, p.Longitude, p.MonthlyIncome, p.AdvertiserName)
	if err != nil {
		return "", fmt.Errorf("inserting property: %w", err)
	}
	r.logger.Debug("property stored", zap.String("id", p.ID), zap.String("postcode_area", p.PostcodeArea))
	return p.ID, nil
}

func scanProperties(rows pgx.Rows) ([]matcher.PropertyRecord, error) {
	defer rows.Close()

	var props []matcher.PropertyRecord
	for rows.Next() {
		var p matcher.PropertyRecord
		if err := rows.Scan(&p.ID, &p.Address, &p.PostcodeArea, &p.Latitude, &p.Longitude,
			&p.MonthlyIncome, &p.AdvertiserName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning property row: %w", err)
		}
		props = append(props, p)
	}
	return props, rows.Err()
}
