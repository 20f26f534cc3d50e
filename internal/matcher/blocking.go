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

package matcher

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	blockKeyLength        = 10
	blockKeyMinSimilarity = 0.1
)

// LoadReferenceAddresses loads the reference address set used to derive
// block keys. Order matters: each reference contributes one bit position.
func LoadReferenceAddresses(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	rows, err := pool.Query(ctx, "SELECT address FROM reference_addresses ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("loading reference addresses: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scanning reference address: %w", err)
		}
		refs = append(refs, addr)
	}
	return refs, rows.Err()
}

// CalculateBlockKey derives a fixed-width binary key for an address: one bit
// per reference address, set when the bigram frequency similarity clears the
// threshold. Addresses sharing a key land in the same candidate block.
func CalculateBlockKey(referenceAddresses []string, address string) string {
	var key strings.Builder
	for _, ref := range referenceAddresses {
		if key.Len() >= blockKeyLength {
			break
		}
		if ngramFrequencySimilarity(address, ref, ngramSize) >= blockKeyMinSimilarity {
			key.WriteByte('1')
		} else {
			key.WriteByte('0')
		}
	}
	for key.Len() < blockKeyLength {
		key.WriteByte('0')
	}
	return key.String()
}

type keyed struct {
	propertyID string
	blockKey   string
}

// drainKeyBatches consumes every result from resultCh, flushing in batches.
// After a flush failure it keeps draining so the upstream workers never
// block on a full channel; the first error wins.
func drainKeyBatches(resultCh <-chan keyed, batchSize int, flush func([]keyed) error) error {
	batch := make([]keyed, 0, batchSize)
	var firstErr error
	for r := range resultCh {
		if firstErr != nil {
			continue
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			firstErr = flush(batch)
			batch = batch[:0]
		}
	}
	if firstErr == nil && len(batch) > 0 {
		firstErr = flush(batch)
	}
	return firstErr
}

// ProcessPropertyAddresses computes block keys for every property in a run
// and stores them in property_keys. Standardization and key derivation fan
// out across workers; inserts are batched.
func ProcessPropertyAddresses(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger, referenceAddresses []string, numWorkers, runID int) error {
	rows, err := pool.Query(ctx, "SELECT id, address FROM properties WHERE run_id = $1", runID)
	if err != nil {
		return fmt.Errorf("querying properties for run %d: %w", runID, err)
	}
	defer rows.Close()

	addressCh := make(chan PropertyRecord, 1000)
	resultCh := make(chan keyed, 1000)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range addressCh {
				std := StandardizeAddress(p.Address)
				if std == "" {
					continue
				}
				resultCh <- keyed{propertyID: p.ID, blockKey: CalculateBlockKey(referenceAddresses, std)}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		flush := func(batch []keyed) error {
			ids := make([]string, len(batch))
			keys := make([]string, len(batch))
			for i, r := range batch {
				ids[i] = r.propertyID
				keys[i] = r.blockKey
			}
			logger.Debug("inserting block key batch", zap.Int("size", len(batch)), zap.Int("run_id", runID))
			_, err := pool.Exec(ctx,
				"INSERT INTO property_keys (property_id, block_key, run_id) SELECT UNNEST($1::uuid[]), UNNEST($2::text[]), $3",
				ids, keys, runID)
			if err != nil {
				return fmt.Errorf("inserting property keys: %w", err)
			}
			return nil
		}
		errCh <- drainKeyBatches(resultCh, 1000, flush)
	}()

	var scanErr error
	for rows.Next() {
		var p PropertyRecord
		if err := rows.Scan(&p.ID, &p.Address); err != nil {
			scanErr = fmt.Errorf("scanning property row: %w", err)
			break
		}
		addressCh <- p
	}
	close(addressCh)
	wg.Wait()
	close(resultCh)
	insertErr := <-errCh

	if scanErr != nil {
		return scanErr
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return insertErr
}
