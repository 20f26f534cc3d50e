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
	"math"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdkato/prose/v2"
)

// Entity types shared by token generation and the token-overlap candidate
// lookup in the repository.
const (
	EntityTypeAddress    = 1
	EntityTypeAdvertiser = 2
)

type propertyToken struct {
	PropertyID string
	EntityType int
	Token      string
	Frequency  int
}

// TokenizeAddress standardizes an address and returns its tokens, in the
// same form GenerateListingTokens stores them. Callers use the result to
// look up candidates by token overlap.
func TokenizeAddress(address string) ([]string, error) {
	return tokenize(StandardizeAddress(address))
}

func tokenize(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("tokenizing %q: %w", text, err)
	}
	tokens := make([]string, 0, len(doc.Tokens()))
	for _, tok := range doc.Tokens() {
		tokens = append(tokens, tok.Text)
	}
	return tokens, nil
}

func calculateIDF(totalDocs int, docFreq map[string]int) map[string]float64 {
	idf := make(map[string]float64, len(docFreq))
	for token, freq := range docFreq {
		idf[token] = math.Log(float64(totalDocs) / float64(freq))
	}
	return idf
}

// GenerateListingTokens tokenizes every property's standardized address and
// advertiser name, computes corpus IDF values, and stores both per-listing
// token frequencies and the IDF table for the run. Tokenization fans out
// across a bounded worker set; inserts go through pgx batches.
func GenerateListingTokens(ctx context.Context, pool *pgxpool.Pool, runID int) error {
	rows, err := pool.Query(ctx,
		"SELECT id, lower(address), lower(coalesce(advertiser_name, '')) FROM properties WHERE run_id = $1", runID)
	if err != nil {
		return fmt.Errorf("querying properties for run %d: %w", runID, err)
	}
	defer rows.Close()

	type listing struct {
		ID         string
		Address    string
		Advertiser string
	}

	var listings []listing
	for rows.Next() {
		var l listing
		if err := rows.Scan(&l.ID, &l.Address, &l.Advertiser); err != nil {
			return fmt.Errorf("scanning property row: %w", err)
		}
		l.Address = StandardizeAddress(l.Address)
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	totalDocs := len(listings)
	docFreq := make(map[string]int)
	propertyTokens := make([]propertyToken, 0, totalDocs*10)

	var mu sync.Mutex
	var wg sync.WaitGroup
	var tokErr error
	sem := make(chan struct{}, 50)

	recordErr := func(err error) {
		mu.Lock()
		if tokErr == nil {
			tokErr = err
		}
		mu.Unlock()
	}

	for _, l := range listings {
		wg.Add(1)
		go func(l listing) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			addrTokens, err := tokenize(l.Address)
			if err != nil {
				recordErr(err)
				return
			}
			advTokens, err := tokenize(l.Advertiser)
			if err != nil {
				recordErr(err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			for token, freq := range tokenFrequencies(addrTokens) {
				propertyTokens = append(propertyTokens, propertyToken{l.ID, EntityTypeAddress, token, freq})
				docFreq[token]++
			}
			for token, freq := range tokenFrequencies(advTokens) {
				propertyTokens = append(propertyTokens, propertyToken{l.ID, EntityTypeAdvertiser, token, freq})
				docFreq[token]++
			}
		}(l)
	}
	wg.Wait()
	if tokErr != nil {
		return tokErr
	}

	idf := calculateIDF(totalDocs, docFreq)

	batch := &pgx.Batch{}
	for token, idfValue := range idf {
		batch.Queue("INSERT INTO tokens_idf (entity_type_id, ngram_token, ngram_idf, run_id) VALUES ($1, $2, $3, $4)",
			EntityTypeAddress, token, idfValue, runID)
	}
	for _, pt := range propertyTokens {
		batch.Queue("INSERT INTO listing_tokens (property_id, entity_type_id, ngram_token, ngram_frequency, run_id) VALUES ($1, $2, $3, $4, $5)",
			pt.PropertyID, pt.EntityType, pt.Token, pt.Frequency, runID)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting listing tokens: %w", err)
	}
	return nil
}

func tokenFrequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		freq[t]++
	}
	return freq
}
