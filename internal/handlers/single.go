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
// The above copyright notice shall be included in all
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

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TFMV/DupeFinder/internal/matcher"
	"github.com/TFMV/DupeFinder/pkg/geocode"
	"github.com/TFMV/DupeFinder/pkg/utils"
)

// PropertyStore is the slice of the repository the handlers consume.
type PropertyStore interface {
	CandidatesByPostcodeArea(ctx context.Context, area string) ([]matcher.PropertyRecord, error)
	CandidatesByBlockKey(ctx context.Context, blockKey string) ([]matcher.PropertyRecord, error)
	TokenCandidates(ctx context.Context, tokens []string) ([]matcher.PropertyRecord, error)
	ReferenceAddresses(ctx context.Context) ([]string, error)
	AllProperties(ctx context.Context) ([]matcher.PropertyRecord, error)
	StageCSV(ctx context.Context, csvPath, table string) (int64, error)
	StagedListings(ctx context.Context, table string) ([]matcher.MatchRequest, error)
	TruncateStaging(ctx context.Context, table string) error
	CreateRun(ctx context.Context, description string) (int, error)
}

// Deps carries everything the match handlers need. Injected from main, no
// globals.
type Deps struct {
	Repo     PropertyStore
	Engine   *matcher.Engine
	Geocoder geocode.Geocoder
	Logger   *zap.Logger
}

// MatchSingleHandler scores one incoming listing against the stored pool.
// Missing coordinates are backfilled through the geocoder; a failed
// geocode or pool fetch degrades to whatever signals remain rather than
// failing the request.
func MatchSingleHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req matcher.MatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendError(c, http.StatusBadRequest, err)
			return
		}
		if req.Address == "" {
			utils.SendError(c, http.StatusBadRequest, fmt.Errorf("address is required"))
			return
		}

		ctx := c.Request.Context()
		backfillCoordinates(ctx, deps, &req)

		pool, err := CandidatePool(ctx, deps.Repo, deps.Logger, req.Address)
		if err != nil {
			deps.Logger.Error("candidate pool fetch failed", zap.Error(err))
			utils.SendJSON(c, http.StatusOK, "duplicate detection unavailable, treating listing as separate", []matcher.Candidate{})
			return
		}

		candidates := deps.Engine.FindMatches(req, pool)
		utils.SendJSON(c, http.StatusOK, "matches found", candidates)
	}
}

// backfillCoordinates fills in missing coordinates from the geocoder. Fails
// soft: an unresolvable or erroring geocode leaves the request as-is and
// the geographic factor absent.
func backfillCoordinates(ctx context.Context, deps Deps, req *matcher.MatchRequest) {
	if req.Latitude != nil && req.Longitude != nil {
		return
	}
	loc, err := deps.Geocoder.Geocode(ctx, req.Address)
	if err != nil {
		deps.Logger.Warn("geocoding failed", zap.String("address", req.Address), zap.Error(err))
		return
	}
	if loc == nil {
		return
	}
	req.Latitude = &loc.Latitude
	req.Longitude = &loc.Longitude
}

// CandidatePool picks the cheapest usable prefilter for an address:
// postcode area when one parses, the block-key cohort when the reference
// set is loaded, IDF-weighted token overlap against the latest run's
// listing tokens, and the whole pool as last resort.
func CandidatePool(ctx context.Context, store PropertyStore, logger *zap.Logger, address string) ([]matcher.PropertyRecord, error) {
	if area := matcher.PostcodeArea(address); area != "" {
		return store.CandidatesByPostcodeArea(ctx, area)
	}

	if std := matcher.StandardizeAddress(address); std != "" {
		refs, err := store.ReferenceAddresses(ctx)
		if err != nil {
			return nil, err
		}
		// An all-zero key means the address resembles no reference; every
		// oddball shares it, so it does not name a useful cohort.
		if key := matcher.CalculateBlockKey(refs, std); strings.ContainsRune(key, '1') {
			pool, err := store.CandidatesByBlockKey(ctx, key)
			if err != nil {
				return nil, err
			}
			if len(pool) > 0 {
				return pool, nil
			}
		}

		tokens, err := matcher.TokenizeAddress(address)
		if err != nil {
			logger.Warn("address tokenization failed", zap.String("address", address), zap.Error(err))
		} else if len(tokens) > 0 {
			pool, err := store.TokenCandidates(ctx, tokens)
			if err != nil {
				return nil, err
			}
			if len(pool) > 0 {
				return pool, nil
			}
		}
	}

	return store.AllProperties(ctx)
}
