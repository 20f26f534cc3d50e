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
	"sort"
	"time"
)

// PropertyRecord is a stored property as the repository hands it to the
// engine. Coordinates, income, and advertiser are optional: a record missing
// any of them is still scored on whatever signals remain.
type PropertyRecord struct {
	ID             string    `json:"id"`
	Address        string    `json:"address"`
	PostcodeArea   string    `json:"postcode_area,omitempty"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	MonthlyIncome  *float64  `json:"monthly_income,omitempty"`
	AdvertiserName string    `json:"advertiser_name,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// MatchRequest represents a newly observed listing to be checked against
// the stored pool.
type MatchRequest struct {
	Address        string   `json:"address"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	MonthlyIncome  *float64 `json:"monthly_income,omitempty"`
	AdvertiserName string   `json:"advertiser_name,omitempty"`
	TopN           int      `json:"top_n,omitempty"`
	MinConfidence  *float64 `json:"min_confidence,omitempty"`
}

// MatchFactors holds the per-pair similarity signals. Nil means absent:
// the factor is excluded from the weighted average rather than scored zero.
// AdjustmentsApplied is filled in after the composite confidence is
// computed, so the factors carry the full audit trail for the pair.
type MatchFactors struct {
	AddressSimilarity    *float64       `json:"address_similarity,omitempty"`
	GeographicSimilarity *float64       `json:"geographic_similarity,omitempty"`
	PriceSimilarity      *float64       `json:"price_similarity,omitempty"`
	AdvertiserSimilarity *float64       `json:"advertiser_similarity,omitempty"`
	DistanceMeters       *float64       `json:"distance_meters,omitempty"`
	ProximityLevel       ProximityLevel `json:"proximity_level"`
	AdjustmentsApplied   []Adjustment   `json:"adjustments_applied"`
}

// Adjustment is one audit-trail entry from the proximity adjustment policy.
// Exactly one of Boost or Penalty is set.
type Adjustment struct {
	Reason  string  `json:"reason"`
	Boost   float64 `json:"boost,omitempty"`
	Penalty float64 `json:"penalty,omitempty"`
}

// ConfidenceResult is the composite confidence before and after adjustments.
type ConfidenceResult struct {
	BaseConfidence  float64      `json:"base_confidence"`
	Adjustments     []Adjustment `json:"adjustments_applied"`
	FinalConfidence float64      `json:"final_confidence"`
}

// Recommendation is the engine's terminal verdict on a candidate pair.
type Recommendation string

const (
	RecommendAutoLink   Recommendation = "auto_link"
	RecommendUserChoice Recommendation = "user_choice"
	RecommendSeparate   Recommendation = "separate"
)

// Candidate represents a potential match from the stored pool, ranked by
// final confidence.
type Candidate struct {
	PropertyID      string         `json:"property_id"`
	Address         string         `json:"address"`
	BaseConfidence  float64        `json:"base_confidence"`
	FinalConfidence float64        `json:"final_confidence"`
	DistanceMeters  *float64       `json:"distance_meters,omitempty"`
	ProximityLevel  ProximityLevel `json:"proximity_level"`
	Recommendation  Recommendation `json:"recommendation"`
	Reasoning       string         `json:"reasoning"`
	Factors         MatchFactors   `json:"match_factors"`
}

// Engine fuses address, geographic, price, and advertiser similarity into a
// confidence score and a recommendation. It is stateless and safe for
// concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine validates the configuration and returns a ready engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// FindMatches scores a new listing against every stored property with at
// least one usable signal, discards candidates below the confidence floor,
// and returns the top-N ranked by final confidence. One pass over the pool;
// a record with nothing to compare is skipped, never aborts the batch.
func (e *Engine) FindMatches(req MatchRequest, pool []PropertyRecord) []Candidate {
	minConfidence := e.cfg.MinConfidence
	if req.MinConfidence != nil {
		minConfidence = *req.MinConfidence
	}
	topN := req.TopN
	if topN <= 0 {
		topN = e.cfg.TopN
	}

	nearby := e.countNearby(req, pool)

	candidates := make([]Candidate, 0, len(pool))
	for _, p := range pool {
		if !hasUsableSignal(p) {
			continue
		}
		cand, ok := e.scorePair(req, p, nearby)
		if !ok || cand.FinalConfidence < minConfidence {
			continue
		}
		candidates = append(candidates, cand)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].FinalConfidence != candidates[j].FinalConfidence {
			return candidates[i].FinalConfidence > candidates[j].FinalConfidence
		}
		return candidates[i].PropertyID < candidates[j].PropertyID
	})
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

// scorePair runs the full per-pair pipeline: factors, composite confidence,
// proximity adjustments, recommendation. The second return is false when no
// factor at all is present for the pair.
func (e *Engine) scorePair(req MatchRequest, p PropertyRecord, nearby int) (Candidate, bool) {
	factors := e.computeFactors(req, p)
	if factors.AddressSimilarity == nil && factors.GeographicSimilarity == nil &&
		factors.PriceSimilarity == nil && factors.AdvertiserSimilarity == nil {
		return Candidate{}, false
	}

	conf := e.computeConfidence(factors)
	rec, reasoning := e.recommend(conf.FinalConfidence, factors, nearby)
	factors.AdjustmentsApplied = conf.Adjustments

	return Candidate{
		PropertyID:      p.ID,
		Address:         p.Address,
		BaseConfidence:  conf.BaseConfidence,
		FinalConfidence: conf.FinalConfidence,
		DistanceMeters:  factors.DistanceMeters,
		ProximityLevel:  factors.ProximityLevel,
		Recommendation:  rec,
		Reasoning:       reasoning,
		Factors:         factors,
	}, true
}

// computeFactors gathers the four similarity signals for one pair. Each
// signal fails soft to nil; out-of-range coordinates make the geographic
// factor absent rather than erroring.
func (e *Engine) computeFactors(req MatchRequest, p PropertyRecord) MatchFactors {
	f := MatchFactors{
		AddressSimilarity:    AddressSimilarity(req.Address, p.Address),
		PriceSimilarity:      PriceSimilarity(req.MonthlyIncome, p.MonthlyIncome),
		AdvertiserSimilarity: AdvertiserSimilarity(req.AdvertiserName, p.AdvertiserName),
		ProximityLevel:       ProximityUnknown,
	}

	if req.Latitude != nil && req.Longitude != nil && p.Latitude != nil && p.Longitude != nil &&
		validCoordinate(*req.Latitude, *req.Longitude) && validCoordinate(*p.Latitude, *p.Longitude) {
		dist := HaversineMeters(*req.Latitude, *req.Longitude, *p.Latitude, *p.Longitude)
		geo := geographicSimilarity(dist, e.cfg.GeoDecayMeters)
		f.DistanceMeters = &dist
		f.GeographicSimilarity = &geo
		f.ProximityLevel = ClassifyProximity(e.cfg.ProximityBands, dist)
	}

	return f
}

// countNearby counts pool properties within 100m of the request, used only
// to flag "several listings nearby" in user_choice reasoning.
func (e *Engine) countNearby(req MatchRequest, pool []PropertyRecord) int {
	if req.Latitude == nil || req.Longitude == nil || !validCoordinate(*req.Latitude, *req.Longitude) {
		return 0
	}
	count := 0
	for _, p := range pool {
		if p.Latitude == nil || p.Longitude == nil || !validCoordinate(*p.Latitude, *p.Longitude) {
			continue
		}
		if HaversineMeters(*req.Latitude, *req.Longitude, *p.Latitude, *p.Longitude) <= 100 {
			count++
		}
	}
	return count
}

// hasUsableSignal reports whether a stored record carries anything the
// engine can compare against.
func hasUsableSignal(p PropertyRecord) bool {
	if StandardizeAddress(p.Address) != "" {
		return true
	}
	if p.Latitude != nil && p.Longitude != nil && validCoordinate(*p.Latitude, *p.Longitude) {
		return true
	}
	if NormalizeName(p.AdvertiserName) != "" {
		return true
	}
	return p.MonthlyIncome != nil && *p.MonthlyIncome > 0
}
