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

import "fmt"

// Weights defines the contribution of each similarity factor to the
// composite confidence. Absent factors have their weight redistributed
// proportionally over the factors that are present.
type Weights struct {
	Address    float64 `yaml:"address" json:"address"`
	Geographic float64 `yaml:"geographic" json:"geographic"`
	Price      float64 `yaml:"price" json:"price"`
	Advertiser float64 `yaml:"advertiser" json:"advertiser"`
}

// ProximityBand maps a distance ceiling in meters to a semantic tier.
// Bands must be listed in ascending order of MaxMeters; the ceiling is
// inclusive. Distances beyond the last band classify as different_area.
type ProximityBand struct {
	Level     ProximityLevel `yaml:"level" json:"level"`
	MaxMeters float64        `yaml:"max_meters" json:"max_meters"`
}

// AdjustmentRules holds the boost/penalty constants for the proximity
// adjustment policy.
type AdjustmentRules struct {
	// Advertiser similarity at or above this value counts as "same landlord".
	SameLandlordThreshold float64 `yaml:"same_landlord_threshold" json:"same_landlord_threshold"`
	ExactAddressBoost     float64 `yaml:"exact_address_boost" json:"exact_address_boost"`
	SameBuildingBoost     float64 `yaml:"same_building_boost" json:"same_building_boost"`
	// Boost for very close listings with different landlords, scaled
	// linearly from max at 0m down to min at the same_building ceiling.
	VeryCloseBoostMin float64 `yaml:"very_close_boost_min" json:"very_close_boost_min"`
	VeryCloseBoostMax float64 `yaml:"very_close_boost_max" json:"very_close_boost_max"`
	PortfolioBoost    float64 `yaml:"portfolio_boost" json:"portfolio_boost"`
	FarApartPenalty   float64 `yaml:"far_apart_penalty" json:"far_apart_penalty"`
}

// RecommendationThresholds drives the three-way auto_link / user_choice /
// separate decision. These are policy constants, kept in config so they can
// be tuned without code changes.
type RecommendationThresholds struct {
	AutoLinkConfidence float64 `yaml:"auto_link_confidence" json:"auto_link_confidence"`
	AutoLinkMaxMeters  float64 `yaml:"auto_link_max_meters" json:"auto_link_max_meters"`
	AutoLinkAdvertiser float64 `yaml:"auto_link_advertiser" json:"auto_link_advertiser"`
	SeparateConfidence float64 `yaml:"separate_confidence" json:"separate_confidence"`
	SeparateMinMeters  float64 `yaml:"separate_min_meters" json:"separate_min_meters"`
}

// Config carries every tunable of the duplicate detection engine.
type Config struct {
	Weights        Weights                  `yaml:"weights" json:"weights"`
	ProximityBands []ProximityBand          `yaml:"proximity_bands" json:"proximity_bands"`
	GeoDecayMeters float64                  `yaml:"geo_decay_meters" json:"geo_decay_meters"`
	Adjustments    AdjustmentRules          `yaml:"adjustments" json:"adjustments"`
	Recommendation RecommendationThresholds `yaml:"recommendation" json:"recommendation"`
	MinConfidence  float64                  `yaml:"min_confidence" json:"min_confidence"`
	TopN           int                      `yaml:"top_n" json:"top_n"`
}

// DefaultConfig returns the reference policy.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Address:    0.30,
			Geographic: 0.35,
			Price:      0.15,
			Advertiser: 0.20,
		},
		ProximityBands: []ProximityBand{
			{Level: ProximitySameAddress, MaxMeters: 10},
			{Level: ProximitySameBuilding, MaxMeters: 20},
			{Level: ProximitySameBlock, MaxMeters: 100},
			{Level: ProximitySameStreet, MaxMeters: 200},
			{Level: ProximityWalkingDistance, MaxMeters: 1000},
			{Level: ProximitySameNeighborhood, MaxMeters: 2000},
		},
		GeoDecayMeters: 600,
		Adjustments: AdjustmentRules{
			SameLandlordThreshold: 0.8,
			ExactAddressBoost:     0.20,
			SameBuildingBoost:     0.15,
			VeryCloseBoostMin:     0.08,
			VeryCloseBoostMax:     0.15,
			PortfolioBoost:        0.10,
			FarApartPenalty:       0.10,
		},
		Recommendation: RecommendationThresholds{
			AutoLinkConfidence: 0.85,
			AutoLinkMaxMeters:  50,
			AutoLinkAdvertiser: 0.8,
			SeparateConfidence: 0.40,
			SeparateMinMeters:  500,
		},
		MinConfidence: 0.3,
		TopN:          5,
	}
}

// Validate rejects malformed configuration before any scoring happens.
// A bad config must fail at construction time, never mid-batch.
func (c Config) Validate() error {
	if c.Weights.Address < 0 || c.Weights.Geographic < 0 || c.Weights.Price < 0 || c.Weights.Advertiser < 0 {
		return fmt.Errorf("weights must be non-negative: %+v", c.Weights)
	}
	total := c.Weights.Address + c.Weights.Geographic + c.Weights.Price + c.Weights.Advertiser
	if total <= 0 {
		return fmt.Errorf("at least one weight must be positive")
	}
	if len(c.ProximityBands) == 0 {
		return fmt.Errorf("at least one proximity band is required")
	}
	prev := -1.0
	for _, b := range c.ProximityBands {
		if !b.Level.known() {
			return fmt.Errorf("unknown proximity level: %s", b.Level)
		}
		if b.Level == ProximityUnknown || b.Level == ProximityDifferentArea {
			return fmt.Errorf("proximity level %s cannot carry a distance ceiling", b.Level)
		}
		if b.MaxMeters <= prev {
			return fmt.Errorf("proximity bands must have strictly ascending ceilings (got %.0fm after %.0fm)", b.MaxMeters, prev)
		}
		prev = b.MaxMeters
	}
	if c.GeoDecayMeters <= 0 {
		return fmt.Errorf("geo_decay_meters must be positive (got %v)", c.GeoDecayMeters)
	}
	a := c.Adjustments
	if a.SameLandlordThreshold < 0 || a.SameLandlordThreshold > 1 {
		return fmt.Errorf("same_landlord_threshold must be in [0,1] (got %v)", a.SameLandlordThreshold)
	}
	if a.ExactAddressBoost < 0 || a.SameBuildingBoost < 0 || a.PortfolioBoost < 0 || a.FarApartPenalty < 0 {
		return fmt.Errorf("adjustment boosts and penalties must be non-negative: %+v", a)
	}
	if a.VeryCloseBoostMin < 0 || a.VeryCloseBoostMax < a.VeryCloseBoostMin {
		return fmt.Errorf("very_close boost range is invalid: min %v, max %v", a.VeryCloseBoostMin, a.VeryCloseBoostMax)
	}
	r := c.Recommendation
	if r.AutoLinkConfidence < 0 || r.AutoLinkConfidence > 1 || r.SeparateConfidence < 0 || r.SeparateConfidence > 1 {
		return fmt.Errorf("recommendation confidence thresholds must be in [0,1]: %+v", r)
	}
	if r.AutoLinkAdvertiser < 0 || r.AutoLinkAdvertiser > 1 {
		return fmt.Errorf("auto_link_advertiser must be in [0,1] (got %v)", r.AutoLinkAdvertiser)
	}
	if r.AutoLinkMaxMeters < 0 || r.SeparateMinMeters < 0 {
		return fmt.Errorf("recommendation distance thresholds must be non-negative: %+v", r)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1] (got %v)", c.MinConfidence)
	}
	if c.TopN < 0 {
		return fmt.Errorf("top_n must be non-negative (got %d)", c.TopN)
	}
	return nil
}
