package matcher

import "math"

// computeConfidence runs the composite model and the proximity adjustment
// policy for one pair of listings.
func (e *Engine) computeConfidence(f MatchFactors) ConfidenceResult {
	base := e.baseConfidence(f)
	adjustments := e.proximityAdjustments(f)

	final := base
	for _, a := range adjustments {
		final += a.Boost
		final -= a.Penalty
	}

	return ConfidenceResult{
		BaseConfidence:  base,
		Adjustments:     adjustments,
		FinalConfidence: clamp01(final),
	}
}

// baseConfidence is the weighted average over the factors that are present.
// Weights of absent factors are redistributed proportionally: a pair is not
// penalized merely because one signal is unavailable.
func (e *Engine) baseConfidence(f MatchFactors) float64 {
	var sum, sumW float64

	accumulate := func(v *float64, w float64) {
		if v == nil || w <= 0 {
			return
		}
		sum += clamp01(*v) * w
		sumW += w
	}

	accumulate(f.AddressSimilarity, e.cfg.Weights.Address)
	accumulate(f.GeographicSimilarity, e.cfg.Weights.Geographic)
	accumulate(f.PriceSimilarity, e.cfg.Weights.Price)
	accumulate(f.AdvertiserSimilarity, e.cfg.Weights.Advertiser)

	if sumW == 0 {
		return 0
	}
	return sum / sumW
}

// proximityAdjustments applies the tier-specific boost/penalty rules. Every
// rule that fires appends one audit entry; the audit trail is a first-class
// output. Tiers are mutually exclusive, so at most one rule fires per pair.
func (e *Engine) proximityAdjustments(f MatchFactors) []Adjustment {
	rules := e.cfg.Adjustments
	sameLandlord := f.AdvertiserSimilarity != nil && *f.AdvertiserSimilarity >= rules.SameLandlordThreshold
	differentLandlord := f.AdvertiserSimilarity != nil && *f.AdvertiserSimilarity < rules.SameLandlordThreshold

	var out []Adjustment
	switch f.ProximityLevel {
	case ProximitySameAddress:
		if sameLandlord {
			out = append(out, Adjustment{
				Reason: "Exact address match with same landlord",
				Boost:  rules.ExactAddressBoost,
			})
		} else if differentLandlord {
			out = append(out, Adjustment{
				Reason: "Very close despite different landlords",
				Boost:  e.veryCloseBoost(f.DistanceMeters),
			})
		}
	case ProximitySameBuilding:
		if sameLandlord {
			out = append(out, Adjustment{
				Reason: "Same building with same landlord",
				Boost:  rules.SameBuildingBoost,
			})
		} else if differentLandlord {
			out = append(out, Adjustment{
				Reason: "Very close despite different landlords",
				Boost:  e.veryCloseBoost(f.DistanceMeters),
			})
		}
	case ProximitySameBlock:
		if sameLandlord {
			out = append(out, Adjustment{
				Reason: "Portfolio properties - same landlord",
				Boost:  rules.PortfolioBoost,
			})
		}
	case ProximitySameNeighborhood, ProximityDifferentArea:
		if sameLandlord {
			out = append(out, Adjustment{
				Reason:  "Properties far apart despite same advertiser",
				Penalty: rules.FarApartPenalty,
			})
		}
	}
	return out
}

// veryCloseBoost interpolates the different-landlord boost between max at
// 0m and min at the same_building ceiling. The exact curve is a tunable
// policy, not a derived quantity.
func (e *Engine) veryCloseBoost(distance *float64) float64 {
	rules := e.cfg.Adjustments
	if distance == nil {
		return rules.VeryCloseBoostMin
	}
	ceiling := e.buildingCeiling()
	if ceiling <= 0 {
		return rules.VeryCloseBoostMax
	}
	frac := clamp01(*distance / ceiling)
	return rules.VeryCloseBoostMax - frac*(rules.VeryCloseBoostMax-rules.VeryCloseBoostMin)
}

// buildingCeiling returns the same_building band's distance ceiling, or the
// tightest ceiling configured if that tier is absent.
func (e *Engine) buildingCeiling() float64 {
	for _, b := range e.cfg.ProximityBands {
		if b.Level == ProximitySameBuilding {
			return b.MaxMeters
		}
	}
	if len(e.cfg.ProximityBands) > 0 {
		return e.cfg.ProximityBands[0].MaxMeters
	}
	return 0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
