package matcher

import "strings"

// recommend turns a final confidence and the pair's factors into the
// three-way verdict. Rules are evaluated in order; the first match wins, so
// a pair satisfying both auto_link and user_choice conditions auto-links.
func (e *Engine) recommend(confidence float64, f MatchFactors, nearby int) (Recommendation, string) {
	t := e.cfg.Recommendation

	sameLocation := f.DistanceMeters != nil && *f.DistanceMeters <= t.AutoLinkMaxMeters
	sameAdvertiser := f.AdvertiserSimilarity != nil && *f.AdvertiserSimilarity >= t.AutoLinkAdvertiser
	if confidence >= t.AutoLinkConfidence && sameLocation && sameAdvertiser {
		return RecommendAutoLink, "High confidence with same location and advertiser"
	}

	farOrUnknown := f.DistanceMeters == nil || *f.DistanceMeters > t.SeparateMinMeters
	if confidence < t.SeparateConfidence && farOrUnknown {
		return RecommendSeparate, "Low confidence with significant distance"
	}

	return RecommendUserChoice, e.userChoiceReasoning(f, nearby)
}

// userChoiceReasoning cites whichever signals are strong enough to be worth
// a human look.
func (e *Engine) userChoiceReasoning(f MatchFactors, nearby int) string {
	var considerations []string

	switch f.ProximityLevel {
	case ProximitySameAddress, ProximitySameBuilding:
		considerations = append(considerations, "same building")
	case ProximitySameBlock:
		considerations = append(considerations, "same block")
	}
	if f.AdvertiserSimilarity != nil && *f.AdvertiserSimilarity >= e.cfg.Adjustments.SameLandlordThreshold {
		considerations = append(considerations, "same landlord")
	}
	if f.AddressSimilarity != nil && *f.AddressSimilarity >= 0.7 {
		considerations = append(considerations, "similar addresses")
	}
	if nearby >= 3 {
		considerations = append(considerations, "several listings nearby")
	}

	if len(considerations) == 0 {
		return "Moderate confidence. Review manually"
	}
	return "Moderate confidence. Consider: " + strings.Join(considerations, ", ")
}
