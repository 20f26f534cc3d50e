package matcher

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func findAdjustment(c Candidate, reason string) *Adjustment {
	for i := range c.Factors.AdjustmentsApplied {
		if c.Factors.AdjustmentsApplied[i].Reason == reason {
			return &c.Factors.AdjustmentsApplied[i]
		}
	}
	return nil
}

func singleMatch(t *testing.T, e *Engine, req MatchRequest, p PropertyRecord) Candidate {
	t.Helper()
	got := e.FindMatches(req, []PropertyRecord{p})
	if len(got) != 1 {
		t.Fatalf("FindMatches() returned %d candidates, want 1", len(got))
	}
	return got[0]
}

func TestAdjacentListingsSameLandlord(t *testing.T) {
	e := newTestEngine(t)

	req := MatchRequest{
		Address:        "14 Cowley Road, Oxford",
		Latitude:       f64(51.7520),
		Longitude:      f64(-1.2577),
		MonthlyIncome:  f64(2400),
		AdvertiserName: "John Smith Properties",
	}
	prop := PropertyRecord{
		ID:             "prop-1",
		Address:        "12 Marston Street, Oxford",
		Latitude:       f64(51.7521),
		Longitude:      f64(-1.2578),
		MonthlyIncome:  f64(950),
		AdvertiserName: "John Smith Properties",
	}

	c := singleMatch(t, e, req, prop)
	if c.ProximityLevel != ProximitySameBuilding {
		t.Errorf("proximity = %v, want same_building", c.ProximityLevel)
	}
	if findAdjustment(c, "Same building with same landlord") == nil {
		t.Errorf("expected same-landlord building boost, got %+v", c.Factors.AdjustmentsApplied)
	}
	if findAdjustment(c, "Very close despite different landlords") != nil {
		t.Errorf("different-landlord boost must not fire for the same advertiser")
	}
	if c.Recommendation != RecommendUserChoice {
		t.Errorf("recommendation = %v, want user_choice", c.Recommendation)
	}
}

func TestPortfolioPropertiesSameBlock(t *testing.T) {
	e := newTestEngine(t)

	req := MatchRequest{
		Address:        "8 Divinity Road, Oxford",
		Latitude:       f64(51.7520),
		Longitude:      f64(-1.2577),
		AdvertiserName: "Premier Student Lets",
	}
	prop := PropertyRecord{
		ID:             "prop-2",
		Address:        "21 Divinity Road, Oxford",
		Latitude:       f64(51.7526019),
		Longitude:      f64(-1.2577),
		AdvertiserName: "Premier Student Lets",
	}

	c := singleMatch(t, e, req, prop)
	if c.ProximityLevel != ProximitySameBlock {
		t.Errorf("proximity = %v, want same_block", c.ProximityLevel)
	}
	if findAdjustment(c, "Portfolio properties - same landlord") == nil {
		t.Errorf("expected portfolio boost, got %+v", c.Factors.AdjustmentsApplied)
	}
	if c.Recommendation != RecommendUserChoice {
		t.Errorf("recommendation = %v, want user_choice", c.Recommendation)
	}
}

func TestVeryCloseDifferentLandlords(t *testing.T) {
	e := newTestEngine(t)

	req := MatchRequest{
		Address:        "5 Iffley Road, Oxford",
		Latitude:       f64(51.7520),
		Longitude:      f64(-1.2577),
		AdvertiserName: "Alice Johnson",
	}
	prop := PropertyRecord{
		ID:             "prop-3",
		Address:        "5a Iffley Road, Oxford",
		Latitude:       f64(51.7521347),
		Longitude:      f64(-1.2577),
		AdvertiserName: "Bob Wilson",
	}

	c := singleMatch(t, e, req, prop)
	if c.ProximityLevel != ProximitySameBuilding {
		t.Errorf("proximity = %v, want same_building", c.ProximityLevel)
	}
	adj := findAdjustment(c, "Very close despite different landlords")
	if adj == nil {
		t.Fatalf("expected different-landlord boost, got %+v", c.Factors.AdjustmentsApplied)
	}
	if adj.Boost < 0.08 || adj.Boost > 0.15 {
		t.Errorf("boost = %v, want within the scaled range [0.08, 0.15]", adj.Boost)
	}
	if c.Recommendation != RecommendUserChoice {
		t.Errorf("recommendation = %v, want user_choice", c.Recommendation)
	}
}

func TestFarApartSameAdvertiser(t *testing.T) {
	e := newTestEngine(t)

	req := MatchRequest{
		Address:        "3 Banbury Road, Oxford",
		Latitude:       f64(51.7520),
		Longitude:      f64(-1.2577),
		AdvertiserName: "City Properties",
		MinConfidence:  f64(0), // keep the weak candidate visible for assertions
	}

	tests := []struct {
		name     string
		propLat  float64
		wantTier ProximityLevel
	}{
		{"Same neighborhood edge", 51.7681696, ProximitySameNeighborhood},
		{"Different area", 51.7744578, ProximityDifferentArea},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prop := PropertyRecord{
				ID:             "prop-4",
				Address:        "44 Abingdon Road, Oxford",
				Latitude:       f64(tt.propLat),
				Longitude:      f64(-1.2577),
				AdvertiserName: "City Properties",
			}
			c := singleMatch(t, e, req, prop)
			if c.ProximityLevel != tt.wantTier {
				t.Errorf("proximity = %v, want %v", c.ProximityLevel, tt.wantTier)
			}
			adj := findAdjustment(c, "Properties far apart despite same advertiser")
			if adj == nil || adj.Penalty <= 0 {
				t.Fatalf("expected far-apart penalty, got %+v", c.Factors.AdjustmentsApplied)
			}
			if c.Recommendation != RecommendSeparate {
				t.Errorf("recommendation = %v, want separate", c.Recommendation)
			}
		})
	}
}

func TestExactAddressAutoLink(t *testing.T) {
	e := newTestEngine(t)

	req := MatchRequest{
		Address:        "22 St Clements Street, Oxford",
		Latitude:       f64(51.7520),
		Longitude:      f64(-1.2577),
		MonthlyIncome:  f64(2000),
		AdvertiserName: "Oxford Student Housing",
	}
	prop := PropertyRecord{
		ID:             "prop-5",
		Address:        "22 St Clements St, Oxford",
		Latitude:       f64(51.7520719),
		Longitude:      f64(-1.2577),
		MonthlyIncome:  f64(2000),
		AdvertiserName: "Oxford Student Housing",
	}

	c := singleMatch(t, e, req, prop)
	if c.ProximityLevel != ProximitySameAddress {
		t.Errorf("proximity = %v, want same_address", c.ProximityLevel)
	}
	if findAdjustment(c, "Exact address match with same landlord") == nil {
		t.Errorf("expected exact-address boost, got %+v", c.Factors.AdjustmentsApplied)
	}
	if c.FinalConfidence < 0.85 {
		t.Errorf("final confidence = %v, want >= 0.85", c.FinalConfidence)
	}
	if c.Recommendation != RecommendAutoLink {
		t.Errorf("recommendation = %v, want auto_link", c.Recommendation)
	}
}

func TestUngeocodedListingStillScored(t *testing.T) {
	e := newTestEngine(t)

	req := MatchRequest{
		Address:        "7 Hurst Street, Oxford",
		AdvertiserName: "Cherwell Lettings",
	}
	prop := PropertyRecord{
		ID:             "prop-6",
		Address:        "7 Hurst St Oxford",
		Latitude:       f64(51.7470),
		Longitude:      f64(-1.2380),
		AdvertiserName: "Cherwell Lettings",
	}

	c := singleMatch(t, e, req, prop)
	if c.ProximityLevel != ProximityUnknown {
		t.Errorf("proximity = %v, want unknown", c.ProximityLevel)
	}
	if c.Factors.GeographicSimilarity != nil || c.DistanceMeters != nil {
		t.Errorf("geographic factor should be absent without request coordinates")
	}
	if len(c.Factors.AdjustmentsApplied) != 0 {
		t.Errorf("unknown proximity must not adjust, got %+v", c.Factors.AdjustmentsApplied)
	}
	if c.FinalConfidence < 0.9 {
		t.Errorf("final confidence = %v, want high from address+advertiser alone", c.FinalConfidence)
	}
}

func TestInvalidCoordinatesDegradeToAbsent(t *testing.T) {
	e := newTestEngine(t)

	req := MatchRequest{
		Address:   "7 Hurst Street, Oxford",
		Latitude:  f64(200), // out of range
		Longitude: f64(-1.2577),
	}
	prop := PropertyRecord{
		ID:        "prop-7",
		Address:   "7 Hurst St Oxford",
		Latitude:  f64(51.7470),
		Longitude: f64(-1.2380),
	}

	c := singleMatch(t, e, req, prop)
	if c.DistanceMeters != nil || c.ProximityLevel != ProximityUnknown {
		t.Errorf("invalid coordinates must make the geographic factor absent, got %+v", c.Factors)
	}
}

func TestFindMatchesEmptyPool(t *testing.T) {
	e := newTestEngine(t)
	got := e.FindMatches(MatchRequest{Address: "12 Cowley Road"}, nil)
	if len(got) != 0 {
		t.Errorf("FindMatches() on empty pool = %v, want empty", got)
	}
}

func TestFindMatchesSkipsUnusableRecords(t *testing.T) {
	e := newTestEngine(t)

	pool := []PropertyRecord{
		{ID: "blank"}, // nothing to compare
		{ID: "addr-only", Address: "12 Cowley Road, Oxford"},
	}
	got := e.FindMatches(MatchRequest{Address: "12 Cowley Rd Oxford"}, pool)
	if len(got) != 1 || got[0].PropertyID != "addr-only" {
		t.Fatalf("FindMatches() = %+v, want only the addressed record", got)
	}
}

func TestFindMatchesNoFactorsNoCrash(t *testing.T) {
	e := newTestEngine(t)

	// The request has no comparable field at all: every factor is absent
	// for every pair, so no candidate is produced and nothing panics.
	pool := []PropertyRecord{{ID: "p1", Address: "12 Cowley Road"}}
	got := e.FindMatches(MatchRequest{}, pool)
	if len(got) != 0 {
		t.Errorf("FindMatches() = %+v, want no candidates", got)
	}
}

func TestFindMatchesFloorAndLimit(t *testing.T) {
	e := newTestEngine(t)

	req := MatchRequest{Address: "12 Cowley Road, Oxford", TopN: 2}
	pool := []PropertyRecord{
		{ID: "p1", Address: "12 Cowley Road, Oxford"},
		{ID: "p2", Address: "12 Cowley Rd"},
		{ID: "p3", Address: "Flat 1, 12 Cowley Road"},
		{ID: "p4", Address: "99 Completely Different Gardens"}, // below floor
	}

	got := e.FindMatches(req, pool)
	if len(got) != 2 {
		t.Fatalf("FindMatches() returned %d candidates, want 2 (top_n)", len(got))
	}
	if got[0].FinalConfidence < got[1].FinalConfidence {
		t.Errorf("candidates not sorted by confidence: %v then %v", got[0].FinalConfidence, got[1].FinalConfidence)
	}
	for _, c := range got {
		if c.PropertyID == "p4" {
			t.Errorf("candidate below the confidence floor was returned")
		}
	}
}

func TestFindMatchesIdempotent(t *testing.T) {
	e := newTestEngine(t)

	req := MatchRequest{
		Address:        "8 Divinity Road, Oxford",
		Latitude:       f64(51.7520),
		Longitude:      f64(-1.2577),
		AdvertiserName: "Premier Student Lets",
	}
	pool := []PropertyRecord{
		{ID: "a", Address: "21 Divinity Road, Oxford", Latitude: f64(51.7526019), Longitude: f64(-1.2577), AdvertiserName: "Premier Student Lets"},
		{ID: "b", Address: "8 Divinity Rd, Oxford", Latitude: f64(51.7520), Longitude: f64(-1.2577), AdvertiserName: "Premier Student Lets"},
	}

	first := e.FindMatches(req, pool)
	second := e.FindMatches(req, pool)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("FindMatches() is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestReasoningMentionsDecidingFactors(t *testing.T) {
	e := newTestEngine(t)

	req := MatchRequest{
		Address:        "14 Cowley Road, Oxford",
		Latitude:       f64(51.7520),
		Longitude:      f64(-1.2577),
		MonthlyIncome:  f64(2400),
		AdvertiserName: "John Smith Properties",
	}
	prop := PropertyRecord{
		ID:             "prop-1",
		Address:        "12 Marston Street, Oxford",
		Latitude:       f64(51.7521),
		Longitude:      f64(-1.2578),
		MonthlyIncome:  f64(950),
		AdvertiserName: "John Smith Properties",
	}

	c := singleMatch(t, e, req, prop)
	if !strings.Contains(c.Reasoning, "same building") || !strings.Contains(c.Reasoning, "same landlord") {
		t.Errorf("reasoning %q should cite the building and landlord signals", c.Reasoning)
	}
}

func TestCandidateJSONNestsAdjustments(t *testing.T) {
	e := newTestEngine(t)

	req := MatchRequest{
		Address:        "22 St Clements Street, Oxford",
		Latitude:       f64(51.7520),
		Longitude:      f64(-1.2577),
		AdvertiserName: "Oxford Student Housing",
	}
	prop := PropertyRecord{
		ID:             "prop-1",
		Address:        "22 St Clements St, Oxford",
		Latitude:       f64(51.7520719),
		Longitude:      f64(-1.2577),
		AdvertiserName: "Oxford Student Housing",
	}

	raw, err := json.Marshal(singleMatch(t, e, req, prop))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["adjustments_applied"]; ok {
		t.Error("adjustments_applied leaked to the top level; it belongs under match_factors")
	}
	var factors map[string]json.RawMessage
	if err := json.Unmarshal(m["match_factors"], &factors); err != nil {
		t.Fatal(err)
	}
	if _, ok := factors["adjustments_applied"]; !ok {
		t.Error("match_factors is missing adjustments_applied")
	}
}
