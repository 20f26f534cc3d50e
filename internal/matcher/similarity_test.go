package matcher

import (
	"math"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestAddressSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		wantNil bool
		wantMin float64
		wantMax float64
	}{
		{
			name: "Identical after standardization",
			a:    "22 St Clements Street, Oxford", b: "22 St Clements St Oxford",
			wantMin: 1.0, wantMax: 1.0,
		},
		{
			name: "Same street different house number dampened",
			a:    "12 Cowley Road, Oxford", b: "14 Cowley Road, Oxford",
			wantMin: 0.4, wantMax: 0.7,
		},
		{
			name: "Unrelated addresses",
			a:    "2 Foo Street", b: "99 Completely Different Gardens",
			wantMin: 0.0, wantMax: 0.3,
		},
		{
			name: "Empty left side",
			a:    "", b: "12 Cowley Road",
			wantNil: true,
		},
		{
			name: "Whitespace only right side",
			a:    "12 Cowley Road", b: "   ",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddressSimilarity(tt.a, tt.b)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("AddressSimilarity(%q, %q) = %v, want nil", tt.a, tt.b, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("AddressSimilarity(%q, %q) = nil, want value", tt.a, tt.b)
			}
			if *got < tt.wantMin || *got > tt.wantMax {
				t.Errorf("AddressSimilarity(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, *got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestAddressSimilaritySymmetric(t *testing.T) {
	a, b := "Flat 2, 8 Divinity Road, Oxford", "21 Divinity Rd Oxford"
	ab := AddressSimilarity(a, b)
	ba := AddressSimilarity(b, a)
	if ab == nil || ba == nil {
		t.Fatal("expected values for both directions")
	}
	if math.Abs(*ab-*ba) > 1e-9 {
		t.Errorf("address similarity not symmetric: %v vs %v", *ab, *ba)
	}
}

func TestPriceSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		p1, p2  *float64
		wantNil bool
		want    float64
	}{
		{"Identical prices", f64(1500), f64(1500), false, 1.0},
		{"Half price", f64(1000), f64(500), false, 0.5},
		{"Missing left", nil, f64(1000), true, 0},
		{"Missing right", f64(1000), nil, true, 0},
		{"Zero treated as absent", f64(0), f64(1000), true, 0},
		{"Negative treated as absent", f64(-50), f64(1000), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceSimilarity(tt.p1, tt.p2)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("PriceSimilarity() = %v, want nil", *got)
				}
				return
			}
			if got == nil {
				t.Fatal("PriceSimilarity() = nil, want value")
			}
			if math.Abs(*got-tt.want) > 1e-9 {
				t.Errorf("PriceSimilarity() = %v, want %v", *got, tt.want)
			}
		})
	}
}

func TestAdvertiserSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		wantNil bool
		wantMin float64
		wantMax float64
	}{
		{"Exact after normalization", "  John Smith Properties ", "john smith properties", false, 1.0, 1.0},
		{"Near match", "John Smith Properties", "John Smith Property", false, 0.8, 0.99},
		{"Different people", "Alice Johnson", "Bob Wilson", false, 0.0, 0.5},
		{"Missing left", "", "Bob Wilson", true, 0, 0},
		{"Missing right", "Alice Johnson", "  ", true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdvertiserSimilarity(tt.a, tt.b)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("AdvertiserSimilarity(%q, %q) = %v, want nil", tt.a, tt.b, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("AdvertiserSimilarity(%q, %q) = nil, want value", tt.a, tt.b)
			}
			if *got < tt.wantMin || *got > tt.wantMax {
				t.Errorf("AdvertiserSimilarity(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, *got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestNgramFrequencySimilarity(t *testing.T) {
	if got := ngramFrequencySimilarity("divinity road", "divinity road", ngramSize); got != 1.0 {
		t.Errorf("identical strings = %v, want 1.0", got)
	}
	if got := ngramFrequencySimilarity("a", "b", ngramSize); got != 0.0 {
		t.Errorf("single disjoint characters = %v, want 0.0", got)
	}
	if got := ngramFrequencySimilarity("", "divinity", ngramSize); got != 0.0 {
		t.Errorf("empty string = %v, want 0.0", got)
	}
	reordered := ngramFrequencySimilarity("oxford cowley road", "cowley road oxford", ngramSize)
	if reordered < 0.8 {
		t.Errorf("reordered tokens = %v, want high similarity", reordered)
	}
}
