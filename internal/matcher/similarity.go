package matcher

import (
	"math"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// ngramSize is the n-gram width used for the frequency-cosine address
// comparison and for blocking keys.
const ngramSize = 2

// differingHouseNumberFactor dampens address similarity when both addresses
// carry a house number and the numbers differ: "12 cowley rd" and
// "14 cowley rd" are different buildings no matter how similar the text is.
const differingHouseNumberFactor = 0.7

// levenshteinRatio converts edit distance to a [0,1] similarity.
func levenshteinRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// AddressSimilarity scores two free-text addresses in [0,1] after
// standardization, blending an edit-distance ratio with an n-gram frequency
// cosine so both near-typos and token reordering score well. Returns nil
// when either address is empty: an absent signal, not a zero one.
func AddressSimilarity(a, b string) *float64 {
	sa := StandardizeAddress(a)
	sb := StandardizeAddress(b)
	if sa == "" || sb == "" {
		return nil
	}

	sim := 0.5*levenshteinRatio(sa, sb) + 0.5*ngramFrequencySimilarity(sa, sb, ngramSize)

	na, nb := houseNumber(sa), houseNumber(sb)
	if na != "" && nb != "" && na != nb {
		sim *= differingHouseNumberFactor
	}

	return &sim
}

// PriceSimilarity compares two monthly income figures. Identical prices
// score 1.0; wildly different prices approach 0. Absent or non-positive
// prices yield nil.
func PriceSimilarity(p1, p2 *float64) *float64 {
	if p1 == nil || p2 == nil || *p1 <= 0 || *p2 <= 0 {
		return nil
	}
	denom := math.Max(math.Max(*p1, *p2), 1)
	sim := 1 - math.Min(1, math.Abs(*p1-*p2)/denom)
	return &sim
}

// AdvertiserSimilarity compares two advertiser/landlord names. An exact
// match after normalization is 1.0, otherwise a fuzzy edit-distance ratio.
// Nil when either name is missing.
func AdvertiserSimilarity(a, b string) *float64 {
	na := NormalizeName(a)
	nb := NormalizeName(b)
	if na == "" || nb == "" {
		return nil
	}
	sim := 1.0
	if na != nb {
		sim = levenshteinRatio(na, nb)
	}
	return &sim
}

// ngrams tokenizes a string into character n-grams, dropping anything that
// is not a letter or digit first.
func ngrams(s string, n int) []string {
	normalized := stripNonAlnum(s)
	if len(normalized) < n {
		if normalized == "" {
			return nil
		}
		return []string{normalized}
	}
	grams := make([]string, 0, len(normalized)-n+1)
	for i := 0; i <= len(normalized)-n; i++ {
		grams = append(grams, normalized[i:i+n])
	}
	return grams
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// cosineSimilarity compares two n-gram frequency sets.
func cosineSimilarity(a, b []string) float64 {
	freqA := ngramFrequencies(a)
	freqB := ngramFrequencies(b)

	var dot, magA, magB float64
	for gram, va := range freqA {
		if vb, ok := freqB[gram]; ok {
			dot += float64(va * vb)
		}
		magA += float64(va * va)
	}
	for _, vb := range freqB {
		magB += float64(vb * vb)
	}

	if magA == 0 || magB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func ngramFrequencies(grams []string) map[string]int {
	freq := make(map[string]int, len(grams))
	for _, g := range grams {
		freq[g]++
	}
	return freq
}

// ngramFrequencySimilarity computes the n-gram frequency cosine between two
// strings.
func ngramFrequencySimilarity(s1, s2 string, n int) float64 {
	return cosineSimilarity(ngrams(s1, n), ngrams(s2, n))
}
