package matcher

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Long street-type and directional forms mapped to the short form used
	// for comparison. Applied per whole token so "street" inside another
	// word is left alone.
	abbreviations = map[string]string{
		"road":     "rd",
		"street":   "st",
		"avenue":   "ave",
		"lane":     "ln",
		"drive":    "dr",
		"close":    "cl",
		"court":    "ct",
		"place":    "pl",
		"crescent": "cres",
		"terrace":  "ter",
		"gardens":  "gdns",
		"square":   "sq",
		"grove":    "gv",
		"park":     "pk",
		"house":    "hse",
		"building": "bldg",
		"north":    "n",
		"south":    "s",
		"east":     "e",
		"west":     "w",
	}

	// Unit designators whose following token identifies a sub-unit of the
	// property ("flat 3", "room b"). The designator and its number are
	// dropped: they distinguish listings, not buildings. Bare house numbers
	// are kept.
	unitDesignators = map[string]bool{
		"flat":      true,
		"apartment": true,
		"apt":       true,
		"unit":      true,
		"room":      true,
		"rm":        true,
		"suite":     true,
		"ste":       true,
		"floor":     true,
		"fl":        true,
	}
)

// StandardizeAddress takes a raw address string and returns a normalized
// form for comparison: lowercase, punctuation removed, whitespace collapsed,
// flat/unit/room designators stripped, street types abbreviated. House
// numbers survive so "12 cowley rd" and "14 cowley rd" stay distinguishable.
func StandardizeAddress(address string) string {
	address = strings.ToLower(strings.TrimSpace(address))

	address = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, address)

	words := strings.Fields(address)
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		if unitDesignators[words[i]] && i+1 < len(words) {
			i++ // skip the unit number as well
			continue
		}
		word := words[i]
		if abbr, ok := abbreviations[word]; ok {
			word = abbr
		}
		out = append(out, word)
	}

	return strings.Join(out, " ")
}

// NormalizeName lowercases an advertiser/landlord name and collapses
// whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}

// IsNumeric checks if a string contains only numeric characters
func IsNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// UK outward code: area letters, district digits, optional trailing letter.
var outwardCodePattern = regexp.MustCompile(`^([A-Z]{1,2})[0-9][0-9A-Z]?$`)

// PostcodeArea extracts the postcode area (the leading letters of the
// outward code, "OX" in "OX4 1AB") from a raw address. Returns "" when no
// token looks like a UK postcode.
func PostcodeArea(address string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return unicode.ToUpper(r)
	}, address)

	for _, tok := range strings.Fields(cleaned) {
		if m := outwardCodePattern.FindStringSubmatch(tok); m != nil {
			return m[1]
		}
	}
	return ""
}

// houseNumber returns the first all-numeric token of a standardized
// address, or "" when there is none.
func houseNumber(standardized string) string {
	for _, tok := range strings.Fields(standardized) {
		if len(tok) > 0 && IsNumeric(tok) {
			return tok
		}
	}
	return ""
}
