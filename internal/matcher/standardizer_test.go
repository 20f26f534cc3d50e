package matcher

import "testing"

func TestStandardizeAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Flat prefix stripped",
			input:    "Flat 3, 12 Cowley Road, Oxford",
			expected: "12 cowley rd oxford",
		},
		{
			name:     "All uppercase",
			input:    "12 COWLEY ROAD OXFORD",
			expected: "12 cowley rd oxford",
		},
		{
			name:     "Punctuation removed",
			input:    "5 St. Clements Street",
			expected: "5 st clements st",
		},
		{
			name:     "Room designator stripped",
			input:    "Room B, 7 Hurst Street",
			expected: "7 hurst st",
		},
		{
			name:     "Named house",
			input:    "The Old House, Mill Lane",
			expected: "the old hse mill ln",
		},
		{
			name:     "Extra whitespace collapsed",
			input:    "  14   Iffley    Road ",
			expected: "14 iffley rd",
		},
		{
			name:     "Unit with alphanumeric number",
			input:    "Unit 4B, 100 Abingdon Road",
			expected: "100 abingdon rd",
		},
		{
			name:     "House number with letter suffix kept",
			input:    "221b Baker Street",
			expected: "221b baker st",
		},
		{
			name:     "Empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StandardizeAddress(tt.input); got != tt.expected {
				t.Errorf("StandardizeAddress(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  John Smith  Properties ", "john smith properties"},
		{"PREMIER STUDENT LETS", "premier student lets"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.expected {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Only digits", "12345", true},
		{"Digits and letters", "123abc", false},
		{"Empty string", "", true},
		{"Special characters", "123-456", false},
		{"Decimal number", "123.45", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNumeric(tt.input); got != tt.expected {
				t.Errorf("IsNumeric(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestHouseNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"12 cowley rd oxford", "12"},
		{"the old hse mill ln", ""},
		{"221b baker st", ""}, // letter suffix means not purely numeric
		{"", ""},
	}
	for _, tt := range tests {
		if got := houseNumber(tt.input); got != tt.expected {
			t.Errorf("houseNumber(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestPostcodeArea(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Standard outward code", "14 Cowley Road, Oxford OX4 1UR", "OX"},
		{"Lowercase postcode", "14 cowley road, oxford ox4 1ur", "OX"},
		{"Two-letter district", "Buckingham Palace, London SW1A 1AA", "SW"},
		{"Single-letter area", "5 High Street, Birmingham B12 9QR", "B"},
		{"No postcode", "14 Cowley Road, Oxford", ""},
		{"House number with suffix is not a postcode", "221b Baker Street", ""},
		{"Empty address", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PostcodeArea(tt.input); got != tt.expected {
				t.Errorf("PostcodeArea(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
