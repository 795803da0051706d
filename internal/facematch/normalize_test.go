package facematch

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Budi Santoso", "budi santoso"},
		{"budi-santoso", "budi santoso"},
		{"  RENÉ   Çelik ", "rene celik"},
		{"Zoë", "zoe"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeName(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNameMatches(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected bool
	}{
		{"René Çelik", "rene", true},
		{"René Çelik", "CELIK", true},
		{"Budi Santoso", "budi-san", true},
		{"Budi Santoso", "siti", false},
		{"Anyone", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.query, func(t *testing.T) {
			if got := NameMatches(tt.name, tt.query); got != tt.expected {
				t.Errorf("NameMatches(%q, %q) = %v, want %v", tt.name, tt.query, got, tt.expected)
			}
		})
	}
}
