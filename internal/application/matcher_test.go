package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMatchConfig_Exact exercises normalization under exact matching.
func TestMatchConfig_Exact(t *testing.T) {
	exact := MatchConfig{Mode: MatchExact}

	tests := []struct {
		name     string
		expected string
		actual   string
		want     bool
	}{
		{name: "identical", expected: "4", actual: "4", want: true},
		{name: "case folded", expected: "Paris", actual: "paris", want: true},
		{name: "surrounding whitespace", expected: "Paris", actual: "  Paris \n", want: true},
		{name: "trailing period", expected: "Paris", actual: "Paris.", want: true},
		{name: "different answer", expected: "Paris", actual: "London", want: false},
		{name: "near miss is not exact", expected: "Mississippi", actual: "Missisippi", want: false},
		{name: "both empty", expected: "", actual: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exact.Matches(tt.expected, tt.actual))
		})
	}
}

// TestMatchConfig_Fuzzy exercises edit-distance tolerance scaled to the
// expected answer's length.
func TestMatchConfig_Fuzzy(t *testing.T) {
	fuzzy := MatchConfig{Mode: MatchFuzzy}

	tests := []struct {
		name     string
		expected string
		actual   string
		want     bool
	}{
		{name: "identical", expected: "Mississippi", actual: "Mississippi", want: true},
		{name: "one dropped letter", expected: "Mississippi", actual: "Missisippi", want: true},
		{name: "two edits within ratio", expected: "photosynthesis", actual: "fotosynthesis", want: true},
		{name: "entirely different", expected: "Paris", actual: "London", want: false},
		{name: "short answer small tolerance", expected: "42", actual: "43", want: true},
		{name: "short answer beyond tolerance", expected: "42", actual: "750", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fuzzy.Matches(tt.expected, tt.actual))
		})
	}
}

// TestMatchConfig_FuzzyRatio verifies a custom distance ratio widens the
// acceptance band.
func TestMatchConfig_FuzzyRatio(t *testing.T) {
	strict := MatchConfig{Mode: MatchFuzzy, MaxDistanceRatio: 0.1}
	loose := MatchConfig{Mode: MatchFuzzy, MaxDistanceRatio: 0.5}

	expected := "chlorophyll"
	actual := "clorofill"

	assert.False(t, strict.Matches(expected, actual))
	assert.True(t, loose.Matches(expected, actual))
}

// TestMatchConfig_DefaultModeIsExact verifies the zero value grades exactly.
func TestMatchConfig_DefaultModeIsExact(t *testing.T) {
	var cfg MatchConfig
	assert.True(t, cfg.Matches("4", " 4 "))
	assert.False(t, cfg.Matches("Mississippi", "Missisippi"))
}
