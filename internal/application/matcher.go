package application

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// MatchMode selects how an agent's answer is graded against the expected one.
type MatchMode string

const (
	// MatchExact requires equality after trimming and case folding.
	MatchExact MatchMode = "exact"

	// MatchFuzzy tolerates small edit distances, scaled to answer length.
	MatchFuzzy MatchMode = "fuzzy"
)

// MatchConfig controls answer grading.
type MatchConfig struct {
	// Mode selects the comparison. Empty defaults to exact.
	Mode MatchMode `json:"mode" yaml:"mode"`

	// MaxDistanceRatio caps the Levenshtein distance as a fraction of the
	// expected answer's length for fuzzy matching. Zero applies the
	// default of 0.2.
	MaxDistanceRatio float64 `json:"max_distance_ratio" yaml:"max_distance_ratio"`
}

const defaultMaxDistanceRatio = 0.2

var foldCaser = cases.Fold()

// normalizeAnswer trims surrounding whitespace and trailing sentence
// punctuation, then case-folds, so "Paris." and " paris" compare equal.
func normalizeAnswer(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".!")
	s = strings.TrimSpace(s)
	return foldCaser.String(s)
}

// Matches grades an actual answer against the expected one under the
// configured mode.
func (c MatchConfig) Matches(expected, actual string) bool {
	e := normalizeAnswer(expected)
	a := normalizeAnswer(actual)

	switch c.Mode {
	case MatchFuzzy:
		if e == a {
			return true
		}
		ratio := c.MaxDistanceRatio
		if ratio <= 0 {
			ratio = defaultMaxDistanceRatio
		}
		maxDistance := int(float64(len([]rune(e))) * ratio)
		if maxDistance < 1 {
			maxDistance = 1
		}
		return levenshtein.ComputeDistance(e, a) <= maxDistance
	default:
		return e == a
	}
}
