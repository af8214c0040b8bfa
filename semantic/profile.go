package semantic

import (
	"strings"
	"unicode"

	"github.com/c360/schemaflow/typedetect"
	"github.com/c360/schemaflow/types"
)

// profileSampleLimit caps how many values feed the profile. Heuristics
// stabilize well before this, and batches can be large.
const profileSampleLimit = 100

// Cardinality thresholds on the unique-to-total ratio of non-null values.
const (
	highCardinalityRatio = 0.95
	lowCardinalityRatio  = 0.10
)

// ProfileValues computes statistical heuristics over a field's observed
// values: cardinality class, unique ratio, average stringified length, and
// character-class flags. Only the first 100 values are examined. Nil and
// null-literal values are excluded from the ratio but still classify the
// field as all_null when nothing else is present.
func ProfileValues(values []any) *types.ValueProfile {
	if len(values) == 0 {
		return &types.ValueProfile{Cardinality: types.CardinalityEmpty}
	}

	sample := values
	if len(sample) > profileSampleLimit {
		sample = sample[:profileSampleLimit]
	}

	seen := make(map[string]struct{})
	var (
		nonNull     int
		totalLength int
		hasDigits   bool
		hasSpecial  bool
	)

	for _, v := range sample {
		if typedetect.IsNull(v) {
			continue
		}
		nonNull++

		s := typedetect.Stringify(v)
		seen[s] = struct{}{}
		totalLength += len(s)

		for _, r := range s {
			switch {
			case unicode.IsDigit(r):
				hasDigits = true
			case !unicode.IsLetter(r) && !unicode.IsSpace(r):
				hasSpecial = true
			}
		}
	}

	if nonNull == 0 {
		return &types.ValueProfile{Cardinality: types.CardinalityNull}
	}

	ratio := float64(len(seen)) / float64(nonNull)
	return &types.ValueProfile{
		Cardinality:     cardinalityClass(ratio),
		UniqueRatio:     ratio,
		AvgLength:       float64(totalLength) / float64(nonNull),
		HasDigits:       hasDigits,
		HasSpecialChars: hasSpecial,
	}
}

func cardinalityClass(ratio float64) string {
	switch {
	case ratio > highCardinalityRatio:
		return types.CardinalityHigh
	case ratio < lowCardinalityRatio:
		return types.CardinalityLow
	default:
		return types.CardinalityMedium
	}
}

// likelyIdentifier reports whether a profile looks like a unique key:
// near-unique values with no long free text.
func likelyIdentifier(p *types.ValueProfile, fieldName string) bool {
	if p == nil {
		return false
	}
	name := strings.ToLower(fieldName)
	if p.Cardinality != types.CardinalityHigh {
		return false
	}
	return strings.Contains(name, "id") || strings.Contains(name, "key") || p.AvgLength <= 64
}
