package typedetect

import (
	"sort"

	"github.com/c360/schemaflow/types"
)

// Resolution is the outcome of aggregating per-value kinds for one field
// across a batch.
type Resolution struct {
	Type          types.FieldType
	Nullable      bool
	UnionTypes    []types.FieldType
	Normalization types.NormalizationStrategy
	Confidence    float64
	NonNullCount  int
	NullCount     int
}

// ResolveField aggregates the kinds of every value observed for a field and
// resolves them to one type. Mixed numeric kinds collapse to float, numerics
// plus strings collapse to string, anything else becomes a union that the
// storage layer must handle with a variant column. The hierarchy exists so
// ingestion keeps working on mixed-type real-world data while the diff still
// flags the quality concern.
func ResolveField(values []any) Resolution {
	kindCounts := make(map[types.FieldType]int)
	nullCount := 0

	for _, v := range values {
		kind := DetectKind(v)
		if kind == types.TypeNull {
			nullCount++
			continue
		}
		kindCounts[kind]++
	}

	nonNull := len(values) - nullCount
	res := Resolution{
		Nullable:     nullCount > 0,
		NonNullCount: nonNull,
		NullCount:    nullCount,
	}

	if nonNull == 0 {
		res.Type = types.TypeNull
		res.Nullable = true
		res.Confidence = confidence(0, 0, len(values))
		return res
	}

	if len(kindCounts) == 1 {
		for kind := range kindCounts {
			res.Type = kind
		}
		res.Confidence = confidence(nonNull, nonNull, len(values))
		return res
	}

	res.UnionTypes = sortedKinds(kindCounts)

	switch {
	case subsetOf(kindCounts, types.TypeInteger, types.TypeFloat):
		res.Type = types.TypeFloat
		res.Normalization = types.NormalizeToFloat
	case subsetOf(kindCounts, types.TypeInteger, types.TypeFloat, types.TypeString):
		res.Type = types.TypeString
		res.Normalization = types.NormalizeToString
	default:
		res.Type = types.TypeUnion
		res.Normalization = types.NormalizeVariant
	}

	res.Confidence = confidence(dominantCount(kindCounts), nonNull, len(values))
	return res
}

// confidence combines type consistency with completeness. Weights follow the
// documented 0.7/0.3 split: a field whose non-null values mostly agree on one
// kind scores high even with some nulls, and vice versa.
func confidence(dominant, nonNull, total int) float64 {
	if total == 0 {
		return 0
	}
	var consistency float64
	if nonNull > 0 {
		consistency = float64(dominant) / float64(nonNull)
	}
	completeness := float64(nonNull) / float64(total)
	return consistency*0.7 + completeness*0.3
}

func dominantCount(kinds map[types.FieldType]int) int {
	max := 0
	for _, n := range kinds {
		if n > max {
			max = n
		}
	}
	return max
}

func subsetOf(kinds map[types.FieldType]int, allowed ...types.FieldType) bool {
	for kind := range kinds {
		found := false
		for _, a := range allowed {
			if kind == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortedKinds(kinds map[types.FieldType]int) []types.FieldType {
	out := make([]types.FieldType, 0, len(kinds))
	for kind := range kinds {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Merge widens an existing resolved type with a newly resolved one along the
// canonical ladder. The existing type is never narrowed: a batch of purely
// narrower-typed values leaves the stored type untouched.
func Merge(existing, incoming types.FieldType) types.FieldType {
	if incoming.Wider(existing) {
		return incoming
	}
	return existing
}
