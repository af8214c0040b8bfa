package schemaexport

import (
	"strings"

	"github.com/c360/schemaflow/types"
)

// indexPatterns are name fragments that mark a field as a lookup key worth
// indexing regardless of its cardinality.
var indexPatterns = []string{"id", "key", "code", "slug", "email", "username"}

const (
	pkUniquenessThreshold    = 0.95
	indexUniquenessThreshold = 0.9
)

// KeyCandidate is a field proposed as a primary key.
type KeyCandidate struct {
	Field      string  `json:"field"`
	Uniqueness float64 `json:"uniqueness"`
	Reason     string  `json:"reason"`
}

// IndexSuggestion is a field proposed for a secondary index.
type IndexSuggestion struct {
	Field  string `json:"field"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// PrimaryKeyCandidates returns fields with id-like names whose observed
// uniqueness clears the primary-key threshold. Fields without a value
// profile are never candidates.
func PrimaryKeyCandidates(schema types.Schema) []KeyCandidate {
	var candidates []KeyCandidate

	for _, name := range schema.FieldNames() {
		field := schema[name]
		if field.ValueProfile == nil {
			continue
		}

		lower := strings.ToLower(name)
		if !strings.Contains(lower, "id") && !strings.Contains(lower, "key") {
			continue
		}
		if field.ValueProfile.UniqueRatio > pkUniquenessThreshold {
			candidates = append(candidates, KeyCandidate{
				Field:      name,
				Uniqueness: field.ValueProfile.UniqueRatio,
				Reason:     "high_uniqueness_and_naming",
			})
		}
	}
	return candidates
}

// SuggestIndexes returns fields worth a secondary index: id-like names, or
// high observed cardinality.
func SuggestIndexes(schema types.Schema) []IndexSuggestion {
	var suggestions []IndexSuggestion

	for _, name := range schema.FieldNames() {
		field := schema[name]
		if !shouldIndex(name, field) {
			continue
		}
		suggestions = append(suggestions, IndexSuggestion{
			Field:  name,
			Type:   "btree",
			Reason: "frequently queried or high cardinality",
		})
	}
	return suggestions
}

func shouldIndex(name string, field *types.FieldSchema) bool {
	lower := strings.ToLower(name)
	for _, pattern := range indexPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return field.ValueProfile != nil && field.ValueProfile.UniqueRatio > indexUniquenessThreshold
}
