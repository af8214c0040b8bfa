package types

import (
	"sort"
	"time"
)

// FieldType is the primitive kind assigned to a field after type resolution.
type FieldType string

// Field type constants
const (
	TypeNull    FieldType = "null"
	TypeBoolean FieldType = "boolean"
	TypeInteger FieldType = "integer"
	TypeFloat   FieldType = "float"
	TypeDate    FieldType = "date"
	TypeEmail   FieldType = "email"
	TypeURL     FieldType = "url"
	TypeString  FieldType = "string"
	TypeUnion   FieldType = "union"
)

// typeRanks is the canonical widening ladder. Both batch-internal conflict
// resolution and incremental schema merge use this single ordering: a field's
// resolved type only ever moves to a higher rank, never back down.
var typeRanks = map[FieldType]int{
	TypeNull:    0,
	TypeBoolean: 1,
	TypeInteger: 1,
	TypeDate:    2,
	TypeFloat:   2,
	TypeEmail:   3,
	TypeURL:     3,
	TypeString:  3,
	TypeUnion:   4,
}

// Rank returns the field type's position on the widening ladder. Unknown
// types rank 0 so they never displace a known type.
func (ft FieldType) Rank() int {
	return typeRanks[ft]
}

// Wider reports whether ft sits strictly higher on the ladder than other.
func (ft FieldType) Wider(other FieldType) bool {
	return ft.Rank() > other.Rank()
}

// String implements fmt.Stringer.
func (ft FieldType) String() string {
	return string(ft)
}

// NormalizationStrategy records how mixed-type values should be coerced
// downstream so insertion never fails on messy real-world data.
type NormalizationStrategy string

// Normalization strategy constants
const (
	NormalizeNone     NormalizationStrategy = ""
	NormalizeToFloat  NormalizationStrategy = "cast_to_float"
	NormalizeToString NormalizationStrategy = "cast_to_string"
	NormalizeVariant  NormalizationStrategy = "variant_column"
)

// FieldSchema describes one field of a schema: its resolved type, semantic
// classification, and observation counters.
type FieldSchema struct {
	Type             FieldType             `json:"type" bson:"type"`
	Nullable         bool                  `json:"nullable" bson:"nullable"`
	UnionTypes       []FieldType           `json:"union_types,omitempty" bson:"union_types,omitempty"`
	Normalization    NormalizationStrategy `json:"normalization,omitempty" bson:"normalization,omitempty"`
	SemanticCategory string                `json:"semantic_category" bson:"semantic_category"`
	SemanticType     string                `json:"semantic_type,omitempty" bson:"semantic_type,omitempty"`
	Confidence       float64               `json:"confidence" bson:"confidence"`
	ValueProfile     *ValueProfile         `json:"value_profile,omitempty" bson:"value_profile,omitempty"`
	SampleValues     []any                 `json:"sample_values,omitempty" bson:"sample_values,omitempty"`
	OccurrenceCount  int64                 `json:"occurrence_count" bson:"occurrence_count"`
	FirstSeen        time.Time             `json:"first_seen" bson:"first_seen"`
	LastSeen         time.Time             `json:"last_seen" bson:"last_seen"`
}

// Clone returns a deep copy of the field schema.
func (fs *FieldSchema) Clone() *FieldSchema {
	if fs == nil {
		return nil
	}
	c := *fs
	if fs.UnionTypes != nil {
		c.UnionTypes = append([]FieldType(nil), fs.UnionTypes...)
	}
	if fs.SampleValues != nil {
		c.SampleValues = append([]any(nil), fs.SampleValues...)
	}
	if fs.ValueProfile != nil {
		vp := *fs.ValueProfile
		c.ValueProfile = &vp
	}
	return &c
}

// ValueProfile captures statistical heuristics over a field's observed
// values, independent of the name-based semantic classification.
type ValueProfile struct {
	Cardinality     string  `json:"cardinality" bson:"cardinality"`
	UniqueRatio     float64 `json:"unique_ratio" bson:"unique_ratio"`
	AvgLength       float64 `json:"avg_length" bson:"avg_length"`
	HasDigits       bool    `json:"has_digits" bson:"has_digits"`
	HasSpecialChars bool    `json:"has_special_chars" bson:"has_special_chars"`
}

// Cardinality classes produced by value profiling
const (
	CardinalityHigh   = "high_cardinality"
	CardinalityMedium = "medium_cardinality"
	CardinalityLow    = "low_cardinality"
	CardinalityEmpty  = "empty"
	CardinalityNull   = "all_null"
)

// Schema maps field names to their schemas for one (source, entity) pair at
// one point in time. Field names are unique; the map is semantically a set.
type Schema map[string]*FieldSchema

// FieldNames returns the schema's field names sorted lexicographically.
func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	c := make(Schema, len(s))
	for name, fs := range s {
		c[name] = fs.Clone()
	}
	return c
}

// QualityReport summarizes data quality across a schema's fields.
type QualityReport struct {
	TotalFields          int     `json:"total_fields" bson:"total_fields"`
	TotalRecords         int     `json:"total_records" bson:"total_records"`
	FieldsWithNulls      int     `json:"fields_with_nulls" bson:"fields_with_nulls"`
	FieldsWithMixedTypes int     `json:"fields_with_mixed_types" bson:"fields_with_mixed_types"`
	AverageCompleteness  float64 `json:"average_completeness" bson:"average_completeness"`
	QualityScore         float64 `json:"quality_score" bson:"quality_score"`
}
