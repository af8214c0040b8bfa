package typedetect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360/schemaflow/types"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected types.FieldType
	}{
		// Null sentinels
		{"nil", nil, types.TypeNull},
		{"empty string", "", types.TypeNull},
		{"whitespace", "   ", types.TypeNull},
		{"null literal", "null", types.TypeNull},
		{"NULL uppercase", "NULL", types.TypeNull},
		{"n/a", "N/A", types.TypeNull},
		{"none", "None", types.TypeNull},

		// Booleans claim "1"/"0" before integer parsing
		{"typed bool", true, types.TypeBoolean},
		{"true string", "true", types.TypeBoolean},
		{"False string", "False", types.TypeBoolean},
		{"yes", "yes", types.TypeBoolean},
		{"NO", "NO", types.TypeBoolean},
		{"one string", "1", types.TypeBoolean},
		{"zero string", "0", types.TypeBoolean},
		{"typed int 1", int64(1), types.TypeBoolean},

		// Integers
		{"typed int", int64(42), types.TypeInteger},
		{"int string", "42", types.TypeInteger},
		{"negative int", "-7", types.TypeInteger},

		// Floats
		{"typed float", 10.5, types.TypeFloat},
		{"float string", "10.5", types.TypeFloat},
		{"whole float stays integer kind", 42.0, types.TypeInteger},
		{"decimal point forces float", "42.0", types.TypeFloat},
		{"scientific notation", "1e5", types.TypeFloat},

		// Dates (prefix match: ISO timestamps count)
		{"iso date", "2024-01-15", types.TypeDate},
		{"iso timestamp", "2024-01-15T10:30:00Z", types.TypeDate},
		{"slash date", "15/01/2024", types.TypeDate},
		{"dash date", "15-01-2024", types.TypeDate},
		{"month name date", "Jan 15, 2024", types.TypeDate},

		// Email and URL
		{"email", "user@example.com", types.TypeEmail},
		{"email with plus", "user+tag@sub.example.co", types.TypeEmail},
		{"http url", "http://example.com", types.TypeURL},
		{"https url", "https://example.com/path?q=1", types.TypeURL},

		// Fallback
		{"plain string", "hello world", types.TypeString},
		{"not quite email", "user@invalid", types.TypeString},
		{"partial date", "2024-1-5", types.TypeString},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, DetectKind(test.value))
		})
	}
}

func TestResolveField_SingleKind(t *testing.T) {
	res := ResolveField([]any{"a", "b", "c"})
	assert.Equal(t, types.TypeString, res.Type)
	assert.False(t, res.Nullable)
	assert.Empty(t, res.UnionTypes)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
}

func TestResolveField_AllNull(t *testing.T) {
	res := ResolveField([]any{nil, "", "n/a"})
	assert.Equal(t, types.TypeNull, res.Type)
	assert.True(t, res.Nullable)
	assert.Equal(t, 0, res.NonNullCount)
	assert.Equal(t, 3, res.NullCount)
}

func TestResolveField_NumericCollapse(t *testing.T) {
	// Scenario: [10, 10.5, "10"] -> kinds {integer, float} -> float
	res := ResolveField([]any{int64(10), 10.5, "10"})
	assert.Equal(t, types.TypeFloat, res.Type)
	assert.Equal(t, types.NormalizeToFloat, res.Normalization)
	assert.ElementsMatch(t, []types.FieldType{types.TypeInteger, types.TypeFloat}, res.UnionTypes)
}

func TestResolveField_NumericPlusString(t *testing.T) {
	res := ResolveField([]any{int64(10), 10.5, "ten"})
	assert.Equal(t, types.TypeString, res.Type)
	assert.Equal(t, types.NormalizeToString, res.Normalization)
}

func TestResolveField_IncompatibleUnion(t *testing.T) {
	res := ResolveField([]any{int64(10), "2024-01-15", "user@example.com"})
	assert.Equal(t, types.TypeUnion, res.Type)
	assert.Equal(t, types.NormalizeVariant, res.Normalization)
	assert.Len(t, res.UnionTypes, 3)
}

func TestResolveField_NullableWithNulls(t *testing.T) {
	res := ResolveField([]any{"a", nil, "b"})
	assert.Equal(t, types.TypeString, res.Type)
	assert.True(t, res.Nullable)
}

func TestResolveField_Confidence(t *testing.T) {
	// 4 values: 3 strings, 1 null. Consistency 3/3=1.0, completeness 3/4.
	res := ResolveField([]any{"a", "b", "c", nil})
	expected := 1.0*0.7 + 0.75*0.3
	assert.InDelta(t, expected, res.Confidence, 1e-9)

	// Mixed kinds lower consistency: 2 integers, 1 string, no nulls.
	res = ResolveField([]any{int64(7), int64(8), "x"})
	expected = (2.0/3.0)*0.7 + 1.0*0.3
	assert.InDelta(t, expected, res.Confidence, 1e-9)
}

func TestMerge_NeverNarrows(t *testing.T) {
	assert.Equal(t, types.TypeFloat, Merge(types.TypeInteger, types.TypeFloat))
	assert.Equal(t, types.TypeFloat, Merge(types.TypeFloat, types.TypeInteger))
	assert.Equal(t, types.TypeString, Merge(types.TypeString, types.TypeFloat))
	assert.Equal(t, types.TypeString, Merge(types.TypeFloat, types.TypeString))
	assert.Equal(t, types.TypeUnion, Merge(types.TypeString, types.TypeUnion))

	// Equal ranks keep the existing type
	assert.Equal(t, types.TypeEmail, Merge(types.TypeEmail, types.TypeString))
	assert.Equal(t, types.TypeInteger, Merge(types.TypeInteger, types.TypeBoolean))
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected types.FieldType
		want     any
	}{
		{"float string to int", "42.0", types.TypeInteger, int64(42)},
		{"int string to float", "10", types.TypeFloat, 10.0},
		{"yes to bool", "yes", types.TypeBoolean, true},
		{"no to bool", "no", types.TypeBoolean, false},
		{"email lowercased", "User@Example.COM", types.TypeEmail, "user@example.com"},
		{"slash date standardized", "15/01/2024", types.TypeDate, "2024-01-15"},
		{"month name date standardized", "Jan 15, 2024", types.TypeDate, "2024-01-15"},
		{"unparseable date kept", "sometime soon", types.TypeDate, "sometime soon"},
		{"nil stays nil", nil, types.TypeString, nil},
		{"null literal becomes nil", "N/A", types.TypeString, nil},
		{"unconvertible returns original", "abc", types.TypeInteger, "abc"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, NormalizeValue(test.value, test.expected))
		})
	}
}

func TestCleanRecord(t *testing.T) {
	schema := types.Schema{
		"id":    {Type: types.TypeInteger},
		"price": {Type: types.TypeFloat},
		"email": {Type: types.TypeEmail},
	}

	rec := types.RecordFromPairs("id", "7", "email", "A@B.CO", "extra", "dropped")
	cleaned := CleanRecord(rec, schema)

	id, _ := cleaned.Get("id")
	assert.Equal(t, int64(7), id)

	email, _ := cleaned.Get("email")
	assert.Equal(t, "a@b.co", email)

	// Missing schema field filled with nil
	price, ok := cleaned.Get("price")
	assert.True(t, ok)
	assert.Nil(t, price)

	// Non-schema field dropped
	assert.False(t, cleaned.Has("extra"))
}
