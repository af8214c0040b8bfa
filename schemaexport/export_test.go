package schemaexport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/schemaflow/types"
)

func productSchema() types.Schema {
	return types.Schema{
		"id": {
			Type:       types.TypeString,
			Confidence: 0.95,
			ValueProfile: &types.ValueProfile{
				Cardinality: types.CardinalityHigh,
				UniqueRatio: 1.0,
			},
		},
		"price": {
			Type:         types.TypeFloat,
			Confidence:   0.9,
			SampleValues: []any{10.5, 20.0},
		},
		"created_at": {
			Type:       types.TypeDate,
			Confidence: 0.85,
		},
		"contact": {
			Type:       types.TypeEmail,
			Nullable:   true,
			Confidence: 0.8,
		},
		"sku": {
			Type:       types.TypeUnion,
			UnionTypes: []types.FieldType{types.TypeInteger, types.TypeString},
			Confidence: 0.5,
		},
	}
}

func TestJSONSchema(t *testing.T) {
	doc := JSONSchema("products", productSchema())

	assert.Equal(t, "http://json-schema.org/draft-07/schema#", doc["$schema"])
	assert.Equal(t, "products", doc["title"])
	assert.Equal(t, "object", doc["type"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)

	price := props["price"].(map[string]any)
	assert.Equal(t, "number", price["type"])
	assert.Equal(t, []any{10.5, 20.0}, price["examples"])

	createdAt := props["created_at"].(map[string]any)
	assert.Equal(t, "string", createdAt["type"])
	assert.Equal(t, "date-time", createdAt["format"])

	// Nullable fields admit null alongside the resolved type.
	contact := props["contact"].(map[string]any)
	assert.Equal(t, []string{"string", "null"}, contact["type"])
	assert.Equal(t, "email", contact["format"])

	// Union fields become a sorted type list.
	sku := props["sku"].(map[string]any)
	assert.Equal(t, []string{"integer", "string"}, sku["type"])

	required, ok := doc["required"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"id", "price", "created_at", "sku"}, required)
	assert.NotContains(t, required, "contact")
}

func TestMongoValidator(t *testing.T) {
	doc := MongoValidator(productSchema())

	inner, ok := doc["$jsonSchema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", inner["bsonType"])

	props := inner["properties"].(map[string]any)

	price := props["price"].(map[string]any)
	assert.Equal(t, "double", price["bsonType"])

	createdAt := props["created_at"].(map[string]any)
	assert.Equal(t, "date", createdAt["bsonType"])

	contact := props["contact"].(map[string]any)
	assert.Equal(t, []string{"null", "string"}, contact["bsonType"])

	sku := props["sku"].(map[string]any)
	assert.Equal(t, []string{"int", "string"}, sku["bsonType"])

	required := inner["required"].([]string)
	assert.NotContains(t, required, "contact")
	assert.Contains(t, required, "id")
}

func TestValidator_RecordRoundTrip(t *testing.T) {
	schema := types.Schema{
		"name": {Type: types.TypeString},
		"age":  {Type: types.TypeInteger, Nullable: true},
	}

	v, err := NewValidator(JSONSchema("people", schema))
	require.NoError(t, err)

	assert.NoError(t, v.ValidateRecord(types.RecordFromPairs("name", "Ada", "age", int64(36))))
	assert.NoError(t, v.ValidateRecord(types.RecordFromPairs("name", "Ada", "age", nil)))

	err = v.ValidateRecord(types.RecordFromPairs("name", "Ada", "age", "thirty"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "age")

	// Missing required field.
	err = v.ValidateRecord(types.RecordFromPairs("age", int64(36)))
	require.Error(t, err)
}

func TestValidator_ValidateBatch(t *testing.T) {
	schema := types.Schema{"name": {Type: types.TypeString}}

	v, err := NewValidator(JSONSchema("people", schema))
	require.NoError(t, err)

	batch := types.Batch{
		types.RecordFromPairs("name", "Ada"),
		types.RecordFromPairs("name", int64(7)),
		types.RecordFromPairs("name", "Grace"),
	}

	failures := v.ValidateBatch(batch)
	require.Len(t, failures, 1)
	assert.Contains(t, failures, 1)

	assert.Nil(t, v.ValidateBatch(types.Batch{types.RecordFromPairs("name", "ok")}))
}

func TestPrimaryKeyCandidates(t *testing.T) {
	schema := types.Schema{
		"order_id": {
			Type:         types.TypeString,
			ValueProfile: &types.ValueProfile{UniqueRatio: 1.0},
		},
		"session_key": {
			Type:         types.TypeString,
			ValueProfile: &types.ValueProfile{UniqueRatio: 0.97},
		},
		"category_id": {
			Type:         types.TypeString,
			ValueProfile: &types.ValueProfile{UniqueRatio: 0.4},
		},
		"price": {
			Type:         types.TypeFloat,
			ValueProfile: &types.ValueProfile{UniqueRatio: 1.0},
		},
		"unprofiled_id": {Type: types.TypeString},
	}

	candidates := PrimaryKeyCandidates(schema)
	fields := make([]string, len(candidates))
	for i, c := range candidates {
		fields[i] = c.Field
	}
	assert.ElementsMatch(t, []string{"order_id", "session_key"}, fields)
}

func TestSuggestIndexes(t *testing.T) {
	schema := types.Schema{
		"order_id": {Type: types.TypeString},
		"slug":     {Type: types.TypeString},
		"sku": {
			Type:         types.TypeString,
			ValueProfile: &types.ValueProfile{UniqueRatio: 0.99},
		},
		"status": {
			Type:         types.TypeString,
			ValueProfile: &types.ValueProfile{UniqueRatio: 0.02},
		},
	}

	suggestions := SuggestIndexes(schema)
	fields := make([]string, len(suggestions))
	for i, s := range suggestions {
		fields[i] = s.Field
	}
	assert.ElementsMatch(t, []string{"order_id", "slug", "sku"}, fields)
	for _, s := range suggestions {
		assert.Equal(t, "btree", s.Type)
	}
}
