// Package schemaexport renders an inferred schema as external schema
// documents: JSON Schema draft-07 for API consumers and a MongoDB
// $jsonSchema validator for collection-level enforcement. It also derives
// primary-key candidates and index suggestions from the schema's value
// profiles.
package schemaexport

import (
	"fmt"
	"sort"

	"github.com/c360/schemaflow/types"
)

// jsonTypeMap maps field types to JSON Schema types. Date, email and url
// stay strings and carry a format annotation instead.
var jsonTypeMap = map[types.FieldType]string{
	types.TypeInteger: "integer",
	types.TypeFloat:   "number",
	types.TypeBoolean: "boolean",
	types.TypeString:  "string",
	types.TypeDate:    "string",
	types.TypeEmail:   "string",
	types.TypeURL:     "string",
	types.TypeNull:    "null",
}

var jsonFormatMap = map[types.FieldType]string{
	types.TypeDate:  "date-time",
	types.TypeEmail: "email",
	types.TypeURL:   "uri",
}

// bsonTypeMap maps field types to BSON validator types.
var bsonTypeMap = map[types.FieldType]string{
	types.TypeInteger: "int",
	types.TypeFloat:   "double",
	types.TypeBoolean: "bool",
	types.TypeDate:    "date",
	types.TypeString:  "string",
	types.TypeEmail:   "string",
	types.TypeURL:     "string",
	types.TypeNull:    "null",
}

// JSONSchema renders the schema as a JSON Schema draft-07 document. Union
// fields become a type list; non-nullable fields are required.
func JSONSchema(title string, schema types.Schema) map[string]any {
	properties := make(map[string]any, len(schema))
	var required []string

	for _, name := range schema.FieldNames() {
		field := schema[name]

		prop := map[string]any{
			"type":        jsonType(field),
			"description": fmt.Sprintf("Confidence: %.2f", field.Confidence),
		}
		if format, ok := jsonFormatMap[field.Type]; ok {
			prop["format"] = format
		}
		if len(field.SampleValues) > 0 {
			prop["examples"] = field.SampleValues
		}

		properties[name] = prop
		if !field.Nullable {
			required = append(required, name)
		}
	}

	doc := map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"title":      title,
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

// jsonType resolves a field's JSON Schema type: a single name, or a list for
// union fields (nullable fields admit null alongside the resolved type).
func jsonType(field *types.FieldSchema) any {
	if field.Type == types.TypeUnion {
		return unionTypes(field, jsonTypeMap, "string")
	}
	mapped, ok := jsonTypeMap[field.Type]
	if !ok {
		mapped = "string"
	}
	if field.Nullable && mapped != "null" {
		return []string{mapped, "null"}
	}
	return mapped
}

// MongoValidator renders the schema as a MongoDB $jsonSchema validator
// document suitable for collMod/create.
func MongoValidator(schema types.Schema) map[string]any {
	properties := make(map[string]any, len(schema))
	var required []string

	for _, name := range schema.FieldNames() {
		field := schema[name]

		prop := map[string]any{
			"description": fmt.Sprintf("Type: %s, Confidence: %.2f", field.Type, field.Confidence),
		}
		if field.Type == types.TypeUnion {
			prop["bsonType"] = unionTypes(field, bsonTypeMap, "string")
		} else {
			mapped, ok := bsonTypeMap[field.Type]
			if !ok {
				mapped = "string"
			}
			if field.Nullable && mapped != "null" {
				prop["bsonType"] = []string{mapped, "null"}
			} else {
				prop["bsonType"] = mapped
			}
		}

		properties[name] = prop
		if !field.Nullable {
			required = append(required, name)
		}
	}

	inner := map[string]any{
		"bsonType":   "object",
		"properties": properties,
	}
	if len(required) > 0 {
		inner["required"] = required
	}
	return map[string]any{"$jsonSchema": inner}
}

// unionTypes maps a union field's member types through the given table,
// deduplicated and sorted, with null appended for nullable fields.
func unionTypes(field *types.FieldSchema, table map[types.FieldType]string, fallback string) []string {
	seen := make(map[string]struct{})
	for _, member := range field.UnionTypes {
		mapped, ok := table[member]
		if !ok {
			mapped = fallback
		}
		seen[mapped] = struct{}{}
	}
	if field.Nullable {
		seen["null"] = struct{}{}
	}
	if len(seen) == 0 {
		seen[fallback] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
