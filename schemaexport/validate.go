package schemaexport

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/types"
)

// Validator checks records against an exported JSON Schema document.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles a JSON Schema document, typically one produced by
// JSONSchema.
func NewValidator(doc map[string]any) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, flowerr.WrapInvalid(err, "schemaexport", "NewValidator", "schema compilation")
	}
	return &Validator{schema: compiled}, nil
}

// ValidateRecord checks one record against the compiled schema. The returned
// error lists every violated constraint.
func (v *Validator) ValidateRecord(rec *types.Record) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(rec.ToMap()))
	if err != nil {
		return flowerr.WrapInvalid(err, "schemaexport", "ValidateRecord", "record validation")
	}
	if result.Valid() {
		return nil
	}

	msg := "record validation failed:"
	for _, desc := range result.Errors() {
		msg += fmt.Sprintf(" %s: %s;", desc.Field(), desc.Description())
	}
	return flowerr.WrapInvalid(fmt.Errorf("%s", msg), "schemaexport", "ValidateRecord", "record validation")
}

// ValidateBatch checks every record and returns one error per invalid
// record, indexed by batch position.
func (v *Validator) ValidateBatch(batch types.Batch) map[int]error {
	var failures map[int]error
	for i, rec := range batch {
		if err := v.ValidateRecord(rec); err != nil {
			if failures == nil {
				failures = make(map[int]error)
			}
			failures[i] = err
		}
	}
	return failures
}
