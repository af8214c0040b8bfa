package versionstore

import (
	"github.com/c360/schemaflow/types"
)

// Diff compares two resolved schema snapshots field by field. Comparison is
// type-equality based, not ladder-aware: a widening such as integer→float is
// reported as modified even though the merge path would allow it silently.
// Removals and modifications are breaking; a schema that only adds fields
// stays backward compatible.
func Diff(old, new types.Schema) *types.SchemaDiff {
	diff := &types.SchemaDiff{
		AddedFields:    []string{},
		RemovedFields:  []string{},
		ModifiedFields: []types.FieldChange{},
	}

	for _, name := range new.FieldNames() {
		if _, ok := old[name]; !ok {
			diff.AddedFields = append(diff.AddedFields, name)
		}
	}

	for _, name := range old.FieldNames() {
		newField, ok := new[name]
		if !ok {
			diff.RemovedFields = append(diff.RemovedFields, name)
			continue
		}
		if old[name].Type != newField.Type {
			diff.ModifiedFields = append(diff.ModifiedFields, types.FieldChange{
				Field:   name,
				OldType: old[name].Type,
				NewType: newField.Type,
			})
		}
	}

	diff.BreakingChanges = len(diff.RemovedFields) > 0 || len(diff.ModifiedFields) > 0
	diff.IsBackwardCompatible = len(diff.RemovedFields) == 0
	return diff
}
