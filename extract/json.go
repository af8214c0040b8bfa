package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/types"
)

// JSONExtractor parses a JSON document into flat records. The top level may
// be a single object (one record) or an array of objects (one record each).
// Nested objects are flattened with a dot separator ("address.city") and
// array elements with a bracketed index ("tags[0]").
type JSONExtractor struct {
	// Separator joins nested keys. Defaults to ".".
	Separator string
}

// NewJSONExtractor returns a JSONExtractor with default settings.
func NewJSONExtractor() *JSONExtractor {
	return &JSONExtractor{Separator: "."}
}

// Extract implements Extractor.
func (e *JSONExtractor) Extract(ctx context.Context, r io.Reader) (types.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, flowerr.WrapTransient(err, "extract", "Extract", "read input")
	}

	sep := e.Separator
	if sep == "" {
		sep = "."
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, flowerr.WrapInvalid(flowerr.ErrParsingFailed, "extract", "Extract", "empty input")
	}

	switch trimmed[0] {
	case '{':
		rec, err := decodeRecord(trimmed)
		if err != nil {
			return nil, err
		}
		return types.Batch{e.flatten(rec, sep)}, nil
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, flowerr.WrapInvalid(flowerr.ErrParsingFailed, "extract", "Extract", fmt.Sprintf("decode array: %v", err))
		}
		batch := make(types.Batch, 0, len(elements))
		for i, raw := range elements {
			rec, err := decodeRecord(raw)
			if err != nil {
				return nil, flowerr.WrapInvalid(flowerr.ErrParsingFailed, "extract", "Extract", fmt.Sprintf("element %d: %v", i, err))
			}
			batch = append(batch, e.flatten(rec, sep))
		}
		return batch, nil
	default:
		return nil, flowerr.WrapInvalid(flowerr.ErrParsingFailed, "extract", "Extract", "top-level value must be an object or array")
	}
}

func decodeRecord(data []byte) (*types.Record, error) {
	rec := types.NewRecord()
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, flowerr.WrapInvalid(flowerr.ErrParsingFailed, "extract", "decodeRecord", fmt.Sprintf("decode object: %v", err))
	}
	return rec, nil
}

// flatten rewrites a decoded record so nested objects and arrays become
// dotted and indexed leaf fields. Records that are already flat pass through
// unchanged.
func (e *JSONExtractor) flatten(rec *types.Record, sep string) *types.Record {
	flat := types.NewRecord()
	for _, field := range rec.Fields() {
		value, _ := rec.Get(field)
		flattenInto(flat, field, value, sep)
	}
	return flat
}

// flattenInto walks a decoded JSON value, writing leaf scalars into rec.
// Maps nest with the separator, arrays index with "[i]". Empty containers
// are kept as-is so the field is not silently dropped.
func flattenInto(rec *types.Record, prefix string, value any, sep string) {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 {
			rec.Set(prefix, map[string]any{})
			return
		}
		for _, key := range sortedKeys(v) {
			flattenInto(rec, prefix+sep+key, v[key], sep)
		}
	case []any:
		if len(v) == 0 {
			rec.Set(prefix, []any{})
			return
		}
		for i, item := range v {
			flattenInto(rec, fmt.Sprintf("%s[%d]", prefix, i), item, sep)
		}
	default:
		rec.Set(prefix, v)
	}
}

// sortedKeys makes nested-map flattening deterministic; Go map iteration
// order would otherwise shuffle the flattened fields between runs.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
