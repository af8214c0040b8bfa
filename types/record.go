// Package types contains shared domain types used across the schemaflow platform
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a single flat row of data flowing through the pipeline. It
// preserves field insertion order, which map[string]any cannot do; extraction
// order matters for sample values and for reproducing source layout.
//
// Nested structures must be flattened by the extraction layer before a Record
// reaches the core. Values are untyped scalars (nil, bool, number, string);
// type interpretation is the type detector's job, not the record's.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// RecordFromPairs builds a record from alternating key/value pairs, preserving
// the given order. Panics on odd argument counts or non-string keys; intended
// for tests and fixtures.
func RecordFromPairs(pairs ...any) *Record {
	if len(pairs)%2 != 0 {
		panic("types: RecordFromPairs requires an even number of arguments")
	}
	r := NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("types: RecordFromPairs key %d is not a string", i/2))
		}
		r.Set(key, pairs[i+1])
	}
	return r
}

// Set stores a value under the given field name. First insertion fixes the
// field's position; overwriting keeps it.
func (r *Record) Set(field string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[field]; !exists {
		r.keys = append(r.keys, field)
	}
	r.values[field] = value
}

// Get returns the value for a field and whether the field is present.
// A present field holding nil is distinct from an absent field.
func (r *Record) Get(field string) (any, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Has reports whether the field is present in the record.
func (r *Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Fields returns the field names in insertion order.
func (r *Record) Fields() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

// Clone returns a shallow copy of the record.
func (r *Record) Clone() *Record {
	c := &Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]any, len(r.values)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// MarshalJSON encodes the record as a JSON object in field insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyData, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyData)
		buf.WriteByte(':')
		valData, err := json.Marshal(r.values[key])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		buf.Write(valData)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving key order. Nested objects and
// arrays are decoded as-is into any; flattening remains the extractor's
// responsibility.
func (r *Record) UnmarshalJSON(data []byte) error {
	r.keys = nil
	r.values = make(map[string]any)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("types: record must be a JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("types: unexpected key token %v", keyTok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		r.Set(key, normalizeJSONValue(value))
	}

	// Consume closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// ToMap returns the record's contents as a plain map for storage drivers.
// Field order is lost; the driver re-applies it where needed.
func (r *Record) ToMap() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// normalizeJSONValue converts json.Number into int64 where possible, float64
// otherwise, so type detection sees real numeric kinds instead of strings.
func normalizeJSONValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, nested := range val {
			val[k] = normalizeJSONValue(nested)
		}
		return val
	case []any:
		for i, nested := range val {
			val[i] = normalizeJSONValue(nested)
		}
		return val
	default:
		return v
	}
}

// Batch is a finite ordered group of records processed as a unit.
type Batch []*Record

// FieldNames returns the union of field names across all records in the
// batch, in first-observed order. Records may have heterogeneous key sets;
// missing keys are absent, not null.
func (b Batch) FieldNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, rec := range b {
		for _, f := range rec.Fields() {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				names = append(names, f)
			}
		}
	}
	return names
}
