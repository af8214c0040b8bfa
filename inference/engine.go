// Package inference folds record batches into schemas. The engine is the
// composition point for type detection and semantic classification: it walks
// the union of field names across a batch, resolves each field's type and
// semantics, and merges the result into an existing schema without ever
// narrowing a stored type.
package inference

import (
	"context"
	"log/slog"
	"time"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/semantic"
	"github.com/c360/schemaflow/typedetect"
	"github.com/c360/schemaflow/types"
)

// sampleLimit caps stored sample values per field.
const sampleLimit = 3

// Engine infers and evolves schemas from record batches. Safe for concurrent
// use: all state is read-only after construction and input schemas are never
// mutated.
type Engine struct {
	classifier *semantic.Classifier
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// withClock overrides the time source, for tests.
func withClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an inference engine. A nil classifier gets the default
// rule-based one.
func NewEngine(classifier *semantic.Classifier, opts ...Option) *Engine {
	e := &Engine{
		classifier: classifier,
		logger:     slog.Default(),
		now:        time.Now,
	}
	if e.classifier == nil {
		e.classifier = semantic.NewClassifier()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Infer resolves a schema for the batch and merges it into existing. The
// returned schema is a new value; existing is not modified.
//
// Field names come from the union across all records. A record missing a key
// contributes nothing for that field: absence is not null. New fields get a
// full entry with a fresh first_seen; known fields have their occurrence
// count incremented, last_seen refreshed, and their type re-resolved by
// widening only, so an existing wider type survives a batch of narrower
// values. Calling Infer twice with the same inputs yields the same schema
// apart from timestamps.
func (e *Engine) Infer(ctx context.Context, batch types.Batch, existing types.Schema) (types.Schema, error) {
	if len(batch) == 0 {
		return nil, flowerr.WrapInvalid(flowerr.ErrEmptyBatch, "inference", "Infer", "schema inference")
	}

	now := e.now().UTC()
	result := existing.Clone()
	if result == nil {
		result = make(types.Schema)
	}

	for _, field := range batch.FieldNames() {
		values := collectValues(batch, field)
		res := typedetect.ResolveField(values)

		current, known := result[field]
		if !known {
			result[field] = e.newField(ctx, field, values, res, now)
			continue
		}
		e.mergeField(field, current, values, res, now)
	}

	return result, nil
}

// InferBatch is Infer with no prior schema.
func (e *Engine) InferBatch(ctx context.Context, batch types.Batch) (types.Schema, error) {
	return e.Infer(ctx, batch, nil)
}

// collectValues gathers the values present for field across the batch.
// Records without the key are skipped entirely.
func collectValues(batch types.Batch, field string) []any {
	values := make([]any, 0, len(batch))
	for _, rec := range batch {
		if v, ok := rec.Get(field); ok {
			values = append(values, v)
		}
	}
	return values
}

func (e *Engine) newField(ctx context.Context, field string, values []any, res typedetect.Resolution, now time.Time) *types.FieldSchema {
	cls := e.classifier.Classify(ctx, field)

	fs := &types.FieldSchema{
		Type:             res.Type,
		Nullable:         res.Nullable,
		UnionTypes:       res.UnionTypes,
		Normalization:    res.Normalization,
		SemanticCategory: cls.Category,
		SemanticType:     cls.SemanticType,
		Confidence:       res.Confidence,
		ValueProfile:     semantic.ProfileValues(values),
		SampleValues:     sampleValues(values, sampleLimit),
		OccurrenceCount:  int64(len(values)),
		FirstSeen:        now,
		LastSeen:         now,
	}
	if cls.Category == semantic.UnknownCategory {
		e.logger.Debug("field has no semantic category", "field", field, "type", res.Type)
	}
	return fs
}

// mergeField folds a batch resolution into an already-known field in place.
// current belongs to the result schema clone, never to the caller's input.
func (e *Engine) mergeField(field string, current *types.FieldSchema, values []any, res typedetect.Resolution, now time.Time) {
	merged := typedetect.Merge(current.Type, res.Type)
	if merged != current.Type {
		e.logger.Info("field type widened",
			"field", field, "from", current.Type, "to", merged)
		current.Type = merged
		// The widened type carries the batch's normalization and union info.
		current.Normalization = res.Normalization
		current.UnionTypes = mergeUnionTypes(current.UnionTypes, res.UnionTypes)
	}

	current.Nullable = current.Nullable || res.Nullable
	current.OccurrenceCount += int64(len(values))
	current.LastSeen = now
	current.ValueProfile = semantic.ProfileValues(values)

	// Top samples up to the limit with values not already recorded.
	current.SampleValues = topUpSamples(current.SampleValues, values, sampleLimit)

	// Confidence reflects the most recent observations.
	if res.Confidence > 0 {
		current.Confidence = res.Confidence
	}
}

// sampleValues keeps up to limit distinct non-null values in first-seen
// order.
func sampleValues(values []any, limit int) []any {
	samples := make([]any, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, v := range values {
		if len(samples) == limit {
			break
		}
		if typedetect.IsNull(v) {
			continue
		}
		key := typedetect.Stringify(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		samples = append(samples, v)
	}
	return samples
}

func topUpSamples(existing []any, values []any, limit int) []any {
	if len(existing) >= limit {
		return existing
	}
	seen := make(map[string]struct{}, limit)
	for _, v := range existing {
		seen[typedetect.Stringify(v)] = struct{}{}
	}
	for _, v := range values {
		if len(existing) == limit {
			break
		}
		if typedetect.IsNull(v) {
			continue
		}
		key := typedetect.Stringify(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		existing = append(existing, v)
	}
	return existing
}

func mergeUnionTypes(a, b []types.FieldType) []types.FieldType {
	if len(b) == 0 {
		return a
	}
	seen := make(map[types.FieldType]struct{}, len(a)+len(b))
	out := make([]types.FieldType, 0, len(a)+len(b))
	for _, t := range a {
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	for _, t := range b {
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
