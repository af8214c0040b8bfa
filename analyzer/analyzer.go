// Package analyzer provides batch-level domain analysis: given a sample of
// records, it names the storage domain, source category, and entity type the
// batch belongs to, with per-field semantic interpretations.
//
// The default implementation is rule-based, composed from the category
// router and the semantic classifier. Richer implementations (LLM-backed
// analysis) plug in behind the same DomainAnalyzer interface; Chain degrades
// to the rule-based analyzer when an enhanced one fails.
package analyzer

import (
	"context"
	"log/slog"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/router"
	"github.com/c360/schemaflow/semantic"
	"github.com/c360/schemaflow/types"
)

// FieldInterpretation is the semantic reading of one field in the sample.
type FieldInterpretation struct {
	Category     string  `json:"category"`
	SemanticType string  `json:"semantic_type"`
	Confidence   float64 `json:"confidence"`
}

// Analysis is the result of analyzing a record sample.
type Analysis struct {
	Domain          string                         `json:"domain"`
	Source          string                         `json:"source"`
	EntityType      string                         `json:"entity_type"`
	Confidence      float64                        `json:"confidence"`
	Interpretations map[string]FieldInterpretation `json:"field_interpretations"`
	RetentionDays   int                            `json:"retention_days"`
}

// DomainAnalyzer inspects a sample of records and reports where they belong.
type DomainAnalyzer interface {
	Analyze(ctx context.Context, sample types.Batch) (*Analysis, error)
}

// RuleBased is the default analyzer. It scores field names against the
// router's keyword tables for source and entity detection, and runs each
// field through the semantic classifier for interpretations.
type RuleBased struct {
	router     *router.Router
	classifier *semantic.Classifier
	logger     *slog.Logger
}

// NewRuleBased creates a rule-based analyzer. A nil classifier gets a default
// keyword-only classifier; a nil logger falls back to slog.Default.
func NewRuleBased(rt *router.Router, classifier *semantic.Classifier, logger *slog.Logger) *RuleBased {
	if rt == nil {
		rt = router.New(logger)
	}
	if classifier == nil {
		classifier = semantic.NewClassifier()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleBased{router: rt, classifier: classifier, logger: logger}
}

// Analyze implements DomainAnalyzer.
func (a *RuleBased) Analyze(ctx context.Context, sample types.Batch) (*Analysis, error) {
	if len(sample) == 0 {
		return nil, flowerr.WrapInvalid(flowerr.ErrEmptyBatch, "analyzer", "Analyze", "analyze sample")
	}

	fields := sample.FieldNames()
	source := a.router.DetectSource(fields)
	entity := a.router.DetectEntity(fields)
	route := a.router.Route(source, entity)

	interpretations := make(map[string]FieldInterpretation, len(fields))
	matched := 0
	for _, field := range fields {
		cls := a.classifier.Classify(ctx, field)
		interpretations[field] = FieldInterpretation{
			Category:     cls.Category,
			SemanticType: cls.SemanticType,
			Confidence:   cls.Confidence,
		}
		if cls.Category != semantic.UnknownCategory {
			matched++
		}
	}

	analysis := &Analysis{
		Domain:          route.Domain,
		Source:          source,
		EntityType:      entity,
		Confidence:      ruleConfidence(source, matched, len(fields)),
		Interpretations: interpretations,
		RetentionDays:   route.RetentionDays,
	}

	a.logger.Debug("sample analyzed",
		"source", source, "entity", entity,
		"domain", route.Domain, "confidence", analysis.Confidence)
	return analysis, nil
}

// ruleConfidence is a coarse score for keyword-based analysis: zero when
// nothing matched, otherwise a floor of 0.5 raised by the fraction of fields
// the semantic catalog recognized, capped at 0.9. Keyword matching never
// reports full confidence.
func ruleConfidence(source string, matched, total int) float64 {
	if source == router.DefaultSource && matched == 0 {
		return 0.0
	}
	score := 0.5
	if total > 0 {
		score += 0.4 * float64(matched) / float64(total)
	}
	if score > 0.9 {
		score = 0.9
	}
	return score
}
