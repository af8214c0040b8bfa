package inference

import (
	"github.com/c360/schemaflow/typedetect"
	"github.com/c360/schemaflow/types"
)

// AssessQuality summarizes data quality for a batch against its inferred
// schema. Completeness is per-field presence of non-null values; the overall
// score penalizes nullable and mixed-type fields.
func AssessQuality(schema types.Schema, batch types.Batch) *types.QualityReport {
	report := &types.QualityReport{
		TotalFields:  len(schema),
		TotalRecords: len(batch),
	}
	if len(schema) == 0 || len(batch) == 0 {
		return report
	}

	var completenessSum float64
	for _, field := range schema.FieldNames() {
		fs := schema[field]
		if fs.Nullable {
			report.FieldsWithNulls++
		}
		if len(fs.UnionTypes) > 0 {
			report.FieldsWithMixedTypes++
		}
		completenessSum += fieldCompleteness(batch, field)
	}

	report.AverageCompleteness = completenessSum / float64(len(schema))

	nullPenalty := float64(report.FieldsWithNulls) / float64(report.TotalFields) * 0.2
	mixedPenalty := float64(report.FieldsWithMixedTypes) / float64(report.TotalFields) * 0.3
	score := report.AverageCompleteness - nullPenalty - mixedPenalty
	if score < 0 {
		score = 0
	}
	report.QualityScore = score
	return report
}

func fieldCompleteness(batch types.Batch, field string) float64 {
	present := 0
	for _, rec := range batch {
		if v, ok := rec.Get(field); ok && !typedetect.IsNull(v) {
			present++
		}
	}
	return float64(present) / float64(len(batch))
}
