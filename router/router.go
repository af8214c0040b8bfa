package router

import (
	"log/slog"
	"strings"

	"github.com/c360/schemaflow/types"
)

// Router resolves where a batch belongs. Zero-config: the rule tables are
// compiled in, and a Router with a nil logger is usable.
type Router struct {
	logger *slog.Logger
}

// New creates a Router.
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger}
}

// DetectSource categorizes field names into a data source. Each rule keyword
// appearing as a substring of any field name scores one point; the highest
// nonzero score wins, ties lexicographically. All-zero scores fall back to
// DefaultSource.
func (r *Router) DetectSource(fieldNames []string) string {
	return detect(fieldNames, sourceRules, DefaultSource)
}

// DetectEntity categorizes field names into an entity type, defaulting to
// DefaultEntity.
func (r *Router) DetectEntity(fieldNames []string) string {
	return detect(fieldNames, entityRules, DefaultEntity)
}

// Route resolves the storage domain and retention policy for a source.
// Unknown sources land in the default domain with one year of retention.
func (r *Router) Route(source, entity string) types.CategoryRoute {
	source = strings.ToLower(source)

	domain, ok := domainTable[source]
	if !ok {
		domain = DefaultDomain
	}
	retention, ok := retentionTable[source]
	if !ok {
		retention = DefaultRetentionDays
	}

	return types.CategoryRoute{
		Source:        source,
		Entity:        strings.ToLower(entity),
		Domain:        domain,
		RetentionDays: retention,
	}
}

// RouteBatch detects source and entity from the batch's field names and
// resolves the full route in one call.
func (r *Router) RouteBatch(batch types.Batch) types.CategoryRoute {
	fields := batch.FieldNames()
	source := r.DetectSource(fields)
	entity := r.DetectEntity(fields)

	r.logger.Info("batch categorized",
		"source", source, "entity", entity, "fields", len(fields))
	return r.Route(source, entity)
}

func detect(fieldNames []string, rules []rule, fallback string) string {
	lowered := make([]string, len(fieldNames))
	for i, f := range fieldNames {
		lowered[i] = strings.ToLower(f)
	}

	best := fallback
	bestScore := 0
	for _, rl := range rules {
		score := 0
		for _, kw := range rl.keywords {
			for _, field := range lowered {
				if strings.Contains(field, kw) {
					score++
					break
				}
			}
		}
		if score == 0 {
			continue
		}
		if score > bestScore || (score == bestScore && rl.name < best) {
			best = rl.name
			bestScore = score
		}
	}
	return best
}
