package semantic

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/c360/schemaflow/pkg/cache"
)

// Classification is the result of classifying a field name.
type Classification struct {
	Category     string
	SemanticType string
	Confidence   float64
	Score        int
}

// UnknownCategory is returned when no catalog category matches a field name
// and no embedding provider produces a usable match.
const UnknownCategory = "unknown"

// embedMatchThreshold is the minimum cosine similarity for an
// embedding-based match to override an unknown rule-based result.
const embedMatchThreshold = 0.5

// Classifier assigns semantic categories to field names. Rule-based catalog
// scoring always runs; an optional Embedder adds a similarity fallback for
// names the catalog cannot place. All methods are safe for concurrent use.
type Classifier struct {
	catalog  []Category
	embedder Embedder
	embCache cache.Cache[[]float32]
	logger   *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithCatalog replaces the default category catalog.
func WithCatalog(catalog []Category) Option {
	return func(c *Classifier) { c.catalog = catalog }
}

// WithEmbedder enables embedding-based fallback classification. Embeddings
// for field and category names are cached in a bounded LRU.
func WithEmbedder(e Embedder) Option {
	return func(c *Classifier) { c.embedder = e }
}

// WithLogger sets the logger used to report degraded classification.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) { c.logger = logger }
}

// NewClassifier creates a classifier with the default catalog.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		catalog:  DefaultCatalog(),
		embCache: cache.NewLRU[[]float32](4096),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClassifyName scores fieldName against every catalog category and returns
// the best match. Scoring is case-insensitive: each keyword appearing as a
// substring adds 10, each matching pattern adds 5. Ties are broken
// lexicographically by category name so results are deterministic. A zero
// score yields UnknownCategory with confidence 0.
func (c *Classifier) ClassifyName(fieldName string) Classification {
	name := strings.ToLower(strings.TrimSpace(fieldName))
	if name == "" {
		return Classification{Category: UnknownCategory, SemanticType: UnknownCategory}
	}

	best := Classification{Category: UnknownCategory, SemanticType: UnknownCategory}
	for _, cat := range c.catalog {
		score := scoreCategory(name, cat)
		if score == 0 {
			continue
		}
		if score > best.Score || (score == best.Score && cat.Name < best.Category) {
			best = Classification{
				Category:     cat.Name,
				SemanticType: cat.SemanticType,
				Confidence:   confidence(score),
				Score:        score,
			}
		}
	}
	return best
}

// Classify is ClassifyName plus the embedding fallback: when the catalog
// scores zero and an Embedder is configured, the field name is matched
// against category names by cosine similarity. Embedder failures are logged
// and degrade to the rule-based result; Classify never returns an error.
func (c *Classifier) Classify(ctx context.Context, fieldName string) Classification {
	result := c.ClassifyName(fieldName)
	if result.Score > 0 || c.embedder == nil {
		return result
	}

	match, ok := c.embedMatch(ctx, strings.ToLower(strings.TrimSpace(fieldName)))
	if !ok {
		return result
	}
	return match
}

// Categories returns the catalog category names in lexicographic order.
func (c *Classifier) Categories() []string {
	names := make([]string, len(c.catalog))
	for i, cat := range c.catalog {
		names[i] = cat.Name
	}
	sort.Strings(names)
	return names
}

func scoreCategory(name string, cat Category) int {
	score := 0
	for _, kw := range cat.Keywords {
		if strings.Contains(name, kw) {
			score += keywordWeight
		}
	}
	for _, p := range cat.Patterns {
		if p.MatchString(name) {
			score += patternWeight
		}
	}
	return score
}

func confidence(score int) float64 {
	conf := float64(score) / confidenceScale
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

// embedMatch finds the catalog category whose name is most similar to the
// field name in embedding space. Returns ok=false on any embedder failure or
// when no category clears the similarity threshold.
func (c *Classifier) embedMatch(ctx context.Context, name string) (Classification, bool) {
	fieldVec, err := c.embedding(ctx, name)
	if err != nil {
		c.logger.Warn("embedding unavailable, using rule-based classification only",
			"field", name, "model", c.embedder.Model(), "error", err)
		return Classification{}, false
	}

	bestSim := 0.0
	var bestCat *Category
	for i := range c.catalog {
		cat := &c.catalog[i]
		catVec, err := c.embedding(ctx, strings.ReplaceAll(cat.Name, "_", " "))
		if err != nil {
			c.logger.Warn("embedding unavailable, using rule-based classification only",
				"category", cat.Name, "model", c.embedder.Model(), "error", err)
			return Classification{}, false
		}
		sim := CosineSimilarity(fieldVec, catVec)
		if sim > bestSim || (sim == bestSim && bestCat != nil && cat.Name < bestCat.Name) {
			bestSim = sim
			bestCat = cat
		}
	}

	if bestCat == nil || bestSim < embedMatchThreshold {
		return Classification{}, false
	}
	return Classification{
		Category:     bestCat.Name,
		SemanticType: bestCat.SemanticType,
		Confidence:   bestSim,
	}, true
}

func (c *Classifier) embedding(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.embCache.Get(text); ok {
		return vec, nil
	}

	vecs, err := c.embedder.Generate(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, nil
	}

	if _, err := c.embCache.Set(text, vecs[0]); err != nil {
		c.logger.Debug("embedding cache rejected key", "text", text, "error", err)
	}
	return vecs[0], nil
}
