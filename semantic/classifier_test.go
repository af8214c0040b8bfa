package semantic

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyName_Contact(t *testing.T) {
	c := NewClassifier()

	result := c.ClassifyName("customer_email")
	assert.Equal(t, "contact", result.Category)
	assert.Equal(t, "contact_info", result.SemanticType)
	// keyword "email" (10) + pattern "email" (5)
	assert.Equal(t, 15, result.Score)
	assert.InDelta(t, 0.75, result.Confidence, 1e-9)
}

func TestClassifyName_Table(t *testing.T) {
	c := NewClassifier()

	cases := []struct {
		field    string
		category string
	}{
		{"unit_price", "monetary"},
		{"order_id", "identifier"},
		{"created_at", "temporal"},
		{"shipping_address", "location"},
		{"latitude", "coordinates"},
		{"star_rating", "rating"},
		{"avatar_url", "image_media"},
		{"is_active", "status"},
		{"phone_number", "contact"},
		{"api_token", "authentication"},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			result := c.ClassifyName(tc.field)
			assert.Equal(t, tc.category, result.Category, "field %q", tc.field)
			assert.Positive(t, result.Confidence)
		})
	}
}

func TestClassifyName_Unknown(t *testing.T) {
	c := NewClassifier()

	for _, field := range []string{"xyzzy", "", "   "} {
		result := c.ClassifyName(field)
		assert.Equal(t, UnknownCategory, result.Category)
		assert.Equal(t, UnknownCategory, result.SemanticType)
		assert.Zero(t, result.Confidence)
	}
}

func TestClassifyName_ConfidenceCapped(t *testing.T) {
	c := NewClassifier()

	// "email_contact_phone" hits three contact keywords plus patterns;
	// confidence saturates at 1.0.
	result := c.ClassifyName("email_contact_phone")
	assert.Equal(t, "contact", result.Category)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestClassifyName_TieBreaksLexicographically(t *testing.T) {
	catalog := []Category{
		{Name: "zeta", SemanticType: "z", Keywords: []string{"widget"}},
		{Name: "alpha", SemanticType: "a", Keywords: []string{"widget"}},
	}

	// Declaration order must not matter.
	c1 := NewClassifier(WithCatalog(catalog))
	c2 := NewClassifier(WithCatalog([]Category{catalog[1], catalog[0]}))

	assert.Equal(t, "alpha", c1.ClassifyName("widget").Category)
	assert.Equal(t, "alpha", c2.ClassifyName("widget").Category)
}

func TestCatalog_CompilesAndCovers(t *testing.T) {
	catalog := DefaultCatalog()
	require.GreaterOrEqual(t, len(catalog), 30)

	seen := make(map[string]bool)
	for _, cat := range catalog {
		assert.NotEmpty(t, cat.Name)
		assert.NotEmpty(t, cat.SemanticType)
		assert.NotEmpty(t, cat.Keywords)
		assert.False(t, seen[cat.Name], "duplicate category %q", cat.Name)
		seen[cat.Name] = true
	}
}

// stubEmbedder returns canned vectors keyed by input text; unknown texts get
// the fallback vector.
type stubEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
}

func (s *stubEmbedder) Generate(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := s.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = s.fallback
		}
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return 2 }
func (s *stubEmbedder) Model() string   { return "stub" }
func (s *stubEmbedder) Close() error    { return nil }

func TestClassify_EmbeddingFallback(t *testing.T) {
	emb := &stubEmbedder{
		vectors: map[string][]float32{
			"xyzzy":    {1, 0},
			"monetary": {1, 0},
		},
		fallback: []float32{0, 1},
	}
	c := NewClassifier(WithEmbedder(emb))

	// Rule-based hit wins without consulting the embedder.
	result := c.Classify(context.Background(), "customer_email")
	assert.Equal(t, "contact", result.Category)

	// Rule-based miss falls back to embedding similarity.
	result = c.Classify(context.Background(), "xyzzy")
	assert.Equal(t, "monetary", result.Category)
	assert.Equal(t, "financial", result.SemanticType)
	assert.InDelta(t, 1.0, result.Confidence, 1e-6)
}

func TestClassify_EmbedderFailureDegrades(t *testing.T) {
	emb := &stubEmbedder{err: errors.New("connection refused")}
	c := NewClassifier(WithEmbedder(emb))

	result := c.Classify(context.Background(), "xyzzy")
	assert.Equal(t, UnknownCategory, result.Category)
	assert.Zero(t, result.Confidence)
}

func TestClassify_NoEmbedderIsRuleBased(t *testing.T) {
	c := NewClassifier()
	result := c.Classify(context.Background(), "xyzzy")
	assert.Equal(t, UnknownCategory, result.Category)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Mismatched and degenerate inputs score zero.
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func ExampleClassifier_ClassifyName() {
	c := NewClassifier()
	result := c.ClassifyName("customer_email")
	fmt.Println(result.Category, result.SemanticType)
	// Output: contact contact_info
}
