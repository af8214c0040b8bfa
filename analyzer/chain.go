package analyzer

import (
	"context"
	"log/slog"

	"github.com/c360/schemaflow/types"
)

// Chain tries analyzers in order and returns the first successful analysis.
// The intended shape is an enhanced analyzer first with RuleBased last, so
// enrichment failures degrade to keyword matching instead of failing the
// batch.
type Chain struct {
	analyzers []DomainAnalyzer
	logger    *slog.Logger
}

// NewChain builds a chain from the given analyzers, tried front to back.
func NewChain(logger *slog.Logger, analyzers ...DomainAnalyzer) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{analyzers: analyzers, logger: logger}
}

// Analyze implements DomainAnalyzer. The last analyzer's error is returned
// when every link fails.
func (c *Chain) Analyze(ctx context.Context, sample types.Batch) (*Analysis, error) {
	var lastErr error
	for i, a := range c.analyzers {
		analysis, err := a.Analyze(ctx, sample)
		if err == nil {
			return analysis, nil
		}
		lastErr = err
		if i < len(c.analyzers)-1 {
			c.logger.Warn("analyzer failed, falling back", "position", i, "error", err)
		}
	}
	return nil, lastErr
}
