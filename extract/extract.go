// Package extract turns raw source files into flat record batches ready for
// schema inference. Extractors handle format-specific parsing; nested
// structures are flattened here so downstream components only ever see flat
// records.
package extract

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/types"
)

// Extractor parses one input format into a flat record batch.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (types.Batch, error)
}

// ForPath returns the extractor matching the file extension of path.
func ForPath(path string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONExtractor(), nil
	case ".csv":
		return NewCSVExtractor(), nil
	default:
		return nil, flowerr.WrapInvalid(flowerr.ErrUnsupportedFormat, "extract", "ForPath", "select extractor for "+path)
	}
}

// FromFile opens path and extracts its contents with the extractor matching
// its extension.
func FromFile(ctx context.Context, path string) (types.Batch, error) {
	ex, err := ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, flowerr.WrapInvalid(err, "extract", "FromFile", "open "+path)
	}
	defer f.Close()

	return ex.Extract(ctx, f)
}
