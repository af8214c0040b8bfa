package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/types"
)

// CSVExtractor parses delimited text into records. Values are kept as raw
// strings; the type detector recognizes numeric, boolean, and date literals
// from their string forms, so the extractor does not guess types.
type CSVExtractor struct {
	// Delimiter separates fields. Defaults to ','.
	Delimiter rune
	// NoHeader treats the first row as data, synthesizing column names
	// "column_1", "column_2", ...
	NoHeader bool
}

// NewCSVExtractor returns a CSVExtractor with default settings.
func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{Delimiter: ','}
}

// Extract implements Extractor.
func (e *CSVExtractor) Extract(ctx context.Context, r io.Reader) (types.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	if e.Delimiter != 0 {
		reader.Comma = e.Delimiter
	}
	reader.TrimLeadingSpace = true
	// Ragged rows are tolerated: short rows leave trailing fields absent,
	// long rows drop the overflow.
	reader.FieldsPerRecord = -1

	var (
		header []string
		batch  types.Batch
		row    int
	)
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, flowerr.WrapInvalid(flowerr.ErrParsingFailed, "extract", "Extract", fmt.Sprintf("row %d: %v", row+1, err))
		}
		row++

		if header == nil {
			if e.NoHeader {
				header = make([]string, len(fields))
				for i := range fields {
					header[i] = fmt.Sprintf("column_%d", i+1)
				}
			} else {
				header = fields
				continue
			}
		}

		rec := types.NewRecord()
		for i, value := range fields {
			if i >= len(header) {
				break
			}
			if value == "" {
				rec.Set(header[i], nil)
				continue
			}
			rec.Set(header[i], value)
		}
		batch = append(batch, rec)
	}

	return batch, nil
}
