package typedetect

import (
	"strconv"
	"strings"
	"time"

	"github.com/c360/schemaflow/types"
)

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"Jan 2, 2006",
}

// NormalizeValue coerces a raw value to its field's resolved type. Conversion
// failures return the original value unchanged rather than erroring; the
// pipeline never drops data because of a coercion miss.
func NormalizeValue(value any, expected types.FieldType) any {
	if value == nil {
		return nil
	}

	str := strings.TrimSpace(Stringify(value))
	if str == "" {
		return nil
	}
	if _, isNull := nullLiterals[strings.ToLower(str)]; isNull {
		return nil
	}

	switch expected {
	case types.TypeInteger:
		// Parse through float to handle "42.0"
		if f, err := strconv.ParseFloat(str, 64); err == nil {
			return int64(f)
		}
	case types.TypeFloat:
		if f, err := strconv.ParseFloat(str, 64); err == nil {
			return f
		}
	case types.TypeBoolean:
		switch strings.ToLower(str) {
		case "true", "yes", "1":
			return true
		case "false", "no", "0":
			return false
		}
	case types.TypeEmail:
		return strings.ToLower(str)
	case types.TypeDate:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, str); err == nil {
				return t.Format("2006-01-02")
			}
		}
		return str
	case types.TypeString, types.TypeURL:
		return str
	}

	return value
}

// CleanRecord projects a record onto a schema: every schema field is present
// in the output (missing values become nil) and every value is normalized to
// the field's resolved type. Fields absent from the schema are dropped.
func CleanRecord(record *types.Record, schema types.Schema) *types.Record {
	cleaned := types.NewRecord()
	for _, field := range schema.FieldNames() {
		fs := schema[field]
		value, _ := record.Get(field)
		cleaned.Set(field, NormalizeValue(value, fs.Type))
	}
	return cleaned
}
