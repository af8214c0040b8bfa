// Package typedetect classifies raw values into primitive field kinds and
// resolves a single field type from the kinds observed across a batch.
//
// Detection order is a design decision, not incidental: null sentinels are
// checked first, then the boolean literal set (which claims "1" and "0"
// before integer parsing sees them), then numeric parsing, then the date,
// email and URL patterns, with string as the fallback. Changing the order
// changes classification of ambiguous inputs.
package typedetect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/c360/schemaflow/types"
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),         // YYYY-MM-DD (prefix: matches ISO timestamps too)
		regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`),         // DD/MM/YYYY
		regexp.MustCompile(`^\d{2}-\d{2}-\d{4}`),         // DD-MM-YYYY
		regexp.MustCompile(`^[A-Za-z]{3}\s+\d{1,2},\s+\d{4}`), // Mon DD, YYYY
	}

	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	urlPattern   = regexp.MustCompile(`^https?://`)

	nullLiterals = map[string]struct{}{
		"null": {},
		"n/a":  {},
		"none": {},
	}

	boolLiterals = map[string]struct{}{
		"true": {}, "false": {},
		"yes": {}, "no": {},
		"1": {}, "0": {},
	}
)

// DetectKind classifies a single raw value into a primitive field kind.
// Values may arrive typed (bool, int64, float64 from JSON decoding) or
// string-encoded (everything from CSV); both go through the same rules.
func DetectKind(value any) types.FieldType {
	if value == nil {
		return types.TypeNull
	}

	// Typed booleans short-circuit; their string forms would match anyway.
	if _, ok := value.(bool); ok {
		return types.TypeBoolean
	}

	str := strings.TrimSpace(Stringify(value))
	if str == "" {
		return types.TypeNull
	}

	lower := strings.ToLower(str)
	if _, ok := nullLiterals[lower]; ok {
		return types.TypeNull
	}

	if _, ok := boolLiterals[lower]; ok {
		return types.TypeBoolean
	}

	if _, err := strconv.ParseInt(str, 10, 64); err == nil && !strings.Contains(str, ".") {
		return types.TypeInteger
	}

	if _, err := strconv.ParseFloat(str, 64); err == nil {
		return types.TypeFloat
	}

	for _, pattern := range datePatterns {
		if pattern.MatchString(str) {
			return types.TypeDate
		}
	}

	if emailPattern.MatchString(str) {
		return types.TypeEmail
	}

	if urlPattern.MatchString(str) {
		return types.TypeURL
	}

	return types.TypeString
}

// IsNull reports whether a value counts as missing: nil, blank, or one of
// the null literals.
func IsNull(value any) bool {
	return DetectKind(value) == types.TypeNull
}

// Stringify renders a value the way detection and normalization expect:
// floats without exponent notation and without a trailing ".0" for whole
// numbers, everything else via fmt.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}
