package schema

import (
	"strings"

	"github.com/urbint/csvstream"
)

// NormalizeNumericString implements the smart decimal normalization
// rules from §4.6: a pure, locale-free rewrite of a numeric-looking
// string into dot-decimal form. It returns ok=false when the separator
// pattern is genuinely ambiguous (a single separator with exactly 3
// trailing digits), per the GLOSSARY's "smart decimal normalization"
// entry; callers then resolve the ambiguity via ResolveAmbiguous.
//
// It lives here, rather than in convert, so both the Type Inference
// Engine's trial parsing and the Field Converter's real conversion
// share one implementation.
func NormalizeNumericString(s string) (string, bool) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ': // space and non-breaking space: thousands separators in some locales
			return -1
		default:
			return r
		}
	}, s)

	var sign string
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		sign = s[:1]
		s = s[1:]
	}

	hasDot := strings.ContainsRune(s, '.')
	hasComma := strings.ContainsRune(s, ',')

	switch {
	case hasDot && hasComma:
		lastDot := strings.LastIndexByte(s, '.')
		lastComma := strings.LastIndexByte(s, ',')
		if lastDot > lastComma {
			return sign + stripSeparator(s[:lastDot], ',') + "." + s[lastDot+1:], true
		}
		return sign + stripSeparator(s[:lastComma], '.') + "." + s[lastComma+1:], true

	case hasDot:
		last := strings.LastIndexByte(s, '.')
		trailing := len(s) - last - 1
		if strings.Count(s, ".") > 1 {
			return sign + strings.ReplaceAll(s, ".", ""), true
		}
		if trailing == 3 {
			return "", false // ambiguous: "1.234" — thousands or decimal?
		}
		return sign + s, true

	case hasComma:
		last := strings.LastIndexByte(s, ',')
		trailing := len(s) - last - 1
		if strings.Count(s, ",") > 1 {
			return sign + strings.ReplaceAll(s, ",", ""), true
		}
		if trailing == 3 {
			return "", false // ambiguous: "1,234" — thousands or decimal?
		}
		return sign + strings.Replace(s, ",", ".", 1), true

	default:
		return sign + s, true
	}
}

// ResolveAmbiguous breaks the tie NormalizeNumericString declines to
// make, using format's own separators rather than silently picking one
// reading (open question #3: a product decision left open upstream).
// Under the default invariant-culture-like format ('.' decimal, ','
// group), a bare "1,234" resolves as 1234, a thousands grouping — not
// 1.234.
func ResolveAmbiguous(s string, format ingest.NumericFormat) string {
	groupStr := string(format.Group)
	return strings.ReplaceAll(s, groupStr, "")
}

// stripSeparator removes every occurrence of sep from s (used to strip
// thousands separators once the decimal separator has been identified).
func stripSeparator(s string, sep byte) string {
	return strings.ReplaceAll(s, string(sep), "")
}
