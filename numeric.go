package ingest

import "time"

// NumericFormat is the locale hint used by smart-decimal normalization
// (§4.6) and by datetime conversion. It lives in the root package,
// rather than csv or convert, because both the Parser Core's Options
// and the Type Inference Engine / Field Converter need to agree on one
// definition without csv and schema/convert importing each other.
//
// It is deliberately minimal: the core does not do general locale-aware
// parsing (§1 non-goals), just enough to resolve the ambiguous
// separator cases.
type NumericFormat struct {
	// Decimal is the decimal-point character for this locale, e.g. '.'.
	Decimal byte
	// Group is the thousands-grouping character for this locale, e.g. ','.
	Group byte
	// DateLayout is the time.Parse layout used for datetime conversion.
	DateLayout string
}

// DefaultNumericFormat is the invariant-culture-like default: '.' decimal,
// ',' grouping, RFC3339 dates.
var DefaultNumericFormat = NumericFormat{Decimal: '.', Group: ',', DateLayout: time.RFC3339}
