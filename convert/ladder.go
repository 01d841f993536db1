package convert

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/urbint/csvstream"
	"github.com/urbint/csvstream/schema"
)

// Ladder converts raw cell text to a typed value per §4.6. When
// declared is schema.TypeString (the "no declared type" case), it
// tries the primitive-inference default order — bool, i32, i64,
// decimal, f64, datetime, guid — and returns the raw string if none
// succeed. Otherwise it converts strictly to declared, returning an
// error (never a zero value masquerading as success) on failure so the
// caller can demote the column per §4.5's runtime-demotion rule.
func Ladder(raw string, declared schema.Type, format ingest.NumericFormat) (interface{}, schema.Type, error) {
	if declared == schema.TypeString {
		return primitiveInference(raw, format)
	}

	val, err := convertOne(declared, raw, format)
	if err != nil {
		return raw, schema.TypeString, err
	}
	return val, declared, nil
}

// primitiveInference tries each ladder rung in precedence order,
// returning the first success, or the raw string if none apply.
func primitiveInference(raw string, format ingest.NumericFormat) (interface{}, schema.Type, error) {
	if strings.TrimSpace(raw) == "" {
		return raw, schema.TypeString, nil
	}
	if preserveAsText(raw) {
		return raw, schema.TypeString, nil
	}
	for _, t := range []schema.Type{schema.TypeBool, schema.TypeInt32, schema.TypeInt64, schema.TypeDecimal, schema.TypeFloat64, schema.TypeDateTime, schema.TypeGUID} {
		if val, err := convertOne(t, raw, format); err == nil {
			return val, t, nil
		}
	}
	return raw, schema.TypeString, nil
}

// preserveAsText reports whether raw is a leading-zero or very-long
// all-digit string that must be kept as text rather than narrowed to a
// numeric type, per §4.5.
func preserveAsText(raw string) bool {
	if raw == "" {
		return false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return false
		}
	}
	return (len(raw) > 1 && raw[0] == '0') || len(raw) > 18
}

// convertOne converts raw to the single declared rung t.
func convertOne(t schema.Type, raw string, format ingest.NumericFormat) (interface{}, error) {
	switch t {
	case schema.TypeBool:
		return strconv.ParseBool(raw)
	case schema.TypeInt32:
		v, err := strconv.ParseInt(strings.TrimPrefix(raw, "+"), 10, 32)
		if err != nil {
			return nil, err
		}
		return int32(v), nil
	case schema.TypeInt64:
		v, err := strconv.ParseInt(strings.TrimPrefix(raw, "+"), 10, 64)
		if err != nil {
			return nil, err
		}
		return v, nil
	case schema.TypeDecimal:
		norm, ok := schema.NormalizeNumericString(raw)
		if !ok {
			norm = schema.ResolveAmbiguous(raw, format)
		}
		return decimal.NewFromString(norm)
	case schema.TypeFloat64:
		norm, ok := schema.NormalizeNumericString(raw)
		if !ok {
			norm = schema.ResolveAmbiguous(raw, format)
		}
		return strconv.ParseFloat(norm, 64)
	case schema.TypeDateTime:
		return time.Parse(format.DateLayout, raw)
	case schema.TypeGUID:
		return uuid.Parse(raw)
	default:
		return raw, nil
	}
}
