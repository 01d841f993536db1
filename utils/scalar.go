package utils

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ToString converts val to a string, the zero value for nil or a nil
// pointer.
func ToString(val interface{}) string {
	switch asVal := val.(type) {
	case string:
		return asVal
	case nil:
		return ""
	default:
		value := reflect.ValueOf(val)
		if value.Kind() == reflect.Ptr && value.IsNil() {
			return ""
		}
		return fmt.Sprintf("%v", asVal)
	}
}

// ToInt converts val to an int. A string is parsed leniently: grouping
// separators and a trailing decimal portion are stripped first, so
// config values like "1,005.00" still resolve to 1005. Used by
// MapToStruct when applying a loaded config onto an int-kind field;
// unlike the Field Converter's ladder, a failed parse yields 0 rather
// than an error, since a malformed config value has no row to skip.
func ToInt(val interface{}) int {
	switch typedVal := val.(type) {
	case int:
		return typedVal
	case float64: // encoding/json decodes numbers as float64
		return int(typedVal)
	case string:
		result, _ := strconv.Atoi(preDecimal(toParsable(typedVal)))
		return result
	default:
		return 0
	}
}

// ToBool converts val to a bool: a literal bool, "true"/"false", or
// (as a last resort) whether val differs from its type's zero value.
func ToBool(val interface{}) bool {
	switch asVal := val.(type) {
	case bool:
		return asVal
	case string:
		if asVal == "false" {
			return false
		} else if asVal == "true" {
			return true
		}
	}
	return !isZeroVal(val)
}

// ToFloat32 converts val to a float32.
func ToFloat32(val interface{}) float32 {
	switch asVal := val.(type) {
	case float32:
		return asVal
	case float64:
		return float32(asVal)
	case int:
		return float32(asVal)
	case string:
		result, _ := strconv.ParseFloat(toParsable(asVal), 32)
		return float32(result)
	}
	return 0
}

// ToFloat64 converts val to a float64.
func ToFloat64(val interface{}) float64 {
	switch asVal := val.(type) {
	case float64:
		return asVal
	case float32:
		return float64(asVal)
	case int:
		return float64(asVal)
	case string:
		result, _ := strconv.ParseFloat(toParsable(asVal), 64)
		return result
	}
	return 0
}

// ToTime converts val to a time.Time. A string is parsed with an
// optional layout (RFC3339 by default); an int is read as a Unix
// epoch second.
func ToTime(val interface{}, layout ...string) time.Time {
	switch asVal := val.(type) {
	case string:
		l := time.RFC3339
		if len(layout) > 0 && layout[0] != "" {
			l = layout[0]
		}
		result, _ := time.Parse(l, asVal)
		return result
	case int:
		return time.Unix(int64(asVal), 0)
	case int64:
		return time.Unix(asVal, 0)
	case float64:
		return time.Unix(int64(asVal), 0)
	}
	return time.Time{}
}

func preDecimal(str string) string {
	return strings.Split(str, ".")[0]
}

func toParsable(str string) string {
	str = strings.ReplaceAll(str, " ", "")
	str = strings.ReplaceAll(str, ",", "")
	return str
}

func isZeroVal(val interface{}) bool {
	value := reflect.ValueOf(val)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}
	if !value.IsValid() {
		return true
	}
	zeroVal := reflect.Zero(value.Type())
	return reflect.DeepEqual(value.Interface(), zeroVal.Interface())
}
