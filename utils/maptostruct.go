package utils

import (
	"reflect"
	"time"
)

// MapToStruct applies a settings map (as loaded by ReadConfig) onto an
// already-defaulted destination struct, one exported field at a time.
// Fields absent from src are left untouched, so dest's existing values
// — typically NewOptions' struct-tag defaults — survive a partial
// config file.
//
// lookupKey optionally names a struct tag used to resolve each field's
// key in src; with none given, the Go field name is used directly.
// Enum types declared as a named int (QuoteMode, ingest.Action, ...) are
// matched by their underlying Kind, so no special-casing is needed
// here when csv or ingest adds one.
//
// Returns dest for chaining.
func MapToStruct(src map[string]interface{}, dest interface{}, lookupKey ...string) interface{} {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() == reflect.Ptr {
		destValue = destValue.Elem()
	}
	destType := destValue.Type()

	var lookupTag string
	if len(lookupKey) > 0 {
		lookupTag = lookupKey[0]
	}

	for i := 0; i < destType.NumField(); i++ {
		structField := destType.Field(i)
		if structField.PkgPath != "" && !structField.Anonymous {
			continue // unexported
		}

		readKey := structField.Name
		if lookupTag != "" {
			if tagged := structField.Tag.Get(lookupTag); tagged != "" {
				readKey = tagged
			}
		}

		srcVal, hasVal := src[readKey]
		if !hasVal && !structField.Anonymous {
			continue
		} else if structField.Anonymous && !hasVal {
			srcVal = src
		}

		fieldValue := destValue.Field(i)
		if !fieldValue.CanSet() {
			continue
		}

		switch fieldValue.Kind() {
		case reflect.String:
			fieldValue.SetString(ToString(srcVal))
		case reflect.Bool:
			fieldValue.SetBool(ToBool(srcVal))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fieldValue.SetInt(int64(ToInt(srcVal)))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			fieldValue.SetUint(uint64(ToInt(srcVal)))
		case reflect.Float32:
			fieldValue.SetFloat(float64(ToFloat32(srcVal)))
		case reflect.Float64:
			fieldValue.SetFloat(ToFloat64(srcVal))
		case reflect.Struct:
			switch fieldValue.Interface().(type) {
			case time.Time:
				fieldValue.Set(reflect.ValueOf(ToTime(srcVal, structField.Tag.Get("format"))))
			default:
				nestedSrc, ok := srcVal.(map[string]interface{})
				if !ok {
					continue
				}
				ptr := reflect.New(fieldValue.Type())
				MapToStruct(nestedSrc, ptr.Interface(), lookupTag)
				fieldValue.Set(ptr.Elem())
			}
		case reflect.Ptr:
			nestedSrc, ok := srcVal.(map[string]interface{})
			if !ok {
				continue
			}
			ptr := reflect.New(fieldValue.Type().Elem())
			MapToStruct(nestedSrc, ptr.Interface(), lookupTag)
			fieldValue.Set(ptr)
		}
	}

	return dest
}
