package schema

import (
	"reflect"
	"strconv"
	"strings"
)

// SlotKind describes what a resolved schema column maps to on a target
// struct: a settable field, or nothing (the column is dropped).
type SlotKind int

// The two slot kinds the field resolver produces.
const (
	SlotIgnore SlotKind = iota
	SlotField
)

// Slot is the result of resolving one schema column against a target
// struct type, per the five-step ladder in §4.4 (steps 1-4; step 5,
// positional constructor-parameter matching, is materialize's concern
// since it applies only when the target has no settable members).
type Slot struct {
	Kind SlotKind
	// FieldIndex is the reflect field-index path (supporting embedded
	// structs), valid when Kind == SlotField.
	FieldIndex []int
}

// ResolveFields runs steps 1-4 of the name-resolution ladder for every
// column in s against t's settable fields: exact, case-insensitive,
// snake_case -> PascalCase, then ordinal (an explicit `csv:"order=N"`
// struct tag matched against the column's position). Unresolved columns
// get SlotIgnore.
func ResolveFields(s *Schema, t reflect.Type) []Slot {
	slots := make([]Slot, len(s.Columns))
	for i, col := range s.Columns {
		if idx, ok := findFieldByName(col.Name, t); ok {
			slots[i] = Slot{Kind: SlotField, FieldIndex: idx}
			continue
		}
		if idx, ok := findFieldByName(ToPascalCase(col.Name), t); ok {
			slots[i] = Slot{Kind: SlotField, FieldIndex: idx}
			continue
		}
		if idx, ok := findFieldByOrdinal(col.Index, t); ok {
			slots[i] = Slot{Kind: SlotField, FieldIndex: idx}
			continue
		}
		slots[i] = Slot{Kind: SlotIgnore}
	}
	return slots
}

// findFieldByName performs exact, then case-insensitive, matching of
// name against t's fields, descending into embedded structs, grounded
// on findFieldInStruct's recursive embedded-struct walk.
func findFieldByName(name string, t reflect.Type) ([]int, bool) {
	if idx, ok := findField(t, func(f reflect.StructField) bool { return f.Name == name }); ok {
		return idx, true
	}
	return findField(t, func(f reflect.StructField) bool { return strings.EqualFold(f.Name, name) })
}

// findFieldByOrdinal locates the field whose `csv:"order=N"` tag names
// columnIndex (1-based in the tag, 0-based columnIndex), descending
// into embedded structs.
func findFieldByOrdinal(columnIndex int, t reflect.Type) ([]int, bool) {
	return findField(t, func(f reflect.StructField) bool {
		n, ok := parseOrderTag(f.Tag.Get("csv"))
		return ok && n == columnIndex+1
	})
}

// parseOrderTag extracts N from a `csv:"order=N"` tag value.
func parseOrderTag(tag string) (int, bool) {
	for _, part := range strings.Split(tag, ",") {
		if n, found := strings.CutPrefix(part, "order="); found {
			v, err := strconv.Atoi(n)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}

// findField walks t's exported, settable fields (recursing into
// embedded structs) looking for the first field satisfying match.
func findField(t reflect.Type, match func(reflect.StructField) bool) ([]int, bool) {
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" && !f.Anonymous {
			continue // unexported, non-embedded
		}
		if match(f) {
			return []int{i}, true
		}
		if f.Anonymous {
			nested := f.Type
			if nested.Kind() == reflect.Ptr {
				nested = nested.Elem()
			}
			if nested.Kind() == reflect.Struct {
				if idx, ok := findField(nested, match); ok {
					return append([]int{i}, idx...), true
				}
			}
		}
	}
	return nil, false
}
