package materialize

import (
	"reflect"

	"github.com/urbint/csvstream/schema"
)

// nestedPlans finds constructor parameters whose type is itself a
// struct not already satisfied by a single schema column (e.g. a
// (Key, Count) result where Key is itself a (IsActive, Region)
// record), and builds a member-feeding Plan for each from the full
// schema — the nested record's own fields are resolved by name against
// the same column set the outer constructor drew from.
func nestedPlans(ctor ConstructorSpec, args []argMapping, s *schema.Schema, columnTypes []reflect.Type) map[int]*Plan {
	var out map[int]*Plan
	for pi, arg := range args {
		if arg.columnIndex >= 0 {
			continue // satisfied directly by a scalar column
		}
		paramType := ctor.paramType(pi)
		if paramType.Kind() == reflect.Ptr {
			paramType = paramType.Elem()
		}
		if paramType.Kind() != reflect.Struct {
			continue
		}
		slots := schema.ResolveFields(s, paramType)
		if !hasAnyField(slots) {
			continue
		}
		if out == nil {
			out = make(map[int]*Plan)
		}
		out[pi] = &Plan{Kind: PlanFeed, Type: paramType, FieldSlots: slots}
	}
	return out
}
