package materialize

import (
	"reflect"

	"github.com/urbint/csvstream/schema"
)

// A ConstructorSpec describes one candidate constructor for a target
// type: a func value plus the parameter names the caller associates
// with each positional argument. Go reflection cannot recover a
// function's parameter names, so callers supply them explicitly — the
// idiomatic Go equivalent of the source's reflectable constructor
// overload set. Fn must have the shape func(args...) T or
// func(args...) (T, error).
type ConstructorSpec struct {
	Fn         reflect.Value
	ParamNames []string
}

func (c ConstructorSpec) numParams() int {
	return c.Fn.Type().NumIn()
}

func (c ConstructorSpec) paramType(i int) reflect.Type {
	return c.Fn.Type().In(i)
}

// returnsError reports whether Fn's second return value is error, per
// the func(args...) (T, error) shape.
func (c ConstructorSpec) returnsError() bool {
	t := c.Fn.Type()
	return t.NumOut() == 2 && t.Out(1) == reflect.TypeOf((*error)(nil)).Elem()
}

// The per-parameter scores from §4.7's constructor selection rule.
const (
	scoreExact           = 3
	scoreWidening        = 2
	scoreAssignable      = 1
	scoreNullForNullable = 1
	scoreInfeasible      = -1
)

// scoreParam scores one constructor parameter against the Go value
// type that will be fed into it (nil if no schema column maps to this
// parameter). Returns scoreInfeasible when the parameter cannot be
// satisfied at all.
func scoreParam(paramType reflect.Type, valueType reflect.Type) int {
	if valueType == nil {
		if paramType.Kind() == reflect.Ptr || paramType.Kind() == reflect.Interface {
			return scoreNullForNullable
		}
		// No schema column maps here: feasible via the parameter's zero
		// value, but contributes no score.
		return 0
	}
	if paramType == valueType {
		return scoreExact
	}
	if isNumericKind(paramType.Kind()) && isNumericKind(valueType.Kind()) && valueType.ConvertibleTo(paramType) {
		return scoreWidening
	}
	if valueType.AssignableTo(paramType) {
		return scoreAssignable
	}
	if valueType.ConvertibleTo(paramType) {
		return scoreAssignable
	}
	return scoreInfeasible
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// candidateScore is the outcome of scoring one ConstructorSpec against
// a resolved schema: the total score, per-parameter argument layout,
// and tie-break inputs (columns matched by name vs. by position).
type candidateScore struct {
	spec          ConstructorSpec
	total         int
	feasible      bool
	args          []argMapping
	matchedByName int
}

// argMapping says where one constructor parameter's value comes from:
// a schema column index (by name or position), or unused (zero value).
type argMapping struct {
	columnIndex int // -1 if unused
	byName      bool
}

// scoreConstructor scores spec against the resolved column names and
// their converted Go value types (parallel slices, index == schema
// column index). A struct-kind parameter with no usable scalar column
// is left unmapped (column index -1) so nested-record resolution
// (nested.go) can build it from the schema's columns.
func scoreConstructor(spec ConstructorSpec, columnNames []string, columnTypes []reflect.Type) candidateScore {
	cs := candidateScore{spec: spec, feasible: true, args: make([]argMapping, spec.numParams())}

	for pi := 0; pi < spec.numParams(); pi++ {
		paramName := ""
		if pi < len(spec.ParamNames) {
			paramName = spec.ParamNames[pi]
		}

		paramType := spec.paramType(pi)
		colIdx, byName := matchColumn(paramName, pi, columnNames)
		cs.args[pi] = argMapping{columnIndex: -1}

		if colIdx >= 0 {
			if s := scoreParam(paramType, columnTypes[colIdx]); s != scoreInfeasible {
				cs.total += s
				cs.args[pi] = argMapping{columnIndex: colIdx, byName: byName}
				if byName {
					cs.matchedByName++
				}
				continue
			}
			// Positional/by-name scalar match failed: a struct-kind
			// parameter may still be satisfiable as a nested record built
			// from several columns, resolved later by nestedPlans.
			if paramType.Kind() != reflect.Struct {
				cs.feasible = false
				return cs
			}
		}

		s := scoreParam(paramType, nil)
		if s == scoreInfeasible {
			cs.feasible = false
			return cs
		}
		cs.total += s
	}
	return cs
}

// matchColumn resolves paramName against columnNames using the same
// exact/case-insensitive/snake_case ladder as field resolution, falling
// back to positional matching by parameter index pi when paramName is
// empty or unmatched (§4.4 step 5, used only for constructor params).
func matchColumn(paramName string, pi int, columnNames []string) (idx int, byName bool) {
	if paramName != "" {
		for i, name := range columnNames {
			if name == paramName {
				return i, true
			}
		}
		for i, name := range columnNames {
			if equalFold(name, paramName) {
				return i, true
			}
		}
		for i, name := range columnNames {
			if schema.ToPascalCase(name) == paramName {
				return i, true
			}
		}
	}
	if pi < len(columnNames) {
		return pi, false
	}
	return -1, false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// pickBest selects the highest-scoring feasible candidate, applying
// the §4.7 tie-break rules: more columns matched by name over by
// position, then fewer parameters.
func pickBest(candidates []candidateScore) (candidateScore, bool) {
	var best candidateScore
	found := false
	for _, c := range candidates {
		if !c.feasible {
			continue
		}
		if !found {
			best, found = c, true
			continue
		}
		if c.total != best.total {
			if c.total > best.total {
				best = c
			}
			continue
		}
		if c.matchedByName != best.matchedByName {
			if c.matchedByName > best.matchedByName {
				best = c
			}
			continue
		}
		if c.spec.numParams() < best.spec.numParams() {
			best = c
		}
	}
	return best, found
}
