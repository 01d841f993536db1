package materialize

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/urbint/csvstream/schema"
)

// Materializer caches one Plan per (target type, schema) pair and
// applies it to successive rows. Instances are owned by the caller —
// typically one per open stream — rather than shared as package-level
// global state, so two streams reading different schemas into the
// same Go type never contend over or invalidate each other's cache.
type Materializer struct {
	mu    sync.Mutex
	plans map[string]*Plan
	ctors map[reflect.Type][]ConstructorSpec
}

// NewMaterializer returns an empty Materializer. Register constructors
// for types with no settable members via RegisterConstructor before
// the first row referencing that type is materialized.
func NewMaterializer() *Materializer {
	return &Materializer{
		plans: make(map[string]*Plan),
		ctors: make(map[reflect.Type][]ConstructorSpec),
	}
}

// RegisterConstructor adds a candidate constructor for t, considered
// alongside member-feeding and any other constructors already
// registered for t when a Plan is built.
func (m *Materializer) RegisterConstructor(t reflect.Type, spec ConstructorSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctors[t] = append(m.ctors[t], spec)
}

// Materialize builds (or reuses a cached) Plan for t against s, then
// applies it to one row of already-converted cell values (parallel to
// s.Columns), returning a reflect.Value holding the built value. A
// member-fed value is addressable; a constructor's return value is not.
func (m *Materializer) Materialize(s *schema.Schema, t reflect.Type, values []interface{}) (reflect.Value, error) {
	plan, err := m.planFor(s, t, values)
	if err != nil {
		return reflect.Value{}, err
	}

	switch plan.Kind {
	case PlanFeed:
		dest := reflect.New(plan.Type).Elem()
		if err := Feed(plan, values, dest); err != nil {
			return reflect.Value{}, err
		}
		return dest, nil
	case PlanCtor:
		return applyCtor(plan, s, values)
	default:
		return reflect.Value{}, fmt.Errorf("materialize: unknown plan kind")
	}
}

func (m *Materializer) planFor(s *schema.Schema, t reflect.Type, values []interface{}) (*Plan, error) {
	key := fingerprint(s, t)

	m.mu.Lock()
	plan, ok := m.plans[key]
	ctors := m.ctors[t]
	m.mu.Unlock()
	if ok {
		return plan, nil
	}

	columnTypes := make([]reflect.Type, len(values))
	for i, v := range values {
		if v != nil {
			columnTypes[i] = reflect.TypeOf(v)
		}
	}

	plan, err := Build(s, t, ctors, columnTypes)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.plans[key] = plan
	m.mu.Unlock()
	return plan, nil
}

// fingerprint identifies a (type, schema shape) pair for plan caching:
// the target type plus the ordered column names and types.
func fingerprint(s *schema.Schema, t reflect.Type) string {
	key := t.String()
	for _, c := range s.Columns {
		key += "|" + c.Name + ":" + c.Type.String()
	}
	return key
}

func applyCtor(plan *Plan, s *schema.Schema, values []interface{}) (reflect.Value, error) {
	args := make([]reflect.Value, plan.Ctor.numParams())
	for pi := range args {
		paramType := plan.Ctor.paramType(pi)

		if nested, ok := plan.Nested[pi]; ok {
			nestedVal, err := applyNested(nested, values)
			if err != nil {
				return reflect.Value{}, err
			}
			args[pi] = coerceArg(nestedVal, paramType)
			continue
		}

		mapping := plan.CtorArgs[pi]
		if mapping.columnIndex < 0 || mapping.columnIndex >= len(values) || values[mapping.columnIndex] == nil {
			args[pi] = reflect.Zero(paramType)
			continue
		}

		args[pi] = coerceArg(reflect.ValueOf(values[mapping.columnIndex]), paramType)
	}

	out := plan.Ctor.Fn.Call(args)
	if plan.Ctor.returnsError() && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return out[0], nil
}

func applyNested(plan *Plan, values []interface{}) (reflect.Value, error) {
	dest := reflect.New(plan.Type).Elem()
	if err := Feed(plan, values, dest); err != nil {
		return reflect.Value{}, err
	}
	return dest, nil
}

func coerceArg(v reflect.Value, paramType reflect.Type) reflect.Value {
	if v.Type() == paramType {
		return v
	}
	if v.Type().ConvertibleTo(paramType) {
		return v.Convert(paramType)
	}
	if paramType.Kind() == reflect.Ptr && v.Type() == paramType.Elem() {
		ptr := reflect.New(paramType.Elem())
		ptr.Elem().Set(v)
		return ptr
	}
	return v
}
