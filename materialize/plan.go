// Package materialize turns a resolved schema and a row of converted
// cell values into instances of a caller-supplied Go type, per §4.7.
// Two strategies are available: invoking a registered constructor, when
// one is registered and feasible against the schema, or else feeding
// values directly into settable struct fields (the common case, since
// most targets register no constructor). A constructor is the only way
// to build a type with no settable members of its own — e.g. a value
// object with unexported fields.
package materialize

import (
	"fmt"
	"reflect"

	"github.com/urbint/csvstream/schema"
)

// PlanKind distinguishes the two materialization strategies.
type PlanKind int

// The two strategies a Plan can use.
const (
	PlanFeed PlanKind = iota
	PlanCtor
)

// Plan is the decision made once per (target type, schema) pair:
// either feed resolved schema.Slots into settable fields, or invoke a
// constructor with a computed argument layout. Plans are cheap to
// build but not free, so callers should cache one per distinct
// (reflect.Type, schema fingerprint) — see Materializer.
type Plan struct {
	Kind PlanKind
	Type reflect.Type

	// Feed plan.
	FieldSlots []schema.Slot

	// Ctor plan.
	Ctor     *ConstructorSpec
	CtorArgs []argMapping
	Nested   map[int]*Plan // constructor parameter index -> sub-plan for nested structural record params
}

// Build selects a Plan for constructing a value of type t out of s,
// per §4.7: score the registered constructors by §4.7's rule, breaking
// ties by name matches then arity, and use the best feasible one; when
// none is registered or feasible, fall back to member-feeding if t has
// any settable field that a schema column resolves to. ctors may be
// empty when t is feedable.
func Build(s *schema.Schema, t reflect.Type, ctors []ConstructorSpec, columnTypes []reflect.Type) (*Plan, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	slots := schema.ResolveFields(s, t)

	names := s.Names()
	candidates := make([]candidateScore, len(ctors))
	for i, ctor := range ctors {
		candidates[i] = scoreConstructor(ctor, names, columnTypes)
	}
	best, ok := pickBest(candidates)
	if !ok {
		if hasAnyField(slots) {
			return &Plan{Kind: PlanFeed, Type: t, FieldSlots: slots}, nil
		}
		if len(ctors) == 0 {
			return nil, fmt.Errorf("materialize: %s has no settable fields matching the schema and no constructor was registered", t)
		}
		return nil, fmt.Errorf("materialize: no registered constructor for %s is feasible against this schema", t)
	}

	plan := &Plan{
		Kind:     PlanCtor,
		Type:     t,
		Ctor:     &best.spec,
		CtorArgs: best.args,
	}
	plan.Nested = nestedPlans(best.spec, best.args, s, columnTypes)
	return plan, nil
}

func hasAnyField(slots []schema.Slot) bool {
	for _, s := range slots {
		if s.Kind == schema.SlotField {
			return true
		}
	}
	return false
}
