package materialize

import (
	"fmt"
	"reflect"

	"github.com/urbint/csvstream/schema"
)

// Feed applies values (one per schema column, parallel to the Schema a
// Plan was built from) into dest's settable fields per plan.FieldSlots.
// dest must be a settable struct value (addressable, obtained via
// reflect.New(t).Elem() or similar).
func Feed(plan *Plan, values []interface{}, dest reflect.Value) error {
	for i, slot := range plan.FieldSlots {
		if slot.Kind != schema.SlotField {
			continue
		}
		if i >= len(values) || values[i] == nil {
			continue
		}
		field := dest.FieldByIndex(slot.FieldIndex)
		if err := setField(field, values[i]); err != nil {
			return fmt.Errorf("materialize: column %d into %s.%v: %w", i, plan.Type, slot.FieldIndex, err)
		}
	}
	return nil
}

func setField(field reflect.Value, value interface{}) error {
	if !field.CanSet() {
		return fmt.Errorf("field is not settable")
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(field.Type()):
		field.Set(v)
	case v.Type().ConvertibleTo(field.Type()):
		field.Set(v.Convert(field.Type()))
	case field.Kind() == reflect.Ptr:
		ptr := reflect.New(field.Type().Elem())
		if err := setField(ptr.Elem(), value); err != nil {
			return err
		}
		field.Set(ptr)
	default:
		return fmt.Errorf("cannot assign %s to %s", v.Type(), field.Type())
	}
	return nil
}
