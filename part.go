package livebind

import (
	"fmt"
	"iter"
	"reflect"
)

// Part is a live binding between a position in the tree and dynamic values.
type Part interface {
	// Size reports how many consecutive values the part consumes.
	Size() int
	// SetValues applies the part's slice of an update.
	SetValues(values []any) error
}

func partTypeName(p Part) string {
	if p == nil {
		return "<nil>"
	}
	return reflect.TypeOf(p).String()
}

// isPrimitive reports whether v renders as plain text and is compared by
// value for change skipping.
func isPrimitive(v any) bool {
	if v == nil {
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

// primitiveText renders a primitive; nil renders empty.
func primitiveText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// iterate returns the elements of v if v is an iterable value: a slice, an
// array or an iter.Seq[any]. Strings and byte slices are not iterables.
func iterate(v any) (iter.Seq[any], bool) {
	if seq, ok := v.(iter.Seq[any]); ok {
		return seq, true
	}
	if seq, ok := v.(func(yield func(any) bool)); ok {
		return seq, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
	case reflect.Array:
	default:
		return nil, false
	}
	return func(yield func(any) bool) {
		for i := 0; i < rv.Len(); i++ {
			if !yield(rv.Index(i).Interface()) {
				return
			}
		}
	}, true
}
