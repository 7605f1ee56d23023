package coerce

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/eddiethedean/dydactic/annotation"
)

// UnionError reports that no member of a union matched. Attempted carries
// every member tried, in declared order, for diagnostics.
type UnionError struct {
	Value     any
	Attempted []*annotation.Annotation
}

func (e *UnionError) Error() string {
	names := make([]string, 0, len(e.Attempted))
	for _, m := range e.Attempted {
		names = append(names, m.String())
	}
	return fmt.Sprintf("coerce: value %v (%T) matched no union member: %s", e.Value, e.Value, strings.Join(names, ", "))
}

// ResolveUnion tries each member of a union annotation against v in declared
// order and returns the first successful conversion. Declared order is the
// tie-break for ambiguous inputs: the first structural match wins outright,
// not the "best" match.
//
// When a string, numeric, or boolean member meets a container value, no blind
// cast is attempted. A sequence of length exactly 1 is unwrapped and its
// single element coerced to the member kind; any other container shape is
// silently treated as a non-match for that member and the next member is
// tried. Longer sequences skip silently rather than failing loudly; that
// asymmetry is deliberate. Temporal members never unwrap containers.
func ResolveUnion(v any, u *annotation.Annotation) (any, error) {
	members := u.Members()
	attempted := make([]*annotation.Annotation, 0, len(members))
	for _, m := range members {
		if Matches(v, m) {
			return v, nil
		}
		if m.Form() == annotation.FormScalar && m.Kind() != annotation.KindTime && isContainer(v) {
			if elem, ok := singleElement(v); ok {
				coerced, err := Coerce(elem, m)
				if err == nil {
					return coerced, nil
				}
			}
			attempted = append(attempted, m)
			continue
		}
		coerced, err := Coerce(v, m)
		if err == nil {
			return coerced, nil
		}
		attempted = append(attempted, m)
	}
	return nil, &UnionError{Value: v, Attempted: attempted}
}

func isContainer(v any) bool {
	switch v.(type) {
	case string, []byte, nil:
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	default:
		return false
	}
}

// singleElement unwraps a sequence of length exactly 1. Maps never unwrap.
func singleElement(v any) (any, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 1 {
			return rv.Index(0).Interface(), true
		}
	}
	return nil, false
}
