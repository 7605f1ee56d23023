// Package coerce is the pure conversion engine behind structural casting:
// given a value and an annotation it either proves the value already conforms,
// converts it, or fails with a typed error. It performs no I/O and holds no
// state.
package coerce

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/araddon/dateparse"

	"github.com/eddiethedean/dydactic/annotation"
)

// CoercionError reports that a single value could not be converted to a
// single scalar kind.
type CoercionError struct {
	Target annotation.Kind
	Value  any
	Cause  error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("coerce: cannot convert %T (%v) to %s", e.Value, e.Value, e.Target)
}

func (e *CoercionError) Unwrap() error { return e.Cause }

// Coerce converts v according to ann. Values that already satisfy the
// annotation's runtime type are returned unchanged, identity included; no
// reconstruction happens on the fast path.
//
// Scalar annotations attempt direct conversion; the temporal kind parses text
// through a permissive calendar parser. Union annotations delegate to
// ResolveUnion. Structured annotations only check that the value is a map:
// deep field validation belongs to the structural caster, which recurses
// before ever reaching this engine.
func Coerce(v any, ann *annotation.Annotation) (any, error) {
	switch ann.Form() {
	case annotation.FormUnion:
		return ResolveUnion(v, ann)
	case annotation.FormStructured:
		if _, ok := v.(map[string]any); ok {
			return v, nil
		}
		return nil, &CoercionError{Target: annotation.KindInvalid, Value: v}
	default:
		return coerceScalar(v, ann.Kind())
	}
}

// Matches reports whether v already satisfies ann's runtime type without any
// conversion.
func Matches(v any, ann *annotation.Annotation) bool {
	switch ann.Form() {
	case annotation.FormUnion:
		for _, m := range ann.Members() {
			if Matches(v, m) {
				return true
			}
		}
		return false
	case annotation.FormStructured:
		_, ok := v.(map[string]any)
		return ok
	default:
		return matchesKind(v, ann.Kind())
	}
}

func matchesKind(v any, k annotation.Kind) bool {
	switch k {
	case annotation.KindString:
		_, ok := v.(string)
		return ok
	case annotation.KindInt:
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	case annotation.KindFloat:
		switch v.(type) {
		case float32, float64:
			return true
		}
		return false
	case annotation.KindBool:
		_, ok := v.(bool)
		return ok
	case annotation.KindTime:
		_, ok := v.(time.Time)
		return ok
	default:
		return false
	}
}

func coerceScalar(v any, k annotation.Kind) (any, error) {
	if matchesKind(v, k) {
		return v, nil
	}
	switch k {
	case annotation.KindString:
		return coerceString(v)
	case annotation.KindInt:
		return coerceInt(v)
	case annotation.KindFloat:
		return coerceFloat(v)
	case annotation.KindBool:
		return coerceBool(v)
	case annotation.KindTime:
		return coerceTime(v)
	default:
		return nil, &CoercionError{Target: k, Value: v}
	}
}

func coerceString(v any) (any, error) {
	switch s := v.(type) {
	case []byte:
		return string(s), nil
	case fmt.Stringer:
		return s.String(), nil
	case nil:
		return nil, &CoercionError{Target: annotation.KindString, Value: v}
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func coerceInt(v any) (any, error) {
	switch n := v.(type) {
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return nil, &CoercionError{Target: annotation.KindInt, Value: v, Cause: err}
		}
		return int(i), nil
	case float32:
		return int(n), nil
	case float64:
		return int(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return nil, &CoercionError{Target: annotation.KindInt, Value: v, Cause: err}
		}
		return int(i), nil
	default:
		return nil, &CoercionError{Target: annotation.KindInt, Value: v}
	}
}

func coerceFloat(v any) (any, error) {
	switch n := v.(type) {
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, &CoercionError{Target: annotation.KindFloat, Value: v, Cause: err}
		}
		return f, nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case bool:
		if n {
			return 1.0, nil
		}
		return 0.0, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, &CoercionError{Target: annotation.KindFloat, Value: v, Cause: err}
		}
		return f, nil
	default:
		return nil, &CoercionError{Target: annotation.KindFloat, Value: v}
	}
}

func coerceBool(v any) (any, error) {
	switch b := v.(type) {
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return nil, &CoercionError{Target: annotation.KindBool, Value: v, Cause: err}
		}
		return parsed, nil
	case int:
		return b != 0, nil
	case int64:
		return b != 0, nil
	case float64:
		return b != 0, nil
	default:
		return nil, &CoercionError{Target: annotation.KindBool, Value: v}
	}
}

// coerceTime parses the textual representation of a calendar time. dateparse
// handles the permissive formats (RFC3339, slash dates, unix-style strings);
// a couple of explicit layouts cover the gaps it refuses.
func coerceTime(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		if b, bok := v.([]byte); bok {
			s, ok = string(b), true
		}
	}
	if !ok {
		return nil, &CoercionError{Target: annotation.KindTime, Value: v}
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, &CoercionError{Target: annotation.KindTime, Value: v, Cause: fmt.Errorf("unparsable time %q", s)}
}
