package dydactic

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/eddiethedean/dydactic/annotation"
	"github.com/eddiethedean/dydactic/coerce"
	"github.com/eddiethedean/dydactic/oracle"
)

// Cast validates a mapping against a plain-annotated shape and constructs the
// target instance. All per-field failures are collected before failing; the
// returned error is a FieldErrors exposing every offending field in one pass.
//
// Missing required fields are a hard gate: when any are absent the error set
// contains exactly one "required" entry per missing field and no field-level
// type processing happens at all. Input keys outside the declared field set
// are ignored.
func Cast(ctx context.Context, record map[string]any, sh *Shape) (any, error) {
	return castShape(ctx, record, sh, oracle.Options{})
}

func castShape(ctx context.Context, record map[string]any, sh *Shape, oopt oracle.Options) (any, error) {
	ann := sh.ann
	if ann == nil {
		return nil, recordError(CodeParseError, "shape has no annotation", record)
	}

	var missing []string
	for _, name := range ann.RequiredFields() {
		if _, present := record[name]; !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		fe := make(FieldErrors, len(missing))
		for _, name := range missing {
			decl, _ := ann.Field(name)
			fe[name] = FieldError{
				Field:        name,
				Code:         CodeRequired,
				DeclaredType: decl.String(),
				ValueType:    "<nil>",
				Message:      "missing required field",
			}
		}
		return nil, fe
	}

	coerced := make(map[string]any, len(record))
	fe := FieldErrors{}
	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		decl, declared := ann.Field(name)
		if !declared {
			continue
		}
		value := record[name]
		out, err := castField(ctx, name, value, decl, sh, oopt)
		if err != nil {
			fe[name] = fieldError(name, value, decl, err)
			continue
		}
		coerced[name] = out
	}
	if len(fe) > 0 {
		return nil, fe
	}

	if sh.proto != nil {
		return buildPrototype(sh, coerced), nil
	}
	return coerced, nil
}

func castField(ctx context.Context, name string, value any, decl *annotation.Annotation, sh *Shape, oopt oracle.Options) (any, error) {
	if sub, ok := sh.nested[name]; ok {
		m, isMap := value.(map[string]any)
		if !isMap {
			return nil, fmt.Errorf("expected object, got %T", value)
		}
		if sub.OracleBacked() {
			return sub.oracle.ValidateMap(ctx, m, oopt)
		}
		return castShape(ctx, m, sub, oopt)
	}
	switch decl.Form() {
	case annotation.FormStructured:
		m, isMap := value.(map[string]any)
		if !isMap {
			return nil, fmt.Errorf("expected object, got %T", value)
		}
		return castShape(ctx, m, &Shape{ann: decl}, oopt)
	case annotation.FormUnion:
		return coerce.ResolveUnion(value, decl)
	default:
		return coerce.Coerce(value, decl)
	}
}

func fieldError(name string, value any, decl *annotation.Annotation, err error) FieldError {
	code := CodeInvalidType
	var ue *coerce.UnionError
	if errors.As(err, &ue) {
		code = CodeUnionNoMatch
	}
	return FieldError{
		Field:        name,
		Code:         code,
		DeclaredType: decl.String(),
		Value:        value,
		ValueType:    fmt.Sprintf("%T", value),
		Message:      err.Error(),
	}
}

// buildPrototype constructs a new instance of the probed struct type and
// assigns each coerced field. Values are converted when the Go types allow
// it; an inconvertible value leaves the struct field at its zero value.
func buildPrototype(sh *Shape, coerced map[string]any) any {
	pv := reflect.New(sh.proto)
	elem := pv.Elem()
	for name, idx := range sh.fieldIndex {
		value, ok := coerced[name]
		if !ok || value == nil {
			continue
		}
		fv := elem.Field(idx)
		rv := reflect.ValueOf(value)
		switch {
		case rv.Type().AssignableTo(fv.Type()):
			fv.Set(rv)
		case rv.Type().ConvertibleTo(fv.Type()):
			fv.Set(rv.Convert(fv.Type()))
		}
	}
	return pv.Interface()
}
