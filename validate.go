package dydactic

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/eddiethedean/dydactic/oracle"
	"github.com/eddiethedean/dydactic/rules"
)

// ValidateRecord validates a single record (a mapping or a struct sourced
// from its attributes) against the target shape and returns the uniform
// Result. Validation failures live in Result.Err; the second return is
// non-nil only for contract violations in caller-supplied configuration
// (*TransformShapeError), which propagate regardless of error policy.
func ValidateRecord(ctx context.Context, record any, sh *Shape, opts ...Opt) (Result, error) {
	return validateRecord(ctx, record, sh, lastOpt(opts))
}

func validateRecord(ctx context.Context, record any, sh *Shape, opt Opt) (Result, error) {
	m, ok := recordToMap(record)
	if !ok {
		msg := fmt.Sprintf("record must be a map or struct, got %T", record)
		return failure(recordError(CodeParseError, msg, record), record), nil
	}

	m, terr := applyTransforms(m, opt.Transforms)
	if terr != nil {
		return Result{}, terr
	}
	if opt.Fields != nil {
		m = filterFields(m, opt.Fields)
	}

	var inst any
	var verr error
	if sh.OracleBacked() {
		var oerr error
		inst, oerr = sh.oracle.ValidateMap(ctx, m, oracleOptions(opt))
		verr = normalizeOracleError(oerr)
	} else {
		inst, verr = castShape(ctx, m, sh, oracleOptions(opt))
	}
	if verr != nil {
		return failure(verr, record), nil
	}
	return finishInstance(inst, record, opt), nil
}

// ValidateJSON validates one record given as encoded JSON text. This path
// requires an oracle-backed shape: the oracle owns text decoding, and the
// structural caster is skipped entirely. Field filtering and transforms do
// not apply here; that is a documented limitation of the text path, not a
// defect.
func ValidateJSON(ctx context.Context, data []byte, sh *Shape, opts ...Opt) Result {
	return validateJSON(ctx, data, data, sh, lastOpt(opts))
}

func validateJSON(ctx context.Context, data []byte, original any, sh *Shape, opt Opt) Result {
	if !sh.OracleBacked() {
		return failure(recordError(CodeParseError, "JSON validation requires an oracle-backed shape", original), original)
	}
	inst, err := sh.oracle.ValidateJSON(ctx, data, oracleOptions(opt))
	if err != nil {
		return failure(normalizeOracleError(err), original)
	}
	return finishInstance(inst, original, opt)
}

// validateItem routes one pipeline item by its runtime form: encoded text to
// the oracle's JSON path, everything else to the record path.
func validateItem(ctx context.Context, item any, sh *Shape, opt Opt) (Result, error) {
	switch v := item.(type) {
	case string:
		return validateJSON(ctx, []byte(v), item, sh, opt), nil
	case []byte:
		return validateJSON(ctx, v, item, sh, opt), nil
	default:
		return validateRecord(ctx, item, sh, opt)
	}
}

// finishInstance applies post-validation rules and result projection.
func finishInstance(inst any, original any, opt Opt) Result {
	if opt.Rules != nil && opt.Rules.Len() > 0 {
		if viols := opt.Rules.Evaluate(inst); len(viols) > 0 {
			fe := make(FieldErrors, len(viols))
			for _, v := range viols {
				key := v.Field
				if key == rules.RecordScope {
					key = RecordField
				}
				if _, dup := fe[key]; dup {
					continue
				}
				fe[key] = FieldError{
					Field:     key,
					Code:      CodeRuleFailed,
					Value:     v.Value,
					ValueType: fmt.Sprintf("%T", v.Value),
					Message:   v.Message,
				}
			}
			return failure(fe, original)
		}
	}
	if opt.ProjectFields != nil {
		inst = projectInstance(inst, opt.ProjectFields)
	}
	return success(inst, original)
}

func oracleOptions(opt Opt) oracle.Options {
	return oracle.Options{Strict: opt.Strict, FromAttributes: opt.FromAttributes}
}

// normalizeOracleError folds the oracle's own failure representation into the
// uniform FieldErrors shape, so callers see one error form regardless of
// which validation path ran. Unknown oracle errors stay opaque behind a
// record-level entry.
func normalizeOracleError(err error) error {
	if err == nil {
		return nil
	}
	if fe, ok := AsFieldErrors(err); ok {
		return fe
	}
	var se *oracle.StructuralError
	if errors.As(err, &se) {
		fe := make(FieldErrors, len(se.Issues))
		for _, is := range se.Issues {
			field := is.Path
			if field == "" {
				field = RecordField
			}
			if _, dup := fe[field]; dup {
				continue
			}
			fe[field] = FieldError{
				Field:     field,
				Code:      CodeExternal,
				Value:     is.Value,
				ValueType: fmt.Sprintf("%T", is.Value),
				Message:   is.Message,
			}
		}
		return fe
	}
	return recordError(CodeExternal, err.Error(), nil)
}

// recordToMap turns a validation input into a working mapping: maps are
// shallow-copied (transforms mutate the copy), structs are read through
// their exported fields using json tag names.
func recordToMap(record any) (map[string]any, bool) {
	if m, ok := record.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	}
	rv := reflect.ValueOf(record)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		out[jsonName(sf)] = rv.Field(i).Interface()
	}
	return out, true
}

func filterFields(m map[string]any, fields []string) map[string]any {
	keep := make(map[string]bool, len(fields))
	for _, f := range fields {
		keep[f] = true
	}
	out := make(map[string]any, len(fields))
	for k, v := range m {
		if keep[k] {
			out[k] = v
		}
	}
	return out
}

// projectInstance narrows a validated instance to a field subset. The
// projection is always a mapping, whatever construction strategy produced
// the instance.
func projectInstance(inst any, fields []string) any {
	m, ok := recordToMap(inst)
	if !ok {
		return inst
	}
	return filterFields(m, fields)
}
