package dydactic

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeRequired     = "required"       // declared field absent from the input
	CodeInvalidType  = "invalid_type"   // value could not be coerced to the declared type
	CodeUnionNoMatch = "union_no_match" // no union member matched
	CodeRuleFailed   = "rule_failed"    // post-validation business rule rejected the value
	CodeExternal     = "external"       // oracle-reported structural failure
	CodeParseError   = "parse_error"    // input was not a usable record at all
)

// RecordField is the sentinel key for record-level entries in a FieldErrors
// set, as opposed to errors scoped to a single named field.
const RecordField = "__record__"

// FieldError describes one failing field.
type FieldError struct {
	Field        string
	Code         string
	DeclaredType string // rendered target type, e.g. "int | string"
	Value        any    // offending input value
	ValueType    string // rendered runtime type of Value
	Message      string
}

// FieldErrors is the structural validation failure: every failing field of
// one record, keyed by field name (or RecordField). It is created complete
// and never mutated afterwards.
type FieldErrors map[string]FieldError

// Error summarizes the first few entries in a stable order.
func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return ""
	}
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	const maxShown = 3
	b := &strings.Builder{}
	lim := len(names)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		e := fe[names[i]]
		fmt.Fprintf(b, "%s at %s", e.Code, e.Field)
	}
	if len(names) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(names))
	}
	return b.String()
}

// AsFieldErrors extracts a FieldErrors from an error using errors.As.
func AsFieldErrors(err error) (FieldErrors, bool) {
	if err == nil {
		return nil, false
	}
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// TransformShapeError reports that a record-level transform violated its
// contract by returning something other than a mapping. It is a programming
// error in caller-supplied configuration and always propagates, regardless of
// the error policy.
type TransformShapeError struct {
	Got any
}

func (e *TransformShapeError) Error() string {
	return fmt.Sprintf("dydactic: record-level transform must return a map, got %T", e.Got)
}

func recordError(code, message string, value any) FieldErrors {
	return FieldErrors{RecordField: {
		Field:     RecordField,
		Code:      code,
		Value:     value,
		ValueType: fmt.Sprintf("%T", value),
		Message:   message,
	}}
}
