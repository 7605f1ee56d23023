// Package annotation describes the expected shape of a value as a closed,
// tagged tree: scalar kinds, ordered unions, and structured objects.
//
// Annotations are built once when a schema is defined and are read-only
// afterwards; the coercion engine never inspects anything beyond this tree at
// validation time. Union member order is semantically meaningful: members are
// tried in declared order and the first match wins.
package annotation

import (
	"fmt"
	"sort"
	"strings"
)

// Kind enumerates the scalar kinds the coercion engine understands.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

// Form discriminates the annotation variants.
type Form int

const (
	FormScalar Form = iota
	FormUnion
	FormStructured
)

// Annotation is one node of the type description tree. The zero value is not
// usable; construct via Of/String/Int/... , Union, or Object.
type Annotation struct {
	form     Form
	kind     Kind
	members  []*Annotation
	fields   map[string]*Annotation
	required map[string]bool
}

// Of returns a scalar annotation for the given kind.
func Of(k Kind) *Annotation { return &Annotation{form: FormScalar, kind: k} }

// String returns the string scalar annotation.
func String() *Annotation { return Of(KindString) }

// Int returns the integer scalar annotation.
func Int() *Annotation { return Of(KindInt) }

// Float returns the float scalar annotation.
func Float() *Annotation { return Of(KindFloat) }

// Bool returns the boolean scalar annotation.
func Bool() *Annotation { return Of(KindBool) }

// Time returns the temporal scalar annotation. Values are parsed from text by
// a permissive calendar parser.
func Time() *Annotation { return Of(KindTime) }

// Union builds a union annotation over the given members, preserving declared
// order. Duplicate members (by rendered type) are dropped. A union needs at
// least two distinct members; Union panics otherwise because this is a schema
// definition error, not input data.
func Union(members ...*Annotation) *Annotation {
	seen := map[string]bool{}
	distinct := make([]*Annotation, 0, len(members))
	for _, m := range members {
		if m == nil {
			continue
		}
		key := m.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		distinct = append(distinct, m)
	}
	if len(distinct) < 2 {
		panic("annotation: union requires at least two distinct members")
	}
	return &Annotation{form: FormUnion, members: distinct}
}

// Object builds a structured annotation where every declared field is
// required. Use WithOptional to relax individual fields.
func Object(fields map[string]*Annotation) *Annotation {
	required := make(map[string]bool, len(fields))
	for name := range fields {
		required[name] = true
	}
	return &Annotation{form: FormStructured, fields: fields, required: required}
}

// WithOptional returns a copy of a structured annotation with the named
// fields marked optional. Calling it on a non-structured annotation panics.
func (a *Annotation) WithOptional(names ...string) *Annotation {
	if a.form != FormStructured {
		panic("annotation: WithOptional on non-structured annotation")
	}
	required := make(map[string]bool, len(a.required))
	for name, r := range a.required {
		required[name] = r
	}
	for _, name := range names {
		required[name] = false
	}
	return &Annotation{form: FormStructured, fields: a.fields, required: required}
}

// Form reports which variant this annotation is.
func (a *Annotation) Form() Form { return a.form }

// Kind reports the scalar kind; KindInvalid for non-scalar annotations.
func (a *Annotation) Kind() Kind {
	if a.form != FormScalar {
		return KindInvalid
	}
	return a.kind
}

// Members returns union members in declared order; nil for non-unions.
func (a *Annotation) Members() []*Annotation { return a.members }

// Fields returns the declared fields of a structured annotation.
func (a *Annotation) Fields() map[string]*Annotation { return a.fields }

// Field looks up a declared field annotation.
func (a *Annotation) Field(name string) (*Annotation, bool) {
	f, ok := a.fields[name]
	return f, ok
}

// Required reports whether the named field must be present.
func (a *Annotation) Required(name string) bool { return a.required[name] }

// RequiredFields returns the required field names in sorted order.
func (a *Annotation) RequiredFields() []string {
	out := make([]string, 0, len(a.required))
	for name, r := range a.required {
		if r {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// String renders the annotation for diagnostics, e.g. "int | string" or
// "object{age, id, name}".
func (a *Annotation) String() string {
	if a == nil {
		return "invalid"
	}
	switch a.form {
	case FormScalar:
		return a.kind.String()
	case FormUnion:
		parts := make([]string, 0, len(a.members))
		for _, m := range a.members {
			parts = append(parts, m.String())
		}
		return strings.Join(parts, " | ")
	case FormStructured:
		names := make([]string, 0, len(a.fields))
		for name := range a.fields {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Sprintf("object{%s}", strings.Join(names, ", "))
	default:
		return "invalid"
	}
}
