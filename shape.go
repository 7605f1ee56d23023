package dydactic

import (
	"reflect"
	"strings"

	"github.com/eddiethedean/dydactic/annotation"
	"github.com/eddiethedean/dydactic/oracle"
)

// Shape is the target a record is validated against. It is a tagged variant
// resolved once per validation call: either oracle-backed (an external
// validator with its own rich schema semantics) or plain-annotated (a
// structured annotation handled by the structural caster).
type Shape struct {
	oracle oracle.Oracle
	ann    *annotation.Annotation

	// prototype construction, selected by an upfront capability probe
	proto      reflect.Type
	fieldIndex map[string]int

	nested map[string]*Shape
}

// OracleShape wraps an external oracle as a target shape.
func OracleShape(o oracle.Oracle) *Shape { return &Shape{oracle: o} }

// Annotated builds a plain-annotated shape from a structured annotation.
// It panics when ann is not structured; that is a schema definition error.
func Annotated(ann *annotation.Annotation) *Shape {
	if ann == nil || ann.Form() != annotation.FormStructured {
		panic("dydactic: Annotated requires a structured annotation")
	}
	return &Shape{ann: ann}
}

// OracleBacked reports whether this shape dispatches to an external oracle.
func (s *Shape) OracleBacked() bool { return s.oracle != nil }

// Oracle returns the backing oracle, nil for plain-annotated shapes.
func (s *Shape) Oracle() oracle.Oracle { return s.oracle }

// Annotation returns the structured annotation of a plain-annotated shape.
func (s *Shape) Annotation() *annotation.Annotation { return s.ann }

// WithFieldShape declares that a field holds a nested shape of its own
// (oracle-backed or annotated); the caster validates mapping values for that
// field recursively through it.
func (s *Shape) WithFieldShape(name string, sub *Shape) *Shape {
	out := *s
	out.nested = make(map[string]*Shape, len(s.nested)+1)
	for k, v := range s.nested {
		out.nested[k] = v
	}
	out.nested[name] = sub
	return &out
}

// WithPrototype registers a Go struct type to construct validated instances
// into, instead of synthesizing a plain map. The capability probe happens
// here, once: v must be a struct (or pointer to one) whose exported fields
// cover every declared field, matched by json tag first and name second.
// When the probe fails the shape keeps the map construction strategy; there
// is no exception-driven retry at cast time.
func (s *Shape) WithPrototype(v any) *Shape {
	if s.ann == nil {
		return s
	}
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return s
	}
	index := make(map[string]int, len(s.ann.Fields()))
	for name := range s.ann.Fields() {
		i, ok := structFieldFor(t, name)
		if !ok {
			return s
		}
		index[name] = i
	}
	out := *s
	out.proto = t
	out.fieldIndex = index
	return &out
}

func structFieldFor(t reflect.Type, name string) (int, bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if jsonName(sf) == name {
			return i, true
		}
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.IsExported() && strings.EqualFold(sf.Name, name) {
			return i, true
		}
	}
	return 0, false
}

func jsonName(sf reflect.StructField) string {
	tag, ok := sf.Tag.Lookup("json")
	if !ok {
		return sf.Name
	}
	name := tag
	if i := strings.IndexByte(tag, ','); i >= 0 {
		name = tag[:i]
	}
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}
