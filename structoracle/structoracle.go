// Package structoracle implements the oracle contract on top of a plain Go
// struct type: field presence is enforced from the struct's schema, values
// are decoded through go-json, and the schema description is derived via
// JSON Schema reflection.
package structoracle

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	gojson "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"

	"github.com/eddiethedean/dydactic/oracle"
)

// Oracle validates records against the struct type T. Construct once with
// New and reuse; it is stateless beyond the derived schema description.
type Oracle[T any] struct {
	desc map[string]oracle.FieldSpec
}

// New derives the schema description for T up front. T must be a struct
// type; the zero Oracle of a non-struct T simply describes no fields.
func New[T any]() *Oracle[T] {
	var zero T
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schema := r.Reflect(&zero)

	desc := map[string]oracle.FieldSpec{}
	required := map[string]bool{}
	for _, name := range schema.Required {
		required[name] = true
	}
	if schema.Properties != nil {
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			typeName := pair.Value.Type
			if pair.Value.Format != "" {
				typeName = fmt.Sprintf("%s(%s)", typeName, pair.Value.Format)
			}
			desc[pair.Key] = oracle.FieldSpec{Type: typeName, Required: required[pair.Key]}
		}
	}
	return &Oracle[T]{desc: desc}
}

// ValidateMap validates one mapping and constructs a *T. Missing required
// fields and (in strict mode) unknown keys are reported together in one
// StructuralError; decode failures surface per record.
func (o *Oracle[T]) ValidateMap(ctx context.Context, m map[string]any, opt oracle.Options) (any, error) {
	var issues []oracle.Issue
	for _, name := range o.fieldNames() {
		spec := o.desc[name]
		if _, present := m[name]; spec.Required && !present {
			issues = append(issues, oracle.Issue{Path: name, Message: "missing required field"})
		}
	}
	if opt.Strict {
		unknown := make([]string, 0)
		for key := range m {
			if _, declared := o.desc[key]; !declared {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		for _, key := range unknown {
			issues = append(issues, oracle.Issue{Path: key, Message: "unknown field", Value: m[key]})
		}
	}
	if len(issues) > 0 {
		return nil, &oracle.StructuralError{Issues: issues}
	}

	data, err := gojson.Marshal(m)
	if err != nil {
		return nil, &oracle.StructuralError{Issues: []oracle.Issue{{Message: err.Error()}}}
	}
	return o.decode(data, opt)
}

// ValidateJSON validates one record of encoded JSON text. The text is first
// decoded into a mapping so required-field enforcement matches the map path
// exactly.
func (o *Oracle[T]) ValidateJSON(ctx context.Context, data []byte, opt oracle.Options) (any, error) {
	var m map[string]any
	if err := gojson.Unmarshal(data, &m); err != nil {
		return nil, &oracle.StructuralError{Issues: []oracle.Issue{{Message: "invalid JSON: " + err.Error()}}}
	}
	return o.ValidateMap(ctx, m, opt)
}

// ValidateManyMaps validates a batch all-or-nothing: the first failing record
// fails the whole batch and no partial results are returned.
func (o *Oracle[T]) ValidateManyMaps(ctx context.Context, ms []map[string]any, opt oracle.Options) ([]any, error) {
	out := make([]any, 0, len(ms))
	for _, m := range ms {
		inst, err := o.ValidateMap(ctx, m, opt)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// Describe returns a copy of the derived field descriptions.
func (o *Oracle[T]) Describe() map[string]oracle.FieldSpec {
	out := make(map[string]oracle.FieldSpec, len(o.desc))
	for k, v := range o.desc {
		out[k] = v
	}
	return out
}

func (o *Oracle[T]) decode(data []byte, opt oracle.Options) (any, error) {
	var v T
	dec := gojson.NewDecoder(bytes.NewReader(data))
	if opt.Strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&v); err != nil {
		return nil, &oracle.StructuralError{Issues: []oracle.Issue{{Message: err.Error()}}}
	}
	return &v, nil
}

func (o *Oracle[T]) fieldNames() []string {
	names := make([]string, 0, len(o.desc))
	for name := range o.desc {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
