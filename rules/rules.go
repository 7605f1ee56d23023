// Package rules provides post-validation business rules: predicates applied
// to already type-validated records, scoped either to one field or to the
// whole record.
package rules

import (
	"fmt"
	"reflect"
	"sort"
)

// RecordScope is the Field value marking a rule that receives the whole
// record mapping instead of a single field value.
const RecordScope = "*"

// Rule is one predicate. Check returns true when the value is acceptable.
// Lower Priority runs first. Rules are configuration: create once, reuse
// across many records.
type Rule struct {
	Field    string
	Check    func(v any) bool
	Message  string
	Priority int
}

// Violation reports one failed rule.
type Violation struct {
	// Field is the rule's scope: a field name, or RecordScope.
	Field   string
	Message string
	Value   any
}

// Set holds rules partitioned by scope and sorted by priority. Build once
// with NewSet; a Set is stateless beyond its configuration and safe for
// concurrent use.
type Set struct {
	field  map[string][]Rule
	record []Rule
}

// NewSet partitions rs into field-scoped and record-scoped buckets, each
// sorted by ascending priority (stable within equal priorities).
func NewSet(rs ...Rule) *Set {
	sorted := make([]Rule, len(rs))
	copy(sorted, rs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	s := &Set{field: map[string][]Rule{}}
	for _, r := range sorted {
		if r.Field == RecordScope {
			s.record = append(s.record, r)
			continue
		}
		s.field[r.Field] = append(s.field[r.Field], r)
	}
	return s
}

// Len reports the total number of rules in the set.
func (s *Set) Len() int {
	n := len(s.record)
	for _, rs := range s.field {
		n += len(rs)
	}
	return n
}

// Evaluate runs the set against a validated record. Structs are flattened to
// a map first; values that are neither maps nor structs produce no
// violations. Every record rule runs and the last failing message wins; field
// rules stop at the first failure per field and only fire when the field is
// present. A panicking predicate counts as a failure.
func (s *Set) Evaluate(record any) []Violation {
	m, ok := asMap(record)
	if !ok {
		return nil
	}

	var out []Violation
	var recordMsg string
	var recordFailed bool
	for _, r := range s.record {
		if passed, msg := run(r, m); !passed {
			recordMsg = msg
			recordFailed = true
		}
	}
	if recordFailed {
		out = append(out, Violation{Field: RecordScope, Message: recordMsg, Value: m})
	}

	names := make([]string, 0, len(s.field))
	for name := range s.field {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value, present := m[name]
		if !present {
			continue
		}
		for _, r := range s.field[name] {
			if passed, msg := run(r, value); !passed {
				out = append(out, Violation{Field: name, Message: msg, Value: value})
				break
			}
		}
	}
	return out
}

func run(r Rule, v any) (passed bool, msg string) {
	defer func() {
		if rec := recover(); rec != nil {
			passed = false
			msg = fmt.Sprintf("%s: %v", r.Message, rec)
		}
	}()
	if r.Check == nil {
		return true, ""
	}
	if r.Check(v) {
		return true, ""
	}
	return false, r.Message
}

func asMap(record any) (map[string]any, bool) {
	if m, ok := record.(map[string]any); ok {
		return m, true
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
	m := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		m[fieldKey(sf)] = rv.Field(i).Interface()
	}
	return m, true
}

func fieldKey(sf reflect.StructField) string {
	if tag, ok := sf.Tag.Lookup("json"); ok {
		name := tag
		for i := 0; i < len(tag); i++ {
			if tag[i] == ',' {
				name = tag[:i]
				break
			}
		}
		if name != "" && name != "-" {
			return name
		}
	}
	return sf.Name
}
