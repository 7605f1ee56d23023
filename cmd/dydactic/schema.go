package main

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	dydactic "github.com/eddiethedean/dydactic"
	"github.com/eddiethedean/dydactic/annotation"
	"github.com/eddiethedean/dydactic/oracle"
)

// schemaFile is the YAML shape definition:
//
//	fields:
//	  id: int
//	  name: string
//	  score: int | string
//	  address:
//	    fields:
//	      city: string
//	      zip: string
//	    optional: [zip]
//	optional: [score]
//
// Scalar field types are int, string, float, bool, and time; unions are
// written with "|" and tried left to right.
type schemaFile struct {
	Fields   map[string]yaml.Node `yaml:"fields"`
	Optional []string             `yaml:"optional"`
}

func loadShape(path string) (*dydactic.Shape, error) {
	ann, err := loadAnnotation(path)
	if err != nil {
		return nil, err
	}
	return dydactic.Annotated(ann), nil
}

func loadAnnotation(path string) (*annotation.Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	ann, err := buildObject(sf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ann, nil
}

func buildObject(sf schemaFile) (*annotation.Annotation, error) {
	if len(sf.Fields) == 0 {
		return nil, fmt.Errorf("schema declares no fields")
	}
	fields := make(map[string]*annotation.Annotation, len(sf.Fields))
	for name, node := range sf.Fields {
		ann, err := buildField(node)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields[name] = ann
	}
	obj := annotation.Object(fields)
	if len(sf.Optional) > 0 {
		obj = obj.WithOptional(sf.Optional...)
	}
	return obj, nil
}

func buildField(node yaml.Node) (*annotation.Annotation, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return parseTypeExpr(node.Value)
	case yaml.MappingNode:
		var sub schemaFile
		if err := node.Decode(&sub); err != nil {
			return nil, err
		}
		return buildObject(sub)
	default:
		return nil, fmt.Errorf("expected a type expression or a nested object")
	}
}

func parseTypeExpr(expr string) (*annotation.Annotation, error) {
	parts := strings.Split(expr, "|")
	members := make([]*annotation.Annotation, 0, len(parts))
	for _, part := range parts {
		ann, err := parseScalar(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		members = append(members, ann)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return annotation.Union(members...), nil
}

func parseScalar(name string) (*annotation.Annotation, error) {
	switch name {
	case "string", "str":
		return annotation.String(), nil
	case "int", "integer":
		return annotation.Int(), nil
	case "float", "number":
		return annotation.Float(), nil
	case "bool", "boolean":
		return annotation.Bool(), nil
	case "time", "datetime", "date":
		return annotation.Time(), nil
	default:
		return nil, fmt.Errorf("unknown type %q", name)
	}
}

// loadDescription projects a YAML shape definition into the flat field
// description the drift package diffs.
func loadDescription(path string) (map[string]oracle.FieldSpec, error) {
	ann, err := loadAnnotation(path)
	if err != nil {
		return nil, err
	}
	desc := make(map[string]oracle.FieldSpec, len(ann.Fields()))
	for name, f := range ann.Fields() {
		desc[name] = oracle.FieldSpec{Type: f.String(), Required: ann.Required(name)}
	}
	return desc, nil
}

// readRecords reads NDJSON, one record per non-blank line. "-" reads stdin.
func readRecords(path string) ([]any, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var records []any
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var m map[string]any
		if err := gojson.Unmarshal([]byte(text), &m); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, m)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func sliceSeq(records []any) iter.Seq[any] {
	return slices.Values(records)
}
