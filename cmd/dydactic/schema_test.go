package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	dydactic "github.com/eddiethedean/dydactic"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadShape(t *testing.T) {
	path := writeFile(t, "shape.yaml", `
fields:
  id: int
  name: string
  score: int | string
  address:
    fields:
      city: string
      zip: string
    optional: [zip]
optional: [score]
`)
	shape, err := loadShape(path)
	if err != nil {
		t.Fatalf("loadShape: %v", err)
	}
	ann := shape.Annotation()
	if !ann.Required("id") || ann.Required("score") {
		t.Fatalf("required flags wrong: %v", ann.RequiredFields())
	}
	score, _ := ann.Field("score")
	if score.String() != "int | string" {
		t.Fatalf("score = %q, want union", score.String())
	}
	addr, _ := ann.Field("address")
	if addr.Required("zip") || !addr.Required("city") {
		t.Fatalf("nested required flags wrong")
	}

	r, err := dydactic.ValidateRecord(context.Background(), map[string]any{
		"id":   "1",
		"name": "Alice",
		"address": map[string]any{
			"city": "Springfield",
		},
	}, shape)
	if err != nil {
		t.Fatalf("ValidateRecord: %v", err)
	}
	if !r.Ok() {
		t.Fatalf("validation failed: %v", r.Err)
	}
}

func TestLoadShapeUnknownType(t *testing.T) {
	path := writeFile(t, "shape.yaml", "fields:\n  id: widget\n")
	if _, err := loadShape(path); err == nil {
		t.Fatalf("unknown type must fail loading")
	}
}

func TestLoadShapeNoFields(t *testing.T) {
	path := writeFile(t, "shape.yaml", "optional: [x]\n")
	if _, err := loadShape(path); err == nil {
		t.Fatalf("a schema without fields must fail loading")
	}
}

func TestLoadDescription(t *testing.T) {
	path := writeFile(t, "shape.yaml", `
fields:
  id: int
  email: string
optional: [email]
`)
	desc, err := loadDescription(path)
	if err != nil {
		t.Fatalf("loadDescription: %v", err)
	}
	if desc["id"].Type != "int" || !desc["id"].Required {
		t.Fatalf("id spec = %+v", desc["id"])
	}
	if desc["email"].Required {
		t.Fatalf("email must be optional")
	}
}

func TestReadRecords(t *testing.T) {
	path := writeFile(t, "records.ndjson", `{"id": 1}

{"id": 2}
`)
	records, err := readRecords(path)
	if err != nil {
		t.Fatalf("readRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (blank lines skipped)", len(records))
	}
	if _, err := readRecords(writeFile(t, "bad.ndjson", "{broken\n")); err == nil {
		t.Fatalf("malformed line must fail with its line number")
	}
}
