// Package oracle defines the contract for external structural validators:
// engines with their own schema representation (richer than plain
// annotations) that validate whole records and construct typed instances.
package oracle

import (
	"context"
	"fmt"
	"strings"
)

// Options forwards strictness and attribute-sourcing choices to the oracle.
type Options struct {
	// Strict rejects inputs needing lossy conversion and unknown keys.
	Strict bool
	// FromAttributes allows sourcing fields from object attributes rather
	// than map keys. Oracles that only consume maps may ignore it.
	FromAttributes bool
}

// FieldSpec describes one field of an oracle schema.
type FieldSpec struct {
	Type     string
	Required bool
}

// Oracle is the external schema-validation collaborator. Implementations
// report failures as *StructuralError; any other error is treated as opaque.
type Oracle interface {
	// ValidateMap validates one record given as a mapping and returns the
	// constructed instance.
	ValidateMap(ctx context.Context, m map[string]any, opt Options) (any, error)

	// ValidateJSON validates one record given as encoded JSON text.
	ValidateJSON(ctx context.Context, data []byte, opt Options) (any, error)

	// ValidateManyMaps validates a batch all-or-nothing: any single failing
	// record fails the whole batch with no partial results.
	ValidateManyMaps(ctx context.Context, ms []map[string]any, opt Options) ([]any, error)

	// Describe returns the field name -> {type, required} view of the schema.
	Describe() map[string]FieldSpec
}

// Issue is one entry of a structural failure.
type Issue struct {
	Path    string // field name, or "" for record-level problems
	Message string
	Value   any
}

// StructuralError aggregates every issue an oracle found in one record.
type StructuralError struct {
	Issues []Issue
}

func (e *StructuralError) Error() string {
	if len(e.Issues) == 0 {
		return "oracle: structural validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.Path == "" {
			parts = append(parts, is.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", is.Path, is.Message))
	}
	return "oracle: " + strings.Join(parts, "; ")
}
