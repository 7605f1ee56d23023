package dydactic

import "github.com/eddiethedean/dydactic/rules"

// ErrorPolicy controls how validation failures surface during streaming.
type ErrorPolicy int

const (
	// Return yields a Result for every item; failures are visible in
	// Result.Err and iteration continues.
	Return ErrorPolicy = iota
	// Raise stops the stream at the first validation failure and exposes it
	// via Stream.Err; later items are never processed.
	Raise
	// Skip drops failing items from the output entirely. Position counters
	// still advance so progress reflects true input position.
	Skip
)

// ProgressFunc is invoked once per processed item, including items a Skip
// policy later drops. total is -1 when the input length is unknown.
// Failures inside the callback are swallowed.
type ProgressFunc func(index, total int, r Result)

// Opt bundles per-invocation validation options. Pass at most one; when
// several are given the last wins, matching the variadic option convention
// used across the API.
type Opt struct {
	// Policy is the error-handling policy, fixed for the whole invocation.
	Policy ErrorPolicy
	// Strict and FromAttributes are forwarded to the oracle.
	Strict         bool
	FromAttributes bool
	// Fields restricts validation to a subset of the record's keys.
	Fields []string
	// ProjectFields narrows the validated instance to a field subset.
	ProjectFields []string
	// Transforms run before validation, in order.
	Transforms []Transform
	// Rules run after type validation; failures merge into the field errors.
	Rules *rules.Set
	// Hooks fire around each item's validation.
	Hooks *Hooks
	// OnProgress fires once per processed item.
	OnProgress ProgressFunc
	// Bulk allows handing a whole batch to the oracle's bulk entry point when
	// the policy is Return and the shape is oracle-backed. Fallback to
	// per-item validation is transparent.
	Bulk bool
	// MaxWorkers bounds the concurrent entry points. Zero picks the default.
	MaxWorkers int
}

func lastOpt(opts []Opt) Opt {
	if len(opts) == 0 {
		return Opt{}
	}
	return opts[len(opts)-1]
}
