package dydactic

// Package dydactic is a batch/stream validation layer. It takes records
// (mappings, structs, or encoded JSON text) and validates each against a
// target shape, producing uniform Result values that never panic by default.
//
// - Coercion and union resolution over a closed annotation tree (annotation/,
//   coerce/), with deterministic declared-order tie-breaks
// - A structural caster that aggregates every failing field into one
//   FieldErrors value
// - A streaming pipeline with Return/Raise/Skip error policies, lifecycle
//   hooks, progress reporting, and optional bounded concurrency
// - Pluggable external oracles (oracle/, structoracle/) for richly-typed
//   schemas, including an all-or-nothing bulk entry point
//
// Design policy:
// - Keep only public APIs in the root package; subpackages per concern
//   (annotation, coerce, oracle, rules, stats, export, drift).
// - Errors are values: coded field errors, extracted with errors.As.
// - Hook and progress callbacks are isolated; their failures are swallowed.
//
// Typical usage:
//
//	sh := dydactic.Annotated(annotation.Object(map[string]*annotation.Annotation{
//		"id":   annotation.Int(),
//		"name": annotation.String(),
//	}))
//	st := dydactic.Validate(ctx, records, sh, dydactic.Opt{Policy: dydactic.Skip})
//	for st.Next() {
//		use(st.Result())
//	}
//	if err := st.Err(); err != nil { ... }
