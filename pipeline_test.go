package dydactic_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	dydactic "github.com/eddiethedean/dydactic"
)

func batch() []any {
	return []any{
		map[string]any{"id": 1, "name": "Alice", "age": 30},
		map[string]any{"id": "bad", "name": "Bob", "age": 25},
		map[string]any{"id": 3, "name": "Cara", "age": 41},
	}
}

func TestValidateSliceReturnPolicy(t *testing.T) {
	st := dydactic.ValidateSlice(context.Background(), batch(), personShape())
	results, err := st.Collect()
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].Ok() || results[1].Ok() || !results[2].Ok() {
		t.Fatalf("wrong outcomes: %v %v %v", results[0].Err, results[1].Err, results[2].Err)
	}
	// Output order equals input order.
	if results[0].Validated.(map[string]any)["name"] != "Alice" ||
		results[2].Validated.(map[string]any)["name"] != "Cara" {
		t.Fatalf("order not preserved")
	}
}

func TestValidateSliceSkipPolicy(t *testing.T) {
	st := dydactic.ValidateSlice(context.Background(), batch(), personShape(), dydactic.Opt{Policy: dydactic.Skip})
	results, err := st.Collect()
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want the 2 valid ones", len(results))
	}
	for _, r := range results {
		if !r.Ok() {
			t.Fatalf("skip must drop failures, saw %v", r.Err)
		}
	}
}

func TestValidateSliceRaisePolicy(t *testing.T) {
	var before int
	opt := dydactic.Opt{
		Policy: dydactic.Raise,
		Hooks:  &dydactic.Hooks{BeforeValidate: func(any) { before++ }},
	}
	st := dydactic.ValidateSlice(context.Background(), batch(), personShape(), opt)
	results, err := st.Collect()
	if err == nil {
		t.Fatalf("raise must surface the first failure via Err")
	}
	if _, ok := dydactic.AsFieldErrors(err); !ok {
		t.Fatalf("Err = %v, want the validation failure itself", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results before the abort, want 1", len(results))
	}
	// The failing item entered validation; the third never did.
	if before != 2 {
		t.Fatalf("BeforeValidate fired %d times, want 2", before)
	}
}

func TestValidateLazySequence(t *testing.T) {
	seen := 0
	seq := func(yield func(any) bool) {
		for _, rec := range batch() {
			seen++
			if !yield(rec) {
				return
			}
		}
	}
	st := dydactic.Validate(context.Background(), seq, personShape())
	if !st.Next() {
		t.Fatalf("expected a first result")
	}
	if seen != 1 {
		t.Fatalf("pulled %d items for one result, want 1", seen)
	}
	st.Close()
}

func TestValidateContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := dydactic.ValidateSlice(ctx, batch(), personShape())
	if st.Next() {
		t.Fatalf("cancelled context must stop the stream")
	}
	if !errors.Is(st.Err(), context.Canceled) {
		t.Fatalf("Err = %v, want context.Canceled", st.Err())
	}
}

func TestHookOrderAndOutcomeSplit(t *testing.T) {
	var trace []string
	opt := dydactic.Opt{Hooks: &dydactic.Hooks{
		BeforeValidate: func(any) { trace = append(trace, "before") },
		AfterValidate:  func(dydactic.Result) { trace = append(trace, "after") },
		OnSuccess:      func(dydactic.Result) { trace = append(trace, "success") },
		OnError:        func(dydactic.Result) { trace = append(trace, "error") },
	}}
	st := dydactic.ValidateSlice(context.Background(), batch()[:2], personShape(), opt)
	if _, err := st.Collect(); err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	want := []string{"before", "after", "success", "before", "after", "error"}
	if !slices.Equal(trace, want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
}

func TestHookPanicsAreSwallowed(t *testing.T) {
	opt := dydactic.Opt{
		Hooks: &dydactic.Hooks{
			BeforeValidate: func(any) { panic("before") },
			AfterValidate:  func(dydactic.Result) { panic("after") },
			OnSuccess:      func(dydactic.Result) { panic("success") },
			OnError:        func(dydactic.Result) { panic("error") },
		},
		OnProgress: func(int, int, dydactic.Result) { panic("progress") },
	}
	st := dydactic.ValidateSlice(context.Background(), batch(), personShape(), opt)
	results, err := st.Collect()
	if err != nil {
		t.Fatalf("hook panics must not surface: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
}

func TestShouldContinueStopsStream(t *testing.T) {
	count := 0
	opt := dydactic.Opt{Hooks: &dydactic.Hooks{
		ShouldContinue: func(r dydactic.Result) bool {
			count++
			return count < 2
		},
	}}
	st := dydactic.ValidateSlice(context.Background(), batch(), personShape(), opt)
	results, err := st.Collect()
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 before the stop", len(results))
	}
}

func TestProgressReporting(t *testing.T) {
	type tick struct {
		index, total int
		ok           bool
	}
	var ticks []tick
	opt := dydactic.Opt{
		Policy: dydactic.Skip,
		OnProgress: func(index, total int, r dydactic.Result) {
			ticks = append(ticks, tick{index, total, r.Ok()})
		},
	}
	st := dydactic.ValidateSlice(context.Background(), batch(), personShape(), opt)
	if _, err := st.Collect(); err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	// Skipped items still tick, and the position counter keeps advancing.
	want := []tick{{0, 3, true}, {1, 3, false}, {2, 3, true}}
	if !slices.Equal(ticks, want) {
		t.Fatalf("ticks = %v, want %v", ticks, want)
	}
}

func TestProgressUnknownTotal(t *testing.T) {
	var total int
	opt := dydactic.Opt{OnProgress: func(_, t int, _ dydactic.Result) { total = t }}
	st := dydactic.Validate(context.Background(), slices.Values(batch()[:1]), personShape(), opt)
	if _, err := st.Collect(); err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if total != -1 {
		t.Fatalf("total = %d, want -1 for unbounded input", total)
	}
}

func TestBulkValidation(t *testing.T) {
	sh := dydactic.OracleShape(&mapOracle{required: []string{"id"}})
	records := []any{
		map[string]any{"id": 1},
		map[string]any{"id": 2},
	}
	st := dydactic.ValidateSlice(context.Background(), records, sh, dydactic.Opt{Bulk: true})
	results, err := st.Collect()
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if len(results) != 2 || !results[0].Ok() || !results[1].Ok() {
		t.Fatalf("bulk results = %v", results)
	}
}

func TestBulkFallbackOnBatchFailure(t *testing.T) {
	sh := dydactic.OracleShape(&mapOracle{required: []string{"id"}})
	records := []any{
		map[string]any{"id": 1},
		map[string]any{"other": 2},
		map[string]any{"id": 3},
	}
	st := dydactic.ValidateSlice(context.Background(), records, sh, dydactic.Opt{Bulk: true})
	results, err := st.Collect()
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	// The all-or-nothing batch fails, so the per-item fallback must produce
	// the usual mixed outcomes.
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].Ok() || results[1].Ok() || !results[2].Ok() {
		t.Fatalf("fallback outcomes wrong: %v %v %v", results[0].Err, results[1].Err, results[2].Err)
	}
}

func TestBulkTransformContractViolation(t *testing.T) {
	sh := dydactic.OracleShape(&mapOracle{required: []string{"id"}})
	opt := dydactic.Opt{
		Bulk:       true,
		Transforms: []dydactic.Transform{{Apply: func(v any) any { return 42 }}},
	}
	st := dydactic.ValidateSlice(context.Background(), []any{map[string]any{"id": 1}}, sh, opt)
	_, err := st.Collect()
	var tse *dydactic.TransformShapeError
	if !errors.As(err, &tse) {
		t.Fatalf("expected TransformShapeError, got %v", err)
	}
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	st := dydactic.ValidateSlice(context.Background(), batch(), personShape())
	if !st.Next() {
		t.Fatalf("expected a first result")
	}
	st.Close()
	st.Close()
	if st.Next() {
		t.Fatalf("Next after Close must report false")
	}
}
