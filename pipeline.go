package dydactic

import (
	"context"
	"iter"
	"slices"
)

// Stream is the lazily-produced sequence of validation results. Iterate with
// Next/Result, then check Err for a terminal failure (a Raise-policy abort or
// a transform contract violation):
//
//	st := dydactic.Validate(ctx, records, shape, opt)
//	for st.Next() {
//		r := st.Result()
//		...
//	}
//	if err := st.Err(); err != nil { ... }
//
// A Stream holds no replay buffer; it is restartable only if the input
// sequence itself is.
type Stream struct {
	pull func() (Result, bool)
	stop func()
	cur  Result
	err  error
	done bool
}

// Next advances to the next surviving result.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	r, ok := s.pull()
	if !ok {
		s.done = true
		if s.stop != nil {
			s.stop()
		}
		return false
	}
	s.cur = r
	return true
}

// Result returns the current result. Valid only after a true Next.
func (s *Stream) Result() Result { return s.cur }

// Err returns the terminal error, if the stream was aborted.
func (s *Stream) Err() error { return s.err }

// Close releases the underlying input early. Safe to call more than once.
func (s *Stream) Close() {
	if !s.done {
		s.done = true
		if s.stop != nil {
			s.stop()
		}
	}
}

// Collect drains the stream into a slice.
func (s *Stream) Collect() ([]Result, error) {
	var out []Result
	for s.Next() {
		out = append(out, s.Result())
	}
	return out, s.Err()
}

// Validate applies the target shape to every item of a possibly unbounded
// sequence, one at a time, under the configured error policy. Items that are
// strings or byte slices take the encoded-text path; everything else is
// treated as a record. Output order equals input order; nothing is buffered
// beyond the item in flight.
func Validate(ctx context.Context, records iter.Seq[any], sh *Shape, opts ...Opt) *Stream {
	opt := lastOpt(opts)
	next, stop := iter.Pull(records)
	st := &Stream{stop: stop}
	st.pull = syncPull(ctx, st, next, -1, sh, opt)
	return st
}

// ValidateSlice validates an already-materialized batch. The total count is
// known, so progress callbacks receive it, and bulk mode becomes available:
// with the Return policy, an oracle-backed shape, and all-map input the whole
// batch is handed to the oracle's bulk entry point, transparently falling
// back to per-item validation on any bulk-level failure.
func ValidateSlice(ctx context.Context, records []any, sh *Shape, opts ...Opt) *Stream {
	opt := lastOpt(opts)
	if opt.Bulk && opt.Policy == Return && sh.OracleBacked() && allMaps(records) {
		if st, ok := bulkValidate(ctx, records, sh, opt); ok {
			return st
		}
	}
	next, stop := iter.Pull(slices.Values(records))
	st := &Stream{stop: stop}
	st.pull = syncPull(ctx, st, next, len(records), sh, opt)
	return st
}

// syncPull is the synchronous per-item loop shared by Validate and
// ValidateSlice. Hook order per item: BeforeValidate, validation,
// AfterValidate, OnSuccess xor OnError, ShouldContinue, progress. Under
// Raise a failing item aborts before its after-hooks fire, so earlier items
// are the only ones observed.
func syncPull(ctx context.Context, st *Stream, next func() (any, bool), total int, sh *Shape, opt Opt) func() (Result, bool) {
	index := 0
	return func() (Result, bool) {
		for {
			if err := ctx.Err(); err != nil {
				st.err = err
				return Result{}, false
			}
			rec, ok := next()
			if !ok {
				return Result{}, false
			}
			opt.Hooks.fireBefore(rec)
			r, cerr := validateItem(ctx, rec, sh, opt)
			if cerr != nil {
				st.err = cerr
				return Result{}, false
			}
			if opt.Policy == Raise && !r.Ok() {
				st.err = r.Err
				return Result{}, false
			}
			opt.Hooks.fireAfter(r)
			opt.Hooks.fireOutcome(r)
			if !opt.Hooks.shouldContinue(r) {
				return Result{}, false
			}
			fireProgress(opt.OnProgress, index, total, r)
			index++
			if opt.Policy == Skip && !r.Ok() {
				continue
			}
			return r, true
		}
	}
}

func allMaps(records []any) bool {
	for _, rec := range records {
		if _, ok := rec.(map[string]any); !ok {
			return false
		}
	}
	return true
}

// bulkValidate submits the whole batch to the oracle's all-or-nothing bulk
// entry point. Returns ok=false when the bulk attempt failed, in which case
// the caller falls back to per-item validation over the same batch; the
// fallback is invisible to the caller beyond latency.
func bulkValidate(ctx context.Context, records []any, sh *Shape, opt Opt) (*Stream, bool) {
	maps := make([]map[string]any, len(records))
	for i, rec := range records {
		m, _ := recordToMap(rec)
		m, terr := applyTransforms(m, opt.Transforms)
		if terr != nil {
			st := &Stream{err: terr, done: true}
			st.pull = func() (Result, bool) { return Result{}, false }
			return st, true
		}
		if opt.Fields != nil {
			m = filterFields(m, opt.Fields)
		}
		maps[i] = m
	}

	validated, err := sh.oracle.ValidateManyMaps(ctx, maps, oracleOptions(opt))
	if err != nil || len(validated) != len(records) {
		return nil, false
	}

	total := len(records)
	idx := 0
	st := &Stream{}
	st.pull = func() (Result, bool) {
		for idx < total {
			i := idx
			r := finishInstance(validated[i], records[i], opt)
			opt.Hooks.fireAfter(r)
			opt.Hooks.fireOutcome(r)
			if !opt.Hooks.shouldContinue(r) {
				idx = total
				return Result{}, false
			}
			fireProgress(opt.OnProgress, i, total, r)
			idx++
			return r, true
		}
		return Result{}, false
	}
	return st, true
}
