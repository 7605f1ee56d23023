package dydactic

import (
	"context"
	"iter"
	"runtime"
	"slices"

	"github.com/joeshaw/envdecode"
	"golang.org/x/sync/semaphore"
)

// maxWorkerCap bounds every concurrent entry point regardless of
// configuration or environment.
const maxWorkerCap = 32

// MaxWorkersEnv caps the default worker count of ValidateJSONsConcurrently.
// An absent or non-numeric value falls back to a single worker; the fallback
// is deliberately conservative rather than an error.
const MaxWorkersEnv = "DYDACTIC_MAX_WORKERS"

// ValidateConcurrently validates a batch across a bounded pool of goroutines.
// The input is materialized first so the total count is known; each task owns
// one item and produces one result, admitted through a weighted semaphore of
// at most MaxWorkers validations in flight. Results are retired in
// completion order, not submission order, and hook/progress callbacks fire in
// completion order too. Under Raise the first observed failure aborts the
// stream; in-flight tasks are not cancelled but their results are no longer
// yielded. Per-item outcomes are identical to the synchronous path: only
// scheduling differs.
func ValidateConcurrently(ctx context.Context, records iter.Seq[any], sh *Shape, opts ...Opt) *Stream {
	opt := lastOpt(opts)
	workers := opt.MaxWorkers
	if workers <= 0 {
		workers = defaultWorkers()
	}
	return validateConcurrently(ctx, slices.Collect(records), sh, opt, workers)
}

// ValidateJSONsConcurrently is the concurrent counterpart of the encoded-text
// path. Its default worker count consults MaxWorkersEnv and falls back to 1.
func ValidateJSONsConcurrently(ctx context.Context, texts iter.Seq[any], sh *Shape, opts ...Opt) *Stream {
	opt := lastOpt(opts)
	workers := opt.MaxWorkers
	if workers <= 0 {
		workers = workersFromEnv()
	}
	return validateConcurrently(ctx, slices.Collect(texts), sh, opt, workers)
}

type indexedResult struct {
	idx int
	r   Result
	err error
}

func validateConcurrently(ctx context.Context, items []any, sh *Shape, opt Opt, workers int) *Stream {
	total := len(items)
	// Buffered to capacity so tasks never block on a reader that stopped
	// draining; nothing leaks when the stream aborts early.
	ch := make(chan indexedResult, total)
	sem := semaphore.NewWeighted(int64(workers))
	for i, rec := range items {
		go func(idx int, rec any) {
			if err := sem.Acquire(ctx, 1); err != nil {
				ch <- indexedResult{idx: idx, err: err}
				return
			}
			defer sem.Release(1)
			opt.Hooks.fireBefore(rec)
			r, cerr := validateItem(ctx, rec, sh, opt)
			ch <- indexedResult{idx: idx, r: r, err: cerr}
		}(i, rec)
	}
	items = nil // the tasks own their items now

	remaining := total
	st := &Stream{}
	st.pull = func() (Result, bool) {
		for remaining > 0 {
			in := <-ch
			remaining--
			if in.err != nil {
				st.err = in.err
				return Result{}, false
			}
			r := in.r
			opt.Hooks.fireAfter(r)
			opt.Hooks.fireOutcome(r)
			if !opt.Hooks.shouldContinue(r) {
				return Result{}, false
			}
			fireProgress(opt.OnProgress, in.idx, total, r)
			if !r.Ok() {
				switch opt.Policy {
				case Raise:
					st.err = r.Err
					return Result{}, false
				case Skip:
					continue
				}
			}
			return r, true
		}
		return Result{}, false
	}
	return st
}

func defaultWorkers() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	if n > maxWorkerCap {
		n = maxWorkerCap
	}
	return n
}

type workerEnv struct {
	MaxWorkers int `env:"DYDACTIC_MAX_WORKERS,default=1"`
}

func workersFromEnv() int {
	var cfg workerEnv
	if err := envdecode.Decode(&cfg); err != nil {
		return 1
	}
	if cfg.MaxWorkers < 1 {
		return 1
	}
	if d := defaultWorkers(); cfg.MaxWorkers > d {
		return d
	}
	return cfg.MaxWorkers
}
