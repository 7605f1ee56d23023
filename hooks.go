package dydactic

// Hooks bundles the optional lifecycle callbacks of a pipeline invocation.
// Each callback's own failure (a panic) is swallowed, never propagated: hooks
// are an isolation boundary between user-extension code and the pipeline's
// control flow, and must never destabilize it.
//
// Per item the firing order is: BeforeValidate, validation, AfterValidate,
// OnSuccess xor OnError, ShouldContinue.
type Hooks struct {
	// BeforeValidate receives the raw input before anything touches it.
	BeforeValidate func(record any)
	// AfterValidate receives every result, success or failure.
	AfterValidate func(r Result)
	// OnSuccess fires only for successful results.
	OnSuccess func(r Result)
	// OnError fires only for failed results.
	OnError func(r Result)
	// ShouldContinue decides whether the pipeline keeps going. Returning
	// false stops it immediately, regardless of error policy. A panicking
	// callback defaults to continuing.
	ShouldContinue func(r Result) bool
}

func (h *Hooks) fireBefore(record any) {
	if h == nil || h.BeforeValidate == nil {
		return
	}
	guard(func() { h.BeforeValidate(record) })
}

func (h *Hooks) fireAfter(r Result) {
	if h == nil || h.AfterValidate == nil {
		return
	}
	guard(func() { h.AfterValidate(r) })
}

func (h *Hooks) fireOutcome(r Result) {
	if h == nil {
		return
	}
	if r.Ok() {
		if h.OnSuccess != nil {
			guard(func() { h.OnSuccess(r) })
		}
		return
	}
	if h.OnError != nil {
		guard(func() { h.OnError(r) })
	}
}

func (h *Hooks) shouldContinue(r Result) bool {
	if h == nil || h.ShouldContinue == nil {
		return true
	}
	cont := true
	guard(func() { cont = h.ShouldContinue(r) })
	return cont
}

func fireProgress(fn ProgressFunc, index, total int, r Result) {
	if fn == nil {
		return
	}
	guard(func() { fn(index, total, r) })
}

// guard runs fn and discards any panic. Applied uniformly to every hook slot
// and the progress callback.
func guard(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
