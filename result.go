package dydactic

// Result is the uniform outcome of validating one record. Exactly one of Err
// and Validated is set, never both and never neither; Original always carries
// the input as it was received so any failure can be correlated back to its
// source.
type Result struct {
	// Err is the validation failure (FieldErrors or an opaque oracle error),
	// nil on success.
	Err error
	// Validated is the constructed instance, nil on failure.
	Validated any
	// Original is the untouched input value.
	Original any
}

// Ok reports whether validation succeeded.
func (r Result) Ok() bool { return r.Err == nil }

func success(validated, original any) Result {
	return Result{Validated: validated, Original: original}
}

func failure(err error, original any) Result {
	return Result{Err: err, Original: original}
}
