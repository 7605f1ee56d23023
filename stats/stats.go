// Package stats aggregates finished validation results into summary
// statistics: validity ratios, error-code frequencies, and per-field error
// frequencies.
package stats

import (
	"fmt"
	"sort"

	gojson "github.com/goccy/go-json"

	dydactic "github.com/eddiethedean/dydactic"
)

// Stats summarizes a batch of validation results.
type Stats struct {
	Total           int            `json:"total"`
	ValidCount      int            `json:"valid_count"`
	InvalidCount    int            `json:"invalid_count"`
	ValidPct        float64        `json:"valid_percentage"`
	InvalidPct      float64        `json:"invalid_percentage"`
	ErrorCounts     map[string]int `json:"error_counts"`       // by error code (or error type for opaque errors)
	FieldErrCounts  map[string]int `json:"field_error_counts"` // by field name
	TotalFieldErrs  int            `json:"total_field_errors"`
}

// Count is one (name, count) aggregation entry.
type Count struct {
	Name  string
	Count int
}

// Collect computes statistics over completed results.
func Collect(results []dydactic.Result) Stats {
	s := Stats{
		Total:          len(results),
		ErrorCounts:    map[string]int{},
		FieldErrCounts: map[string]int{},
	}
	for _, r := range results {
		if r.Ok() {
			s.ValidCount++
			continue
		}
		s.InvalidCount++
		fe, ok := dydactic.AsFieldErrors(r.Err)
		if !ok {
			s.ErrorCounts[fmt.Sprintf("%T", r.Err)]++
			continue
		}
		for field, entry := range fe {
			s.ErrorCounts[entry.Code]++
			s.FieldErrCounts[field]++
			s.TotalFieldErrs++
		}
	}
	if s.Total > 0 {
		s.ValidPct = float64(s.ValidCount) / float64(s.Total) * 100
		s.InvalidPct = float64(s.InvalidCount) / float64(s.Total) * 100
	}
	return s
}

// TopErrors returns the n most frequent error codes, descending, ties broken
// by name for determinism.
func (s Stats) TopErrors(n int) []Count { return top(s.ErrorCounts, n) }

// TopFieldErrors returns the n most frequently failing fields.
func (s Stats) TopFieldErrors(n int) []Count { return top(s.FieldErrCounts, n) }

// JSON renders the stats as JSON.
func (s Stats) JSON() ([]byte, error) { return gojson.Marshal(s) }

func (s Stats) String() string {
	return fmt.Sprintf("Stats(total=%d, valid=%d (%.1f%%), invalid=%d (%.1f%%))",
		s.Total, s.ValidCount, s.ValidPct, s.InvalidCount, s.InvalidPct)
}

func top(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for name, c := range counts {
		out = append(out, Count{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
