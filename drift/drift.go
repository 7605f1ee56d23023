// Package drift compares two schema versions and measures how well existing
// records survive a schema upgrade.
package drift

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/eddiethedean/dydactic/oracle"
)

// FieldChange records one field that differs between two schema versions.
type FieldChange struct {
	Field       string
	OldType     string
	NewType     string
	WasRequired bool
	IsRequired  bool
}

// SchemaDiff is the structural difference between two schema descriptions.
type SchemaDiff struct {
	Added   []string
	Removed []string
	Changed []FieldChange
	// Breaking is true when the changes can reject previously valid records:
	// a removed required field, a type change, or a field losing its
	// required status.
	Breaking bool
}

// Diff compares two field descriptions as returned by Oracle.Describe.
func Diff(old, new map[string]oracle.FieldSpec) SchemaDiff {
	var d SchemaDiff
	for name := range new {
		if _, ok := old[name]; !ok {
			d.Added = append(d.Added, name)
		}
	}
	for name, spec := range old {
		if _, ok := new[name]; !ok {
			d.Removed = append(d.Removed, name)
			if spec.Required {
				d.Breaking = true
			}
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)

	common := make([]string, 0, len(old))
	for name := range old {
		if _, ok := new[name]; ok {
			common = append(common, name)
		}
	}
	sort.Strings(common)
	for _, name := range common {
		o, n := old[name], new[name]
		if o.Type == n.Type && o.Required == n.Required {
			continue
		}
		d.Changed = append(d.Changed, FieldChange{
			Field:       name,
			OldType:     o.Type,
			NewType:     n.Type,
			WasRequired: o.Required,
			IsRequired:  n.Required,
		})
		if o.Type != n.Type {
			d.Breaking = true
		}
		if o.Required && !n.Required {
			d.Breaking = true
		}
	}
	return d
}

// Report summarizes how a record sample fares against a new schema version.
type Report struct {
	Total           int
	Compatible      int
	Incompatible    int
	CompatiblePct   float64
	BreakingChanges []string
}

// DetectOpt configures Detect.
type DetectOpt struct {
	// SampleSize caps how many records are checked; zero checks all of them.
	// Sampling is uniform without replacement.
	SampleSize int
}

// Detect validates records against the new oracle and combines the outcome
// with the schema diff between the two versions.
func Detect(ctx context.Context, records []map[string]any, oldOracle, newOracle oracle.Oracle, opts ...DetectOpt) Report {
	var opt DetectOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	sample := records
	if opt.SampleSize > 0 && len(records) > opt.SampleSize {
		sample = make([]map[string]any, len(records))
		copy(sample, records)
		rand.Shuffle(len(sample), func(i, j int) { sample[i], sample[j] = sample[j], sample[i] })
		sample = sample[:opt.SampleSize]
	}

	rep := Report{Total: len(sample)}
	for _, rec := range sample {
		if _, err := newOracle.ValidateMap(ctx, rec, oracle.Options{}); err != nil {
			rep.Incompatible++
			continue
		}
		rep.Compatible++
	}
	if rep.Total > 0 {
		rep.CompatiblePct = float64(rep.Compatible) / float64(rep.Total) * 100
	}

	d := Diff(oldOracle.Describe(), newOracle.Describe())
	if d.Breaking {
		rep.BreakingChanges = append(rep.BreakingChanges, "schema changes are breaking")
		if len(d.Removed) > 0 {
			rep.BreakingChanges = append(rep.BreakingChanges, fmt.Sprintf("removed fields: %v", d.Removed))
		}
		for _, ch := range d.Changed {
			if ch.OldType != ch.NewType {
				rep.BreakingChanges = append(rep.BreakingChanges,
					fmt.Sprintf("field %q type changed: %s -> %s", ch.Field, ch.OldType, ch.NewType))
			}
			if ch.WasRequired && !ch.IsRequired {
				rep.BreakingChanges = append(rep.BreakingChanges,
					fmt.Sprintf("field %q is no longer required", ch.Field))
			}
		}
	}
	return rep
}
