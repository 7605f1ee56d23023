// Package export serializes finished validation results to JSON, CSV, or
// YAML. It consumes Result values as-is and is glue around the core
// contract, not part of it.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	dydactic "github.com/eddiethedean/dydactic"
)

// Format selects the output serialization.
type Format int

const (
	JSON Format = iota
	CSV
	YAML
)

// Options configures an export.
type Options struct {
	Format Format
	// ErrorsOnly drops successful results from the output.
	ErrorsOnly bool
	// IncludeOriginal carries the original input value per row.
	IncludeOriginal bool
	// FullDetail expands per-field error entries instead of a summary line.
	FullDetail bool
}

// row is the format-independent projection of one result.
type row struct {
	Valid     bool             `json:"valid" yaml:"valid"`
	Original  any              `json:"original,omitempty" yaml:"original,omitempty"`
	Error     *errorInfo       `json:"error,omitempty" yaml:"error,omitempty"`
	Validated any              `json:"validated,omitempty" yaml:"validated,omitempty"`
}

type errorInfo struct {
	Type    string       `json:"type" yaml:"type"`
	Message string       `json:"message" yaml:"message"`
	Count   int          `json:"count,omitempty" yaml:"count,omitempty"`
	Fields  []fieldEntry `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type fieldEntry struct {
	Field    string `json:"field" yaml:"field"`
	Code     string `json:"code" yaml:"code"`
	Declared string `json:"declared_type,omitempty" yaml:"declared_type,omitempty"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
	Message  string `json:"message" yaml:"message"`
}

// WriteFile exports results to a file at path.
func WriteFile(path string, results []dydactic.Result, opt Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, results, opt)
}

// Write exports results to w in the configured format.
func Write(w io.Writer, results []dydactic.Result, opt Options) error {
	rows := buildRows(results, opt)
	switch opt.Format {
	case JSON:
		enc := gojson.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case YAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(rows)
	case CSV:
		return writeCSV(w, results, opt)
	default:
		return fmt.Errorf("export: unsupported format %d", opt.Format)
	}
}

func buildRows(results []dydactic.Result, opt Options) []row {
	rows := make([]row, 0, len(results))
	for _, r := range results {
		if opt.ErrorsOnly && r.Ok() {
			continue
		}
		out := row{Valid: r.Ok()}
		if opt.IncludeOriginal {
			out.Original = r.Original
		}
		if r.Ok() {
			out.Validated = r.Validated
		} else {
			out.Error = flattenError(r.Err, opt.FullDetail)
		}
		rows = append(rows, out)
	}
	return rows
}

func flattenError(err error, full bool) *errorInfo {
	info := &errorInfo{Type: fmt.Sprintf("%T", err), Message: err.Error()}
	fe, ok := dydactic.AsFieldErrors(err)
	if !ok {
		return info
	}
	info.Type = "FieldErrors"
	info.Count = len(fe)
	if !full {
		return info
	}
	for _, name := range sortedFields(fe) {
		e := fe[name]
		info.Fields = append(info.Fields, fieldEntry{
			Field:    e.Field,
			Code:     e.Code,
			Declared: e.DeclaredType,
			Value:    e.Value,
			Message:  e.Message,
		})
	}
	return info
}

// writeCSV flattens original and validated mappings into prefixed columns,
// mirroring the JSON rows as closely as a flat table allows.
func writeCSV(w io.Writer, results []dydactic.Result, opt Options) error {
	type record map[string]string
	records := make([]record, 0, len(results))
	for _, r := range results {
		if opt.ErrorsOnly && r.Ok() {
			continue
		}
		rec := record{"valid": boolCell(r.Ok())}
		if !r.Ok() {
			info := flattenError(r.Err, opt.FullDetail)
			rec["error_type"] = info.Type
			rec["error_message"] = info.Message
			if opt.FullDetail && len(info.Fields) > 0 {
				locs := ""
				msgs := ""
				for i, fe := range info.Fields {
					if i > 0 {
						locs += "; "
						msgs += "; "
					}
					locs += fe.Field
					msgs += fe.Message
				}
				rec["error_locations"] = locs
				rec["error_details"] = msgs
			}
		}
		if opt.IncludeOriginal {
			flattenInto(rec, "original", r.Original)
		}
		if r.Validated != nil {
			flattenInto(rec, "validated", r.Validated)
		}
		records = append(records, rec)
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()
	if len(records) == 0 {
		if err := cw.Write([]string{"valid"}); err != nil {
			return err
		}
		return cw.Error()
	}

	keys := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			keys[k] = true
		}
	}
	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Strings(header)
	if err := cw.Write(header); err != nil {
		return err
	}
	line := make([]string, len(header))
	for _, rec := range records {
		for i, k := range header {
			line[i] = rec[k]
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func flattenInto(rec map[string]string, prefix string, v any) {
	if m, ok := v.(map[string]any); ok {
		for k, value := range m {
			rec[prefix+"_"+k] = fmt.Sprintf("%v", value)
		}
		return
	}
	rec[prefix+"_value"] = fmt.Sprintf("%v", v)
}

func boolCell(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

func sortedFields(fe dydactic.FieldErrors) []string {
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
