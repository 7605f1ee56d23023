// Command dydactic validates newline-delimited JSON records against a shape
// defined in a YAML file, reports statistics, and optionally exports the
// results.
//
// Usage:
//
//	dydactic validate -schema shape.yaml -in records.ndjson [-out results.json]
//	                  [-format json|csv|yaml] [-policy return|skip|raise]
//	                  [-errors-only] [-concurrency N]
//	dydactic diff -old old.yaml -new new.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	dydactic "github.com/eddiethedean/dydactic"
	"github.com/eddiethedean/dydactic/drift"
	"github.com/eddiethedean/dydactic/export"
	"github.com/eddiethedean/dydactic/stats"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	switch os.Args[1] {
	case "validate":
		validateCmd(os.Args[2:], logger)
	case "diff":
		diffCmd(os.Args[2:], logger)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `dydactic CLI

Usage:
  dydactic validate -schema shape.yaml -in records.ndjson [-out results.json] [-format json|csv|yaml] [-policy return|skip|raise] [-errors-only] [-concurrency N]
  dydactic diff -old old.yaml -new new.yaml`)
}

func validateCmd(args []string, logger *zap.Logger) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var (
		schemaPath  string
		inPath      string
		outPath     string
		format      string
		policy      string
		errorsOnly  bool
		concurrency int
	)
	fs.StringVar(&schemaPath, "schema", "", "YAML shape definition")
	fs.StringVar(&inPath, "in", "-", "NDJSON input file (- for stdin)")
	fs.StringVar(&outPath, "out", "", "optional results output file")
	fs.StringVar(&format, "format", "json", "export format: json, csv, or yaml")
	fs.StringVar(&policy, "policy", "return", "error policy: return, skip, or raise")
	fs.BoolVar(&errorsOnly, "errors-only", false, "export only failing records")
	fs.IntVar(&concurrency, "concurrency", 0, "worker count (0 = synchronous)")
	_ = fs.Parse(args)
	if schemaPath == "" {
		fs.Usage()
		os.Exit(2)
	}

	shape, err := loadShape(schemaPath)
	if err != nil {
		logger.Fatal("load schema", zap.String("path", schemaPath), zap.Error(err))
	}

	records, err := readRecords(inPath)
	if err != nil {
		logger.Fatal("read input", zap.String("path", inPath), zap.Error(err))
	}
	logger.Info("validating", zap.Int("records", len(records)), zap.String("policy", policy))

	opt := dydactic.Opt{Policy: parsePolicy(policy), MaxWorkers: concurrency}
	ctx := context.Background()

	var st *dydactic.Stream
	if concurrency > 0 {
		st = dydactic.ValidateConcurrently(ctx, sliceSeq(records), shape, opt)
	} else {
		st = dydactic.ValidateSlice(ctx, records, shape, opt)
	}
	results, err := st.Collect()
	if err != nil {
		logger.Fatal("validation aborted", zap.Error(err))
	}

	s := stats.Collect(results)
	logger.Info("done",
		zap.Int("total", s.Total),
		zap.Int("valid", s.ValidCount),
		zap.Int("invalid", s.InvalidCount),
		zap.Float64("valid_pct", s.ValidPct),
	)
	for _, c := range s.TopErrors(5) {
		logger.Info("top error", zap.String("code", c.Name), zap.Int("count", c.Count))
	}

	if outPath != "" {
		eopt := export.Options{
			Format:          parseFormat(format),
			ErrorsOnly:      errorsOnly,
			IncludeOriginal: true,
			FullDetail:      true,
		}
		if err := export.WriteFile(outPath, results, eopt); err != nil {
			logger.Fatal("export", zap.String("path", outPath), zap.Error(err))
		}
		logger.Info("exported", zap.String("path", outPath), zap.String("format", format))
	}
}

func diffCmd(args []string, logger *zap.Logger) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	var oldPath, newPath string
	fs.StringVar(&oldPath, "old", "", "older YAML shape definition")
	fs.StringVar(&newPath, "new", "", "newer YAML shape definition")
	_ = fs.Parse(args)
	if oldPath == "" || newPath == "" {
		fs.Usage()
		os.Exit(2)
	}

	oldDesc, err := loadDescription(oldPath)
	if err != nil {
		logger.Fatal("load schema", zap.String("path", oldPath), zap.Error(err))
	}
	newDesc, err := loadDescription(newPath)
	if err != nil {
		logger.Fatal("load schema", zap.String("path", newPath), zap.Error(err))
	}

	d := drift.Diff(oldDesc, newDesc)
	fmt.Printf("added:    %v\n", d.Added)
	fmt.Printf("removed:  %v\n", d.Removed)
	for _, ch := range d.Changed {
		fmt.Printf("changed:  %s: %s (required=%v) -> %s (required=%v)\n",
			ch.Field, ch.OldType, ch.WasRequired, ch.NewType, ch.IsRequired)
	}
	fmt.Printf("breaking: %v\n", d.Breaking)
	if d.Breaking {
		os.Exit(1)
	}
}

func parsePolicy(s string) dydactic.ErrorPolicy {
	switch s {
	case "skip":
		return dydactic.Skip
	case "raise":
		return dydactic.Raise
	default:
		return dydactic.Return
	}
}

func parseFormat(s string) export.Format {
	switch s {
	case "csv":
		return export.CSV
	case "yaml":
		return export.YAML
	default:
		return export.JSON
	}
}
