package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"kpidash/internal/config"
	"kpidash/internal/exporter"
	"kpidash/internal/infrastructure"
	"kpidash/internal/sampledata"
	"kpidash/internal/validation"
	"kpidash/pkg/contracts/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "sampledata: %v\n", err)
		os.Exit(1)
	}
}

// run writes a synthetic production workbook. The output defaults to the
// configured sample file so the dashboard's "Use Sample Data" picks it up.
func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sampledata", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "", "output .xlsx or .csv path (defaults to the configured sample file)")
	days := fs.Int("days", sampledata.DefaultDays, "number of consecutive days")
	machines := fs.Int("machines", sampledata.DefaultMachines, "machines per shift")
	end := fs.String("end", "", "last day (YYYY-MM-DD), defaults to today")
	seed := fs.Uint64("seed", 0, "random seed, 0 picks one")
	level := fs.String("log-level", config.DefaultLogLevel, "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := infrastructure.NewLogger(stderr, *level, false)

	if *days <= 0 || *machines <= 0 {
		return fmt.Errorf("days and machines must be positive")
	}

	opts := sampledata.Options{Days: *days, Machines: *machines, Seed: *seed}
	if *end != "" {
		t, err := time.Parse(domain.DateLayout, *end)
		if err != nil {
			return fmt.Errorf("invalid -end %q: %w", *end, err)
		}
		opts.End = t
	}

	path := *out
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", slog.String("error", err.Error()))
			cfg = config.Default()
		}
		paths, err := cfg.ResolvePaths()
		if err != nil {
			return err
		}
		if err := paths.EnsureDirectories(); err != nil {
			return err
		}
		path = paths.SampleFile
	}

	if err := validation.NewFileValidator(logger, 0).ValidateExportPath(path); err != nil {
		return err
	}

	records := sampledata.Generate(opts)
	format := exporter.FormatForPath(path)
	if err := exporter.WriteFile(path, func(w io.Writer) error {
		return exporter.WriteRecords(w, format, records)
	}); err != nil {
		return err
	}

	logger.Info("Sample data written",
		slog.String("path", path),
		slog.Int("rows", len(records)),
		slog.String("format", string(format)))
	fmt.Fprintf(stdout, "Wrote %d rows to %s\n", len(records), path)
	return nil
}
