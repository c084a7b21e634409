package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"kpidash/internal/config"
	"kpidash/internal/dataprocessing"
	apierrors "kpidash/internal/errors"
	"kpidash/internal/exporter"
	"kpidash/internal/i18n"
	"kpidash/internal/infrastructure"
	"kpidash/internal/services"
	"kpidash/internal/validation"
	api "kpidash/pkg/contracts/api/v1"
	"kpidash/pkg/contracts/domain"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "kpireport: %v\n", err)
		os.Exit(1)
	}
}

// run loads a production workbook, applies the filter flags and prints
// the four KPIs. The filtered table and the one-row summary can also be
// written to .xlsx or .csv files.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("kpireport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "production workbook (.xlsx)")
	start := fs.String("start", "", "first day (YYYY-MM-DD), defaults to the earliest date")
	end := fs.String("end", "", "last day (YYYY-MM-DD), defaults to the latest date")
	machine := fs.String("machine", "", "machine, blank or All for every machine")
	shift := fs.String("shift", "", "shift, blank or All for every shift")
	lang := fs.String("lang", config.DefaultLanguage, "output language: en | jp")
	outFiltered := fs.String("out-filtered", "", "write the filtered table to this .xlsx or .csv path")
	outSummary := fs.String("out-summary", "", "write the KPI summary to this .xlsx or .csv path")
	level := fs.String("log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return fmt.Errorf("-file is required")
	}

	logger := infrastructure.NewLogger(stderr, *level, false)
	files := validation.NewFileValidator(logger, 0)
	requests := validation.NewRequestValidator()

	language, err := requests.Language(api.LanguageRequest{Language: *lang})
	if err != nil {
		return describe(err)
	}
	criteria, err := requests.FilterCriteria(api.FilterRequest{
		Start:   *start,
		End:     *end,
		Machine: *machine,
		Shift:   *shift,
	})
	if err != nil {
		return describe(err)
	}

	if err := files.ValidateExcelFile(*file); err != nil {
		return err
	}
	records, err := dataprocessing.NewLoader(logger).Load(ctx, &dataprocessing.FileSource{Path: *file})
	if err != nil {
		return &loadError{lang: language, err: err}
	}

	view := dataprocessing.Filter(records, criteria)
	row := services.SummaryRow(records, criteria)

	printReport(stdout, language,
		dateText(row.StartDate), dateText(row.EndDate),
		len(view), len(records), services.BuildCards(row.KPISummary, language))

	if *outFiltered != "" {
		if err := files.ValidateExportPath(*outFiltered); err != nil {
			return err
		}
		format := exporter.FormatForPath(*outFiltered)
		if err := exporter.WriteFile(*outFiltered, func(w io.Writer) error {
			return exporter.WriteRecords(w, format, view)
		}); err != nil {
			return fmt.Errorf("failed to write filtered table: %w", err)
		}
		logger.Info("Filtered table written", slog.String("path", *outFiltered), slog.Int("rows", len(view)))
	}

	if *outSummary != "" {
		if err := files.ValidateExportPath(*outSummary); err != nil {
			return err
		}
		format := exporter.FormatForPath(*outSummary)
		if err := exporter.WriteFile(*outSummary, func(w io.Writer) error {
			return exporter.WriteSummary(w, format, row)
		}); err != nil {
			return fmt.Errorf("failed to write KPI summary: %w", err)
		}
		logger.Info("KPI summary written", slog.String("path", *outSummary))
	}

	return nil
}

func printReport(w io.Writer, lang i18n.Lang, start, end string, rows, total int, cards []services.KPICard) {
	fmt.Fprintln(w, i18n.T("title", lang))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s .. %s\n", i18n.T("date_range", lang), start, end)
	fmt.Fprintf(tw, "%s\t%d / %d\n", i18n.T("filtered_data", lang), rows, total)
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\n", c.Label, c.Value)
	}
	_ = tw.Flush()
}

// loadError reports a failed load in the report language and keeps the
// loader error for errors.As
type loadError struct {
	lang i18n.Lang
	err  error
}

func (e *loadError) Error() string {
	return i18n.Tf("error_load_file", e.lang, e.err.Error())
}

func (e *loadError) Unwrap() error {
	return e.err
}

// dateText prints open bounds of an empty table as a dash
func dateText(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(domain.DateLayout)
}

// describe flattens request validation failures into their field messages
func describe(err error) error {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		if v, ok := apiErr.Details.(apierrors.ValidationErrors); ok {
			msgs := make([]string, 0, len(v.Errors))
			for _, e := range v.Errors {
				msgs = append(msgs, e.Message)
			}
			return errors.New(strings.Join(msgs, "; "))
		}
	}
	return err
}
