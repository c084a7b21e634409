package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"kpidash/internal/charts"
	"kpidash/internal/config"
	"kpidash/internal/dataprocessing"
	"kpidash/internal/exporter"
	"kpidash/internal/i18n"
	"kpidash/internal/infrastructure"
	"kpidash/internal/session"
	"kpidash/pkg/contracts/domain"
)

// Load source kinds used as metric and span labels
const (
	SourceUpload = "upload"
	SourceSample = "sample"
	SourceSheets = "sheets"
)

// SessionStore holds dashboard sessions
type SessionStore interface {
	Create(lang i18n.Lang) *session.Session
	Get(id string) (*session.Session, error)
	Update(id string, change func(session.Session) *session.Session) (*session.Session, error)
}

// SourceFactory opens the Google Sheets source on demand
type SourceFactory func(ctx context.Context) (dataprocessing.Source, error)

// DashboardDeps are the collaborators of a DashboardService. Metrics,
// Tracer and Logger may be nil.
type DashboardDeps struct {
	Loader     *dataprocessing.Loader
	Store      SessionStore
	Renderer   *charts.Renderer
	Metrics    *infrastructure.DashboardMetrics
	Tracer     trace.Tracer
	Logger     *slog.Logger
	SampleFile string
	Sheets     SourceFactory
}

// DashboardService runs the load, filter and aggregate pipeline for a
// session and prepares everything the presentation layer shows
type DashboardService struct {
	loader     *dataprocessing.Loader
	store      SessionStore
	renderer   *charts.Renderer
	metrics    *infrastructure.DashboardMetrics
	tracer     trace.Tracer
	logger     *slog.Logger
	sampleFile string
	sheets     SourceFactory
	now        func() time.Time
}

// NewDashboardService creates a dashboard service
func NewDashboardService(deps DashboardDeps) (*DashboardService, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("dashboard service requires a session store")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loader := deps.Loader
	if loader == nil {
		loader = dataprocessing.NewLoader(logger)
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = charts.NewRenderer(config.DefaultChartWidth, config.DefaultChartHeight)
	}
	metrics := deps.Metrics
	if metrics == nil {
		var err error
		if metrics, err = infrastructure.NewDashboardMetrics(infrastructure.NoopProviders().Meter); err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}

	return &DashboardService{
		loader:     loader,
		store:      deps.Store,
		renderer:   renderer,
		metrics:    metrics,
		tracer:     tracer,
		logger:     logger.With(slog.String("component", "dashboard_service")),
		sampleFile: deps.SampleFile,
		sheets:     deps.Sheets,
		now:        time.Now,
	}, nil
}

// ResolveSession returns the session with the given id, or a new session
// in lang when the id is empty, unknown or expired. created reports which.
func (s *DashboardService) ResolveSession(id string, lang i18n.Lang) (sess *session.Session, created bool) {
	if id != "" {
		if existing, err := s.store.Get(id); err == nil {
			return existing, false
		}
	}
	return s.store.Create(lang), true
}

// SheetsEnabled reports whether a Google Sheets source is configured
func (s *DashboardService) SheetsEnabled() bool {
	return s.sheets != nil
}

// LoadUpload loads an uploaded workbook into the session
func (s *DashboardService) LoadUpload(ctx context.Context, sessionID, name string, r io.Reader) (*LoadResult, error) {
	src := &dataprocessing.ReaderSource{Label: name, Reader: r}
	return s.load(ctx, sessionID, SourceUpload, src.Name(), src)
}

// LoadSample loads the sample workbook into the session
func (s *DashboardService) LoadSample(ctx context.Context, sessionID string) (*LoadResult, error) {
	if s.sampleFile == "" {
		return nil, ErrSampleMissing
	}
	if _, err := os.Stat(s.sampleFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSampleMissing
		}
		return nil, fmt.Errorf("failed to stat sample file: %w", err)
	}
	return s.load(ctx, sessionID, SourceSample, SourceSample, &dataprocessing.FileSource{Path: s.sampleFile})
}

// LoadSheets loads the configured Google Sheets range into the session
func (s *DashboardService) LoadSheets(ctx context.Context, sessionID string) (*LoadResult, error) {
	if s.sheets == nil {
		return nil, ErrSheetsDisabled
	}
	src, err := s.sheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheets source: %w", err)
	}
	return s.load(ctx, sessionID, SourceSheets, src.Name(), src)
}

// load replaces the session table only when the whole load succeeds. label
// is what clients see as the data source and never a server path.
func (s *DashboardService) load(ctx context.Context, sessionID, kind, label string, src dataprocessing.Source) (*LoadResult, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.load",
		trace.WithAttributes(attribute.String("kpidash.source", kind)))
	defer span.End()

	if _, err := s.store.Get(sessionID); err != nil {
		return nil, err
	}

	start := s.now()
	records, err := s.loader.Load(ctx, src)
	s.metrics.RecordLoad(ctx, kind, time.Since(start), len(records), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		infrastructure.LoggerWithContext(ctx).WarnContext(ctx, "data load failed",
			slog.String("component", "dashboard_service"),
			slog.String("source", kind),
			slog.String("error", err.Error()))
		return nil, err
	}

	loadedAt := s.now()
	_, err = s.store.Update(sessionID, func(sess session.Session) *session.Session {
		return sess.WithTable(records, label, loadedAt)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("kpidash.rows", len(records)))

	opts, _ := dataprocessing.Options(records)
	return &LoadResult{
		Source:   label,
		Rows:     len(records),
		LoadedAt: loadedAt,
		Options:  opts,
	}, nil
}

// Options returns the filter choices of the loaded table
func (s *DashboardService) Options(ctx context.Context, sessionID string) (domain.FilterOptions, error) {
	sess, err := s.loaded(sessionID)
	if err != nil {
		return domain.FilterOptions{}, err
	}
	opts, _ := dataprocessing.Options(sess.Records)
	return opts, nil
}

// View filters the session table and computes KPIs, cards and chart series
func (s *DashboardService) View(ctx context.Context, sessionID string, c domain.FilterCriteria) (*DashboardView, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.view")
	defer span.End()

	sess, err := s.loaded(sessionID)
	if err != nil {
		return nil, err
	}

	effective := EffectiveCriteria(sess.Records, c)
	view := dataprocessing.Filter(sess.Records, effective)
	kpis := dataprocessing.ComputeKPIs(view)
	s.metrics.RecordView(ctx, len(view))
	span.SetAttributes(attribute.Int("kpidash.rows", len(view)))

	return &DashboardView{
		Language:  sess.Language,
		Source:    sess.Source,
		LoadedAt:  sess.LoadedAt,
		Filter:    appliedFilter(effective),
		Rows:      len(view),
		TotalRows: len(sess.Records),
		KPIs:      kpis,
		Cards:     BuildCards(kpis, sess.Language),
		Series: Series{
			DailyOutput:     dataprocessing.DailyTotals(view, dataprocessing.MetricOutput),
			OutputByMachine: dataprocessing.MachineTotals(view),
			DefectsTrend:    dataprocessing.DailyTotals(view, dataprocessing.MetricDefects),
		},
	}, nil
}

// Records returns the filtered table
func (s *DashboardService) Records(ctx context.Context, sessionID string, c domain.FilterCriteria) ([]domain.ProductionRecord, error) {
	sess, err := s.loaded(sessionID)
	if err != nil {
		return nil, err
	}
	return dataprocessing.Filter(sess.Records, c), nil
}

// ExportFiltered renders the filtered table in format
func (s *DashboardService) ExportFiltered(ctx context.Context, sessionID string, c domain.FilterCriteria, format exporter.Format) (*Download, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.export.filtered")
	defer span.End()

	sess, err := s.loaded(sessionID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := exporter.WriteRecords(&buf, format, dataprocessing.Filter(sess.Records, c)); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to export filtered data: %w", err)
	}
	s.metrics.RecordExport(ctx, "filtered", string(format))

	return &Download{
		FileName:    format.FileName(i18n.T("filtered_file", sess.Language)),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// ExportSummary renders the one-row KPI summary of the filtered table. The
// row carries the effective filter bounds.
func (s *DashboardService) ExportSummary(ctx context.Context, sessionID string, c domain.FilterCriteria, format exporter.Format) (*Download, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.export.summary")
	defer span.End()

	sess, err := s.loaded(sessionID)
	if err != nil {
		return nil, err
	}

	row := SummaryRow(sess.Records, c)

	var buf bytes.Buffer
	if err := exporter.WriteSummary(&buf, format, row); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to export KPI summary: %w", err)
	}
	s.metrics.RecordExport(ctx, "summary", string(format))

	return &Download{
		FileName:    format.FileName(i18n.T("summary_file", sess.Language)),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// Chart renders one dashboard chart of the filtered table as PNG
func (s *DashboardService) Chart(ctx context.Context, sessionID string, kind charts.Kind, c domain.FilterCriteria) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.chart",
		trace.WithAttributes(attribute.String("kpidash.chart", string(kind))))
	defer span.End()

	sess, err := s.loaded(sessionID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = s.renderer.Render(&buf, kind, dataprocessing.Filter(sess.Records, c), sess.Language)
	s.metrics.RecordChart(ctx, string(kind), err)
	if err != nil {
		if !errors.Is(err, charts.ErrNoChartData) {
			span.RecordError(err)
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// SetLanguage switches the session language
func (s *DashboardService) SetLanguage(ctx context.Context, sessionID string, lang i18n.Lang) (*session.Session, error) {
	updated, err := s.store.Update(sessionID, func(sess session.Session) *session.Session {
		return sess.WithLanguage(lang)
	})
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "session language changed",
		slog.String("language", string(lang)))
	return updated, nil
}

func (s *DashboardService) loaded(sessionID string) (*session.Session, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasData() {
		return nil, ErrNoData
	}
	return sess, nil
}
