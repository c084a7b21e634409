package infrastructure

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DashboardMetrics holds the application-specific instruments
type DashboardMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Data load metrics
	LoadsTotal    metric.Int64Counter
	LoadDuration  metric.Float64Histogram
	RecordsLoaded metric.Int64Counter

	// Presentation metrics
	DashboardViews metric.Int64Counter
	ExportsTotal   metric.Int64Counter
	ChartRenders   metric.Int64Counter
}

// NewDashboardMetrics creates the dashboard instruments on meter
func NewDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	var m DashboardMetrics
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"kpidash.http.requests",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"kpidash.http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.LoadsTotal, err = meter.Int64Counter(
		"kpidash.data.loads",
		metric.WithDescription("Production table loads by source and outcome"),
	); err != nil {
		return nil, err
	}

	if m.LoadDuration, err = meter.Float64Histogram(
		"kpidash.data.load.duration",
		metric.WithDescription("Production table load duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.RecordsLoaded, err = meter.Int64Counter(
		"kpidash.data.records",
		metric.WithDescription("Production records loaded"),
	); err != nil {
		return nil, err
	}

	if m.DashboardViews, err = meter.Int64Counter(
		"kpidash.dashboard.views",
		metric.WithDescription("KPI computations served"),
	); err != nil {
		return nil, err
	}

	if m.ExportsTotal, err = meter.Int64Counter(
		"kpidash.exports",
		metric.WithDescription("Downloads by export kind and format"),
	); err != nil {
		return nil, err
	}

	if m.ChartRenders, err = meter.Int64Counter(
		"kpidash.chart.renders",
		metric.WithDescription("Chart renders by chart and outcome"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordLoad records one load attempt from source
func (m *DashboardMetrics) RecordLoad(ctx context.Context, source string, d time.Duration, rows int, err error) {
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome(err)),
	)
	m.LoadsTotal.Add(ctx, 1, attrs)
	m.LoadDuration.Record(ctx, d.Seconds(), attrs)
	if err == nil {
		m.RecordsLoaded.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("source", source)))
	}
}

// RecordView records one KPI computation
func (m *DashboardMetrics) RecordView(ctx context.Context, rows int) {
	m.DashboardViews.Add(ctx, 1, metric.WithAttributes(attribute.Bool("empty", rows == 0)))
}

// RecordExport records one download
func (m *DashboardMetrics) RecordExport(ctx context.Context, kind, format string) {
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("format", format),
	))
}

// RecordChart records one chart render attempt
func (m *DashboardMetrics) RecordChart(ctx context.Context, chart string, err error) {
	m.ChartRenders.Add(ctx, 1, metric.WithAttributes(
		attribute.String("chart", chart),
		attribute.String("outcome", outcome(err)),
	))
}

// RecordHTTPRequest records one served request
func (m *DashboardMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}
