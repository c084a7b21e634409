package http

import (
	"context"
	"io"

	"kpidash/internal/charts"
	"kpidash/internal/exporter"
	"kpidash/internal/i18n"
	"kpidash/internal/services"
	"kpidash/internal/session"
	"kpidash/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the handlers use
type DashboardServiceInterface interface {
	ResolveSession(id string, lang i18n.Lang) (*session.Session, bool)
	SheetsEnabled() bool

	LoadUpload(ctx context.Context, sessionID, name string, r io.Reader) (*services.LoadResult, error)
	LoadSample(ctx context.Context, sessionID string) (*services.LoadResult, error)
	LoadSheets(ctx context.Context, sessionID string) (*services.LoadResult, error)

	Options(ctx context.Context, sessionID string) (domain.FilterOptions, error)
	View(ctx context.Context, sessionID string, c domain.FilterCriteria) (*services.DashboardView, error)
	Records(ctx context.Context, sessionID string, c domain.FilterCriteria) ([]domain.ProductionRecord, error)

	ExportFiltered(ctx context.Context, sessionID string, c domain.FilterCriteria, format exporter.Format) (*services.Download, error)
	ExportSummary(ctx context.Context, sessionID string, c domain.FilterCriteria, format exporter.Format) (*services.Download, error)
	Chart(ctx context.Context, sessionID string, kind charts.Kind, c domain.FilterCriteria) ([]byte, error)

	SetLanguage(ctx context.Context, sessionID string, lang i18n.Lang) (*session.Session, error)
}
