package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kpidash/internal/charts"
	"kpidash/internal/dataprocessing"
	apierrors "kpidash/internal/errors"
	"kpidash/internal/exporter"
	"kpidash/internal/i18n"
	"kpidash/internal/services"
	"kpidash/internal/session"
	"kpidash/internal/shared/testutil"
	"kpidash/internal/validation"
	"kpidash/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) ResolveSession(id string, lang i18n.Lang) (*session.Session, bool) {
	args := m.Called(id, lang)
	return args.Get(0).(*session.Session), args.Bool(1)
}

func (m *MockDashboardService) SheetsEnabled() bool {
	return m.Called().Bool(0)
}

func (m *MockDashboardService) LoadUpload(ctx context.Context, sessionID, name string, r io.Reader) (*services.LoadResult, error) {
	args := m.Called(sessionID, name, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LoadResult), args.Error(1)
}

func (m *MockDashboardService) LoadSample(ctx context.Context, sessionID string) (*services.LoadResult, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LoadResult), args.Error(1)
}

func (m *MockDashboardService) LoadSheets(ctx context.Context, sessionID string) (*services.LoadResult, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LoadResult), args.Error(1)
}

func (m *MockDashboardService) Options(ctx context.Context, sessionID string) (domain.FilterOptions, error) {
	args := m.Called(sessionID)
	return args.Get(0).(domain.FilterOptions), args.Error(1)
}

func (m *MockDashboardService) View(ctx context.Context, sessionID string, c domain.FilterCriteria) (*services.DashboardView, error) {
	args := m.Called(sessionID, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardView), args.Error(1)
}

func (m *MockDashboardService) Records(ctx context.Context, sessionID string, c domain.FilterCriteria) ([]domain.ProductionRecord, error) {
	args := m.Called(sessionID, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductionRecord), args.Error(1)
}

func (m *MockDashboardService) ExportFiltered(ctx context.Context, sessionID string, c domain.FilterCriteria, format exporter.Format) (*services.Download, error) {
	args := m.Called(sessionID, c, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Download), args.Error(1)
}

func (m *MockDashboardService) ExportSummary(ctx context.Context, sessionID string, c domain.FilterCriteria, format exporter.Format) (*services.Download, error) {
	args := m.Called(sessionID, c, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Download), args.Error(1)
}

func (m *MockDashboardService) Chart(ctx context.Context, sessionID string, kind charts.Kind, c domain.FilterCriteria) ([]byte, error) {
	args := m.Called(sessionID, kind, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDashboardService) SetLanguage(ctx context.Context, sessionID string, lang i18n.Lang) (*session.Session, error) {
	args := m.Called(sessionID, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

const testCookie = "kpidash_session"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(svc *MockDashboardService) http.Handler {
	return newTestRouterWithLogger(svc, testLogger())
}

func newTestRouterWithLogger(svc *MockDashboardService, logger *slog.Logger) http.Handler {
	h := NewDashboardHandler(
		svc,
		validation.NewRequestValidator(),
		validation.NewFileValidator(logger, 1<<20),
		SessionConfig{CookieName: testCookie, TTL: time.Hour, DefaultLanguage: i18n.English},
		logger,
		apierrors.NewErrorHandler(logger, false),
	)
	r := chi.NewRouter()
	r.Mount("/api", h.Routes())
	return r
}

// withSession expects the request to carry the s1 cookie in lang
func withSession(svc *MockDashboardService, lang i18n.Lang) *session.Session {
	sess := &session.Session{ID: "s1", Language: lang}
	svc.On("ResolveSession", "s1", mock.Anything).Return(sess, false)
	return sess
}

func doRequest(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "s1"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func date(s string) time.Time {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSessionCtx(t *testing.T) {
	t.Run("new visitor gets a cookie in the negotiated language", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("ResolveSession", "", i18n.Japanese).
			Return(&session.Session{ID: "fresh", Language: i18n.Japanese}, true)
		svc.On("Options", "fresh").Return(domain.FilterOptions{}, services.ErrNoData)

		req := httptest.NewRequest(http.MethodGet, "/api/data/options", nil)
		req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9")
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, req)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, testCookie, cookies[0].Name)
		assert.Equal(t, "fresh", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, 3600, cookies[0].MaxAge)

		body := decodeProblem(t, rec)
		assert.Equal(t, i18n.T("error_no_data", i18n.Japanese), body["detail"])
		svc.AssertExpectations(t)
	})

	t.Run("known session keeps its cookie", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)
		svc.On("Options", "s1").Return(domain.FilterOptions{}, services.ErrNoData)

		rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/data/options", nil))
		assert.Empty(t, rec.Result().Cookies())
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestDashboardHandler_Dashboard(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "filtered view",
			query: "?start=2024-01-01&end=2024-01-02&machine=M1&shift=All",
			setupMock: func(m *MockDashboardService) {
				want := domain.FilterCriteria{
					Start:   date("2024-01-01"),
					End:     date("2024-01-02"),
					Machine: "M1",
					Shift:   domain.AllOption,
				}
				m.On("View", "s1", want).Return(&services.DashboardView{
					Language: i18n.English,
					Rows:     1,
					Cards:    services.BuildCards(domain.KPISummary{TotalOutput: 500}, i18n.English),
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"value":"500"`,
		},
		{
			name:  "localized all label",
			query: "?machine=" + "%E3%81%99%E3%81%B9%E3%81%A6",
			setupMock: func(m *MockDashboardService) {
				m.On("View", "s1", domain.FilterCriteria{Machine: domain.AllOption, Shift: domain.AllOption}).
					Return(&services.DashboardView{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "inverted range",
			query:          "?start=2024-02-01&end=2024-01-01",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name:           "malformed date",
			query:          "?start=01/02/2024",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"start"`,
		},
		{
			name:  "nothing loaded",
			query: "",
			setupMock: func(m *MockDashboardService) {
				m.On("View", "s1", mock.Anything).Return(nil, services.ErrNoData)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"NO_DATA_LOADED"`,
		},
		{
			name:  "internal error is hidden",
			query: "",
			setupMock: func(m *MockDashboardService) {
				m.On("View", "s1", mock.Anything).Return(nil, errors.New("disk on fire"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"Internal Server Error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			withSession(svc, i18n.English)
			tt.setupMock(svc)

			rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/dashboard"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
			}
			assert.NotContains(t, rec.Body.String(), "disk on fire")
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_InvertedRangeSkipsService(t *testing.T) {
	svc := new(MockDashboardService)
	withSession(svc, i18n.English)

	rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/data/records?start=2024-02-01&end=2024-01-01", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Records", mock.Anything, mock.Anything)
}

func TestDashboardHandler_Options(t *testing.T) {
	svc := new(MockDashboardService)
	withSession(svc, i18n.Japanese)
	svc.On("Options", "s1").Return(domain.FilterOptions{
		MinDate:  date("2024-01-01"),
		MaxDate:  date("2024-01-31"),
		Machines: []string{"M1", "M2"},
		Shifts:   []string{"A"},
	}, nil)

	rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/data/options", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got OptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, OptionsResponse{
		MinDate:  "2024-01-01",
		MaxDate:  "2024-01-31",
		Machines: []string{"M1", "M2"},
		Shifts:   []string{"A"},
		AllLabel: "すべて",
	}, got)
}

func TestDashboardHandler_OptionsEmptyTable(t *testing.T) {
	svc := new(MockDashboardService)
	withSession(svc, i18n.English)
	svc.On("Options", "s1").Return(domain.FilterOptions{}, nil)

	rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/data/options", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got OptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.MinDate)
	assert.Empty(t, got.MaxDate)
	assert.NotContains(t, rec.Body.String(), "0001-01-01")
}

func TestDashboardHandler_Records(t *testing.T) {
	svc := new(MockDashboardService)
	withSession(svc, i18n.English)
	records := []domain.ProductionRecord{
		{Date: date("2024-01-01"), Shift: "A", Machine: "M1", Output: 500, Defects: 10, DowntimeMinutes: 30},
	}
	svc.On("Records", "s1", domain.FilterCriteria{Machine: "M1", Shift: domain.AllOption}).Return(records, nil)

	rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/data/records?machine=M1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got RecordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Rows)
	assert.Equal(t, 500, got.Records[0].Output)
}

// multipartUpload builds an upload request carrying data in the file field
func multipartUpload(t *testing.T, field, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/data/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func workbookBytes(t *testing.T) []byte {
	t.Helper()
	buf, err := excelize.NewFile().WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDashboardHandler_Upload(t *testing.T) {
	t.Run("loads workbook", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)
		svc.On("LoadUpload", "s1", "production.xlsx", mock.Anything).
			Return(&services.LoadResult{Source: services.SourceUpload, Rows: 2}, nil)

		rec := doRequest(newTestRouter(svc), multipartUpload(t, "file", "production.xlsx", workbookBytes(t)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"rows":2`)
		svc.AssertExpectations(t)
	})

	t.Run("missing columns", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)
		schemaErr := &dataprocessing.SchemaError{Missing: []string{"Defects"}}
		svc.On("LoadUpload", "s1", "production.xlsx", mock.Anything).Return(nil, schemaErr)

		rec := doRequest(newTestRouter(svc), multipartUpload(t, "file", "production.xlsx", workbookBytes(t)))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		body := decodeProblem(t, rec)
		assert.Equal(t, apierrors.CodeSchemaError, body["error_code"])
		assert.Equal(t, i18n.Tf("error_load_file", i18n.English, schemaErr.Error()), body["detail"])
	})

	t.Run("unreadable workbook", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.Japanese)
		svc.On("LoadUpload", "s1", "production.xlsx", mock.Anything).Return(nil, errors.New("zip: not a valid zip file"))

		rec := doRequest(newTestRouter(svc), multipartUpload(t, "file", "production.xlsx", workbookBytes(t)))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeProblem(t, rec)
		assert.Equal(t, apierrors.CodeUnreadableWorkbook, body["error_code"])
		assert.True(t, strings.HasPrefix(body["detail"].(string), "アップロード"))
	})

	t.Run("wrong extension", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)

		rec := doRequest(newTestRouter(svc), multipartUpload(t, "file", "production.csv", []byte("a,b")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"VALIDATION_FAILED"`)
		svc.AssertNotCalled(t, "LoadUpload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not a zip container", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)

		rec := doRequest(newTestRouter(svc), multipartUpload(t, "file", "production.xlsx", []byte("plain text")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing file field", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)

		rec := doRequest(newTestRouter(svc), multipartUpload(t, "attachment", "production.xlsx", workbookBytes(t)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"file"`)
	})

	t.Run("not multipart", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)

		req := httptest.NewRequest(http.MethodPost, "/api/data/upload", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		rec := doRequest(newTestRouter(svc), req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDashboardHandler_LoadSample(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)
		svc.On("LoadSample", "s1").Return(&services.LoadResult{Source: services.SourceSample, Rows: 300}, nil)

		rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodPost, "/api/data/sample", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"source":"sample"`)
	})

	t.Run("missing file", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)
		svc.On("LoadSample", "s1").Return(nil, services.ErrSampleMissing)

		rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodPost, "/api/data/sample", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeProblem(t, rec)
		assert.Equal(t, apierrors.CodeSampleNotFound, body["error_code"])
		assert.Equal(t, i18n.T("error_sample_data", i18n.English), body["detail"])
	})
}

func TestDashboardHandler_LoadSheets(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)
		svc.On("LoadSheets", "s1").Return(nil, services.ErrSheetsDisabled)

		rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodPost, "/api/data/sheets", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), apierrors.CodeSheetsDisabled)
	})

	t.Run("upstream failure", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)
		svc.On("LoadSheets", "s1").Return(nil, errors.New("googleapi: Error 403"))

		rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodPost, "/api/data/sheets", nil))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), apierrors.CodeSheetsUnavailable)
	})
}

func TestDashboardHandler_LoadExpiredSession(t *testing.T) {
	tests := []struct {
		name    string
		request func(t *testing.T) *http.Request
		setup   func(*MockDashboardService)
	}{
		{
			name:    "upload",
			request: func(t *testing.T) *http.Request { return multipartUpload(t, "file", "production.xlsx", workbookBytes(t)) },
			setup: func(m *MockDashboardService) {
				m.On("LoadUpload", "s1", "production.xlsx", mock.Anything).Return(nil, session.ErrNotFound)
			},
		},
		{
			name:    "sample",
			request: func(t *testing.T) *http.Request { return httptest.NewRequest(http.MethodPost, "/api/data/sample", nil) },
			setup:   func(m *MockDashboardService) { m.On("LoadSample", "s1").Return(nil, session.ErrNotFound) },
		},
		{
			name:    "sheets",
			request: func(t *testing.T) *http.Request { return httptest.NewRequest(http.MethodPost, "/api/data/sheets", nil) },
			setup:   func(m *MockDashboardService) { m.On("LoadSheets", "s1").Return(nil, session.ErrNotFound) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			withSession(svc, i18n.English)
			tt.setup(svc)

			rec := doRequest(newTestRouter(svc), tt.request(t))
			assert.Equal(t, http.StatusNotFound, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, apierrors.CodeNotFound, body["error_code"])
		})
	}
}

func TestDashboardHandler_Chart(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)
		png := []byte("\x89PNG\r\n\x1a\n")
		svc.On("Chart", "s1", charts.KindDailyOutput, mock.Anything).Return(png, nil)

		rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/charts/daily-output", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, png, rec.Body.Bytes())
	})

	t.Run("unknown chart", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)

		rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/charts/pie", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		svc.AssertNotCalled(t, "Chart", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty view", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)
		svc.On("Chart", "s1", charts.KindOutputByMachine, mock.Anything).Return(nil, charts.ErrNoChartData)

		rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/charts/output-by-machine?machine=M9", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), apierrors.CodeNoChartData)
	})
}

func TestDashboardHandler_Export(t *testing.T) {
	t.Run("filtered csv", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)
		svc.On("ExportFiltered", "s1", mock.Anything, exporter.FormatCSV).Return(&services.Download{
			FileName:    "filtered_production_data.csv",
			ContentType: exporter.FormatCSV.ContentType(),
			Data:        []byte("Date,Shift\n"),
		}, nil)

		rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/export/filtered?format=csv", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename=filtered_production_data.csv`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "Date,Shift\n", rec.Body.String())
	})

	t.Run("summary defaults to xlsx", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)
		svc.On("ExportSummary", "s1", mock.Anything, exporter.FormatXLSX).Return(&services.Download{
			FileName:    "kpi_summary.xlsx",
			ContentType: exporter.FormatXLSX.ContentType(),
			Data:        []byte("PK"),
		}, nil)

		rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/export/summary", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "kpi_summary.xlsx")
	})

	t.Run("unsupported format", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)

		rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/export/filtered?format=pdf", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "format must be one of")
	})

	t.Run("nothing loaded", func(t *testing.T) {
		svc := new(MockDashboardService)
		withSession(svc, i18n.English)
		svc.On("ExportSummary", "s1", mock.Anything, exporter.FormatXLSX).Return(nil, services.ErrNoData)

		rec := doRequest(newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/export/summary", nil))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Empty(t, rec.Header().Get("Content-Disposition"))
	})
}

func TestDashboardHandler_Translations(t *testing.T) {
	svc := new(MockDashboardService)
	withSession(svc, i18n.English)
	router := newTestRouter(svc)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/i18n", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got TranslationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, i18n.English, got.Language)
	assert.Equal(t, "Production KPI Dashboard", got.Labels["title"])
	assert.Equal(t, []LanguageOption{{Code: "en", Name: "English"}, {Code: "jp", Name: "日本語"}}, got.Languages)

	rec = doRequest(router, httptest.NewRequest(http.MethodGet, "/api/i18n?lang=jp", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "生産KPIダッシュボード", got.Labels["title"])

	rec = doRequest(router, httptest.NewRequest(http.MethodGet, "/api/i18n?lang=fr", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandler_SetLanguage(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "switch to japanese",
			body: `{"language":"jp"}`,
			setupMock: func(m *MockDashboardService) {
				m.On("SetLanguage", "s1", i18n.Japanese).
					Return(&session.Session{ID: "s1", Language: i18n.Japanese}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"language":"jp"`,
		},
		{
			name: "language name accepted",
			body: `{"language":"English"}`,
			setupMock: func(m *MockDashboardService) {
				m.On("SetLanguage", "s1", i18n.English).
					Return(&session.Session{ID: "s1", Language: i18n.English}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"title":"Production KPI Dashboard"`,
		},
		{
			name:           "unsupported",
			body:           `{"language":"fr"}`,
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"language"`,
		},
		{
			name:           "malformed json",
			body:           `{"language":`,
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   apierrors.CodeInvalidRequest,
		},
		{
			name: "expired session",
			body: `{"language":"jp"}`,
			setupMock: func(m *MockDashboardService) {
				m.On("SetLanguage", "s1", i18n.Japanese).Return(nil, session.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			withSession(svc, i18n.English)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPut, "/api/session/language", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := doRequest(newTestRouter(svc), req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_Logging(t *testing.T) {
	logger, logs := testutil.NewLogger(t)
	svc := new(MockDashboardService)
	withSession(svc, i18n.English)
	svc.On("LoadUpload", "s1", "production.xlsx", mock.Anything).
		Return(&services.LoadResult{Source: services.SourceUpload, Rows: 2}, nil)
	svc.On("View", "s1", mock.Anything).Return(nil, errors.New("disk on fire"))
	router := newTestRouterWithLogger(svc, logger)

	rec := doRequest(router, multipartUpload(t, "file", "production.xlsx", workbookBytes(t)))
	require.Equal(t, http.StatusOK, rec.Code)
	logs.AssertNoErrors(t)

	uploaded := logs.AssertLogged(t, slog.LevelInfo, "Workbook uploaded")
	assert.Equal(t, "dashboard", uploaded.Attr("handler"))
	assert.Equal(t, "2", uploaded.Attr("rows"))

	rec = doRequest(router, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	failed := logs.AssertLogged(t, slog.LevelError, "request failed")
	assert.Contains(t, failed.Attr("error"), "disk on fire")
}
