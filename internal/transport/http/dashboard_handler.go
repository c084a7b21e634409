package http

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"kpidash/internal/charts"
	apierrors "kpidash/internal/errors"
	"kpidash/internal/exporter"
	"kpidash/internal/i18n"
	"kpidash/internal/services"
	"kpidash/internal/session"
	"kpidash/internal/validation"
	api "kpidash/pkg/contracts/api/v1"
	"kpidash/pkg/contracts/domain"
)

// multipart parts beyond this are spooled to disk by net/http
const uploadMemory = 8 << 20

// DashboardHandler serves data loading, the dashboard view, charts,
// exports and language selection for the visitor's session
type DashboardHandler struct {
	service      DashboardServiceInterface
	requests     *validation.RequestValidator
	files        *validation.FileValidator
	sessions     SessionConfig
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	service DashboardServiceInterface,
	requests *validation.RequestValidator,
	files *validation.FileValidator,
	sessions SessionConfig,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		requests:     requests,
		files:        files,
		sessions:     sessions,
		logger:       logger.With(slog.String("handler", "dashboard")),
		errorHandler: errorHandler,
	}
}

// Routes returns a chi router for dashboard endpoints
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(SessionCtx(h.service, h.sessions))

	r.Route("/data", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Post("/sample", h.LoadSample)
		r.Post("/sheets", h.LoadSheets)
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/options", h.Options)
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/records", h.Records)
	})

	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/dashboard", h.Dashboard)
	r.Get("/charts/{chart}", h.Chart)

	r.Route("/export", func(r chi.Router) {
		r.Get("/filtered", h.ExportFiltered)
		r.Get("/summary", h.ExportSummary)
	})

	r.Get("/i18n", h.Translations)
	r.Put("/session/language", h.SetLanguage)

	return r
}

// Upload handles POST /api/data/upload
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)

	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		h.errorHandler.HandleError(w, r, h.uploadError(err))
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "an .xlsx file is required in the file field"))
		return
	}
	defer file.Close()

	body, err := h.files.ValidateUpload(header.Filename, header.Size, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", err.Error()))
		return
	}

	result, err := h.service.LoadUpload(r.Context(), sess.ID, header.Filename, body)
	if errors.Is(err, session.ErrNotFound) {
		h.handleServiceError(w, r, sess, err)
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.LoadFailed(err, i18n.Tf("error_load_file", sess.Language, err.Error())))
		return
	}

	h.logger.InfoContext(r.Context(), "Workbook uploaded",
		slog.String("file", header.Filename),
		slog.Int("rows", result.Rows))
	render.JSON(w, r, result)
}

// LoadSample handles POST /api/data/sample
func (h *DashboardHandler) LoadSample(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)

	result, err := h.service.LoadSample(r.Context(), sess.ID)
	if errors.Is(err, session.ErrNotFound) {
		h.handleServiceError(w, r, sess, err)
		return
	}
	if err != nil {
		msg := i18n.T("error_sample_data", sess.Language)
		if errors.Is(err, services.ErrSampleMissing) {
			apiErr := *apierrors.ErrSampleNotFound
			apiErr.Message = msg
			h.errorHandler.HandleError(w, r, &apiErr)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.LoadFailed(err, msg))
		return
	}

	render.JSON(w, r, result)
}

// LoadSheets handles POST /api/data/sheets
func (h *DashboardHandler) LoadSheets(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)

	result, err := h.service.LoadSheets(r.Context(), sess.ID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		h.handleServiceError(w, r, sess, err)
		return
	case errors.Is(err, services.ErrSheetsDisabled):
		h.errorHandler.HandleError(w, r, apierrors.ErrSheetsDisabled)
		return
	case err != nil:
		h.errorHandler.HandleError(w, r, apierrors.SheetsFailed(err, i18n.Tf("error_load_file", sess.Language, err.Error())))
		return
	}

	render.JSON(w, r, result)
}

// OptionsResponse lists the filter choices of the loaded table
type OptionsResponse struct {
	MinDate  string   `json:"min_date"`
	MaxDate  string   `json:"max_date"`
	Machines []string `json:"machines"`
	Shifts   []string `json:"shifts"`
	AllLabel string   `json:"all_label"`
}

// Options handles GET /api/data/options
func (h *DashboardHandler) Options(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)

	opts, err := h.service.Options(r.Context(), sess.ID)
	if err != nil {
		h.handleServiceError(w, r, sess, err)
		return
	}

	render.JSON(w, r, OptionsResponse{
		MinDate:  dateString(opts.MinDate),
		MaxDate:  dateString(opts.MaxDate),
		Machines: opts.Machines,
		Shifts:   opts.Shifts,
		AllLabel: i18n.T("all_option", sess.Language),
	})
}

// dateString renders the bounds of an empty table as ""
func dateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

// RecordsResponse carries the filtered table
type RecordsResponse struct {
	Rows    int                       `json:"rows"`
	Records []domain.ProductionRecord `json:"records"`
}

// Records handles GET /api/data/records
func (h *DashboardHandler) Records(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)

	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	records, err := h.service.Records(r.Context(), sess.ID, criteria)
	if err != nil {
		h.handleServiceError(w, r, sess, err)
		return
	}

	render.JSON(w, r, RecordsResponse{Rows: len(records), Records: records})
}

// Dashboard handles GET /api/dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)

	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	view, err := h.service.View(r.Context(), sess.ID, criteria)
	if err != nil {
		h.handleServiceError(w, r, sess, err)
		return
	}

	render.JSON(w, r, view)
}

// Chart handles GET /api/charts/{chart}
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)

	kind, ok := charts.ParseKind(chi.URLParam(r, "chart"))
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrNotFound)
		return
	}

	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	png, err := h.service.Chart(r.Context(), sess.ID, kind, criteria)
	if err != nil {
		h.handleServiceError(w, r, sess, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ExportFiltered handles GET /api/export/filtered
func (h *DashboardHandler) ExportFiltered(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)

	criteria, format, ok := h.exportRequest(w, r)
	if !ok {
		return
	}

	dl, err := h.service.ExportFiltered(r.Context(), sess.ID, criteria, format)
	if err != nil {
		h.handleServiceError(w, r, sess, err)
		return
	}
	h.writeDownload(w, dl)
}

// ExportSummary handles GET /api/export/summary
func (h *DashboardHandler) ExportSummary(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)

	criteria, format, ok := h.exportRequest(w, r)
	if !ok {
		return
	}

	dl, err := h.service.ExportSummary(r.Context(), sess.ID, criteria, format)
	if err != nil {
		h.handleServiceError(w, r, sess, err)
		return
	}
	h.writeDownload(w, dl)
}

// LanguageOption is one entry of the language selector
type LanguageOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// TranslationsResponse carries the label table of a language
type TranslationsResponse struct {
	Language  i18n.Lang         `json:"language"`
	Languages []LanguageOption  `json:"languages"`
	Labels    map[string]string `json:"labels"`
}

// Translations handles GET /api/i18n. The lang query parameter overrides
// the session language.
func (h *DashboardHandler) Translations(w http.ResponseWriter, r *http.Request) {
	lang := h.session(r).Language
	if q := r.URL.Query().Get("lang"); q != "" {
		parsed, ok := i18n.Parse(q)
		if !ok {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("lang", "lang must be one of: en, jp"))
			return
		}
		lang = parsed
	}

	languages := make([]LanguageOption, 0, len(i18n.Supported))
	for _, l := range i18n.Supported {
		languages = append(languages, LanguageOption{Code: string(l), Name: l.DisplayName()})
	}

	render.JSON(w, r, TranslationsResponse{
		Language:  lang,
		Languages: languages,
		Labels:    i18n.Table(lang),
	})
}

// SetLanguage handles PUT /api/session/language
func (h *DashboardHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)

	var req api.LanguageRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidRequest.WithCause(err))
		return
	}

	lang, err := h.requests.Language(req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	updated, err := h.service.SetLanguage(r.Context(), sess.ID, lang)
	if err != nil {
		h.handleServiceError(w, r, sess, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"language": updated.Language,
		"title":    i18n.T("title", updated.Language),
	})
}

// session returns the request's session. Routes always run behind
// SessionCtx, the fallback only serves handlers mounted without it.
func (h *DashboardHandler) session(r *http.Request) *session.Session {
	if sess, ok := SessionFromContext(r.Context()); ok {
		return sess
	}
	return &session.Session{Language: h.sessions.DefaultLanguage}
}

func (h *DashboardHandler) criteria(w http.ResponseWriter, r *http.Request) (domain.FilterCriteria, bool) {
	c, err := h.requests.FilterCriteria(filterRequest(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.FilterCriteria{}, false
	}
	return c, true
}

func (h *DashboardHandler) exportRequest(w http.ResponseWriter, r *http.Request) (domain.FilterCriteria, exporter.Format, bool) {
	req := api.ExportRequest{
		FilterRequest: filterRequest(r),
		Format:        r.URL.Query().Get("format"),
	}
	if err := h.requests.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.FilterCriteria{}, "", false
	}

	c, err := h.requests.FilterCriteria(req.FilterRequest)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.FilterCriteria{}, "", false
	}
	return c, exporter.ParseFormat(req.Format), true
}

func filterRequest(r *http.Request) api.FilterRequest {
	q := r.URL.Query()
	return api.FilterRequest{
		Start:   q.Get("start"),
		End:     q.Get("end"),
		Machine: q.Get("machine"),
		Shift:   q.Get("shift"),
	}
}

func (h *DashboardHandler) writeDownload(w http.ResponseWriter, dl *services.Download) {
	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.Data)
}

func (h *DashboardHandler) uploadError(err error) error {
	if apiErr := apierrors.Classify(err); apiErr != nil {
		return apiErr
	}
	return apierrors.ErrInvalidRequest.WithCause(err)
}

// handleServiceError maps service errors to API errors
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	switch {
	case errors.Is(err, services.ErrNoData):
		apiErr := *apierrors.ErrNoDataLoaded
		apiErr.Message = i18n.T("error_no_data", sess.Language)
		h.errorHandler.HandleError(w, r, apiErr.WithCause(err))
	case errors.Is(err, session.ErrNotFound):
		h.errorHandler.HandleError(w, r, apierrors.ErrNotFound.WithCause(err))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
