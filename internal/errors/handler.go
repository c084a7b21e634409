package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"kpidash/internal/charts"
	"kpidash/internal/dataprocessing"
	"kpidash/internal/infrastructure"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	traceID := requestTraceID(r)
	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", traceID)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("trace_id", traceID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", getStackTrace())
	}

	_ = render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	if apiErr := Classify(err); apiErr != nil {
		return apiErrorToProblem(apiErr, r)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

// Classify maps known failures to an APIError, or returns nil when err is
// not one the API knows how to describe.
func Classify(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var (
		inputErr  *dataprocessing.InputError
		schemaErr *dataprocessing.SchemaError
		cellErr   *dataprocessing.CellError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &inputErr):
		return New(http.StatusBadRequest, CodeInputError, inputErr.Error()).WithCause(err)
	case errors.As(err, &schemaErr):
		return NewWithDetails(http.StatusUnprocessableEntity, CodeSchemaError, schemaErr.Error(),
			map[string]interface{}{"missing_columns": schemaErr.Missing}).WithCause(err)
	case errors.As(err, &cellErr):
		return NewWithDetails(http.StatusUnprocessableEntity, CodeInvalidCell, cellErr.Error(),
			map[string]interface{}{
				"row":    cellErr.Row,
				"column": cellErr.Column,
				"value":  cellErr.Value,
			}).WithCause(err)
	case errors.As(err, &maxErr):
		return ErrPayloadTooLarge.WithCause(err)
	case errors.Is(err, charts.ErrNoChartData):
		return ErrNoChartData.WithCause(err)
	}
	return nil
}

// LoadFailed describes a failed workbook load. Unclassified failures are
// reported as an unreadable workbook. message replaces the error text so
// the response carries the user's language.
func LoadFailed(err error, message string) *APIError {
	return loadFailed(err, message, http.StatusUnprocessableEntity, CodeUnreadableWorkbook)
}

// SheetsFailed describes a failed Google Sheets load
func SheetsFailed(err error, message string) *APIError {
	return loadFailed(err, message, http.StatusBadGateway, CodeSheetsUnavailable)
}

func loadFailed(err error, message string, status int, code string) *APIError {
	base := Classify(err)
	if base == nil {
		base = New(status, code, err.Error()).WithCause(err)
	}
	out := *base
	if message != "" {
		out.Message = message
	}
	return &out
}

func apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType(apiErr.ErrorCode),
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

func problemType(code string) string {
	switch code {
	case CodeValidationFailed, CodeInvalidRequest:
		return TypeValidation
	case CodeInputError:
		return TypeDataInput
	case CodeSchemaError:
		return TypeDataSchema
	case CodeUnreadableWorkbook:
		return TypeDataUnreadable
	case CodeInvalidCell:
		return TypeDataCell
	case CodeNoDataLoaded:
		return TypeNoData
	case CodeSheetsDisabled, CodeSheetsUnavailable:
		return TypeSheets
	case CodeNoChartData:
		return TypeNoChartData
	case CodeNotFound, CodeSampleNotFound:
		return TypeNotFound
	case CodePayloadTooLarge:
		return TypePayloadTooLarge
	case CodeRateLimitExceeded:
		return TypeRateLimit
	}
	return TypeInternal
}

// HandlePanic responds with a 500 problem for a recovered panic
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	traceID := requestTraceID(r)

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("trace_id", traceID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", traceID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}

	_ = render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", requestTraceID(r))

	_ = render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethodNotAllowed,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", requestTraceID(r))

	_ = render.Render(w, r, problem)
}

// Recoverer returns a middleware that turns panics into problem responses
func (h *ErrorHandler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.HandlePanic(w, r, rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func requestTraceID(r *http.Request) string {
	if id := infrastructure.GetTraceID(r.Context()); id != "" {
		return id
	}
	return middleware.GetReqID(r.Context())
}

func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
