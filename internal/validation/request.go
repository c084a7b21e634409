package validation

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apierrors "kpidash/internal/errors"
	"kpidash/internal/i18n"
	api "kpidash/pkg/contracts/api/v1"
	"kpidash/pkg/contracts/domain"
)

// RequestValidator validates API request structs using struct tags
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator that reports fields by their
// json names
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Struct validates v and returns a VALIDATION_FAILED APIError listing
// every failing field
func (rv *RequestValidator) Struct(v interface{}) error {
	err := rv.validate.Struct(v)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.ErrInvalidRequest.WithCause(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

// FilterCriteria validates a filter request and converts it to criteria.
// Blank dates are open bounds. The "All" label of any language disables
// the machine or shift predicate.
func (rv *RequestValidator) FilterCriteria(req api.FilterRequest) (domain.FilterCriteria, error) {
	if err := rv.Struct(req); err != nil {
		return domain.FilterCriteria{}, err
	}

	var c domain.FilterCriteria
	if req.Start != "" {
		c.Start, _ = time.Parse(domain.DateLayout, req.Start)
	}
	if req.End != "" {
		c.End, _ = time.Parse(domain.DateLayout, req.End)
	}
	if !c.Start.IsZero() && !c.End.IsZero() && c.Start.After(c.End) {
		return domain.FilterCriteria{}, apierrors.ErrValidation("start", "start must not be after end")
	}

	c.Machine = normalizeOption(req.Machine)
	c.Shift = normalizeOption(req.Shift)
	return c, nil
}

// Language validates a language request and resolves it to a supported
// language
func (rv *RequestValidator) Language(req api.LanguageRequest) (i18n.Lang, error) {
	if err := rv.Struct(req); err != nil {
		return "", err
	}
	lang, ok := i18n.Parse(req.Language)
	if !ok {
		return "", apierrors.ErrValidation("language",
			fmt.Sprintf("language must be one of: %s", supportedLanguages()))
	}
	return lang, nil
}

func normalizeOption(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || i18n.IsAllLabel(v) {
		return domain.AllOption
	}
	return v
}

func supportedLanguages() string {
	names := make([]string, len(i18n.Supported))
	for i, l := range i18n.Supported {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s form", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}
