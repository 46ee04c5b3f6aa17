// Package common holds the response envelope, problem details and request
// helpers shared by the HTTP routes.
package common

import (
	"errors"
	"strings"

	"github.com/amirasaad/masroofy/pkg/domain"
	authsvc "github.com/amirasaad/masroofy/pkg/service/auth"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// SuccessResponseJSON writes the standard success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ProblemDetailsJSON writes an RFC 9457 response. The optional arguments
// are a detail string and an explicit status code; without a status the
// code comes from ErrorToStatusCode(err).
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, opts ...any) error {
	status := fiber.StatusInternalServerError
	if err != nil {
		status = ErrorToStatusCode(err)
	}
	detail := ""
	for _, opt := range opts {
		switch v := opt.(type) {
		case int:
			status = v
		case string:
			detail = v
		}
	}
	if detail == "" && err != nil {
		detail = errorDetail(err, status)
	}
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.OriginalURL(),
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		pd.Errors = fieldErrors(verrs)
	}
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(pd)
}

// errorDetail hides storage and internal causes.
func errorDetail(err error, status int) string {
	switch status {
	case fiber.StatusServiceUnavailable:
		return "The service is temporarily unavailable, please retry"
	case fiber.StatusInternalServerError:
		return "An unexpected error occurred"
	}
	return domain.Reason(err)
}

// ErrorToStatusCode maps domain error kinds to HTTP status codes.
func ErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors
	var fe *fiber.Error
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrMissingDescription),
		errors.Is(err, domain.ErrInvalidInput),
		errors.As(err, &verrs):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNameTaken):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &fe):
		return fe.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it using
// go-playground/validator. On failure the problem response is already
// written and the returned pointer is nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			return nil, ProblemDetailsJSON(c, "Invalid amount", err)
		}
		return nil, ProblemDetailsJSON(c, "Invalid request body", err, "The request body could not be parsed", fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		return nil, ProblemDetailsJSON(c, "Validation failed", err, "One or more fields are invalid", fiber.StatusBadRequest)
	}
	return &input, nil
}

// CurrentAccountID reads the caller from the token stored by the JWT middleware.
func CurrentAccountID(c *fiber.Ctx, authSvc *authsvc.Service) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, domain.Errorf(domain.ErrUnauthorized, "missing user context")
	}
	return authSvc.GetCurrentUserID(token)
}

// ParseID parses the named route parameter as a UUID.
func ParseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.ErrInvalidInput, "%s must be a valid UUID", param)
	}
	return id, nil
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out[strings.ToLower(fe.Field())] = msg
	}
	return out
}
