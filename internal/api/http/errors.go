package http

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/problem-tracker/internal/auth"
	"github.com/spec-kit/problem-tracker/internal/domain"
	apperrors "github.com/spec-kit/problem-tracker/pkg/util/errorutil"
)

// resolveError maps any handler error onto the DomainError that is rendered.
// Unknown errors become internal errors whose cause is never shown to clients.
func resolveError(err error) *apperrors.DomainError {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	// fiber's own errors (unknown route, bad method, oversized body).
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return apperrors.NewDomainError(codeForStatus(fe.Code), fe.Message, fe.Code, nil)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return apperrors.NewValidationError(err.Error(), nil).(*apperrors.DomainError)
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return apperrors.NewConflict(err.Error(), nil).(*apperrors.DomainError)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return apperrors.NewInvalidCredentials(domain.ErrInvalidCredentials.Error()).(*apperrors.DomainError)
	case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrTokenInvalid):
		return apperrors.NewUnauthorized(auth.UnauthorizedMessage).(*apperrors.DomainError)
	case errors.Is(err, domain.ErrForbidden):
		return apperrors.NewForbidden("access forbidden").(*apperrors.DomainError)
	case errors.Is(err, domain.ErrNotFound):
		return apperrors.NewNotFound("resource", nil).(*apperrors.DomainError)
	}
	return apperrors.ToDomainError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return apperrors.CodeValidationFailed
	case http.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case http.StatusForbidden:
		return apperrors.CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperrors.CodeNotFound
	case http.StatusConflict:
		return apperrors.CodeConflict
	default:
		return apperrors.CodeInternal
	}
}

// renderError writes domainErr. Guard rejections carry {error, message, status}; every other
// failure is {error}.
func renderError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	status := domainErr.HTTPStatus
	c.Status(status)
	switch domainErr.Code {
	case apperrors.CodeUnauthorized, apperrors.CodeForbidden:
		return c.JSON(fiber.Map{
			"error":   http.StatusText(status),
			"message": domainErr.Message,
			"status":  status,
		})
	default:
		return c.JSON(fiber.Map{"error": domainErr.Message})
	}
}
