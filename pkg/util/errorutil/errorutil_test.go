package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
	})

	t.Run("domain error passes through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("handler: %w", NewForbidden("nope"))
		de := ToDomainError(wrapped)
		assert.Equal(t, CodeForbidden, de.Code)
		assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		de := ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
		assert.Equal(t, CodeNotFound, de.Code)
		assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	})

	t.Run("unknown error hides detail", func(t *testing.T) {
		cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")
		de := ToDomainError(cause)
		assert.Equal(t, CodeInternal, de.Code)
		assert.Equal(t, "internal server error", de.Message)
		assert.ErrorIs(t, de, cause)
	})
}

func TestDomainErrorMessage(t *testing.T) {
	assert.Equal(t, "problem not found", NewNotFound("problem", nil).Error())
	assert.Equal(t, "internal server error: boom", NewInternalError(errors.New("boom")).Error())
}
