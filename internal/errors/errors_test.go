// internal/errors/errors_test.go
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[ErrorType]int{
		ErrorTypeValidation:       http.StatusBadRequest,
		ErrorTypeNotFound:         http.StatusNotFound,
		ErrorTypePayloadTooLarge:  http.StatusRequestEntityTooLarge,
		ErrorTypeRateLimited:      http.StatusTooManyRequests,
		ErrorTypeTimeout:          http.StatusGatewayTimeout,
		ErrorTypeLLMUnavailable:   http.StatusBadGateway,
		ErrorTypeLLMInvalidOutput: http.StatusBadGateway,
		ErrorTypeError:            http.StatusInternalServerError,
	}
	for errType, status := range cases {
		assert.Equal(t, status, NewAppError(errType, "x", nil).HTTPStatus(), string(errType))
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewProcessingError("failed to archive report", cause)

	assert.Equal(t, "failed to archive report: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "PROCESSING_ERROR", err.Code)
	assert.Equal(t, "no body", NewValidationError("no body", nil).Error())
}

func TestTypeOfFollowsWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NewNotFoundError("report missing", nil))

	errType, ok := TypeOf(err)
	assert.True(t, ok)
	assert.Equal(t, ErrorTypeNotFound, errType)
	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsValidationError(err))

	_, ok = TypeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "ignored", ErrorTypeError))

	wrapped := WrapError(NewTimeoutError("llm slow", nil), "analyze", ErrorTypeError)
	assert.True(t, IsTimeoutError(wrapped))
	assert.Contains(t, wrapped.Error(), "analyze: llm slow")

	plain := WrapError(errors.New("boom"), "analyze", ErrorTypeLLMUnavailable)
	assert.True(t, IsLLMUnavailableError(plain))
}
