package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(ErrInternal))
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(NewError("VALIDATION_ERROR", "bad input", http.StatusBadRequest)))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(fmt.Errorf("plain error")))
}

func TestToHTTPStatusUnwrapsCause(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewError("VALIDATION_ERROR", "bad input", http.StatusBadRequest))
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(wrapped))
}

func TestToErrorResponse(t *testing.T) {
	response := ToErrorResponse(ErrInternal)
	assert.Equal(t, "internal server error", response["error"])
	assert.Equal(t, "INTERNAL_ERROR", response["error_code"])
	assert.NotContains(t, response, "details")
}

func TestToErrorResponseWrapsForeignError(t *testing.T) {
	response := ToErrorResponse(fmt.Errorf("disk full"))
	assert.Equal(t, "internal server error", response["error"])
	assert.Equal(t, "INTERNAL_ERROR", response["error_code"])
}

func TestToErrorResponseIncludesDetails(t *testing.T) {
	response := ToErrorResponse(ErrInternal.WithDetail("attempt", 3))
	details, ok := response["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 3, details["attempt"])
}

func TestWithDetailDoesNotMutateSentinel(t *testing.T) {
	derived := ErrInternal.WithDetail("stack_trace", "goroutine 1 ...")
	assert.Contains(t, derived.Details, "stack_trace")
	assert.Empty(t, ErrInternal.Details)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrInternal))

	cause := fmt.Errorf("connection reset")
	wrapped := Wrap(cause, ErrInternal)
	require.NotNil(t, wrapped)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "INTERNAL_ERROR")
	assert.Contains(t, wrapped.Error(), "connection reset")
}

func TestRecoverPanic(t *testing.T) {
	assert.Nil(t, RecoverPanic(nil))

	err := RecoverPanic("boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(err))

	// The stack trace stays in the error details, and deriving it never
	// pollutes the sentinel.
	assert.Empty(t, ErrInternal.Details)
}
