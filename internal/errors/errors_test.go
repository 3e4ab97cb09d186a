package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrInternalServer, cause)

	assert.True(t, stderrors.Is(err, ErrInternalServer))
	assert.True(t, stderrors.Is(err, cause))
	assert.False(t, stderrors.Is(err, ErrGoalNotFound))
	assert.Equal(t, "An internal error occurred", err.Error())
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInvalidInput, "amount must be positive")

	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "amount must be positive", err.Message)
	assert.Equal(t, "Invalid input", ErrInvalidInput.Message, "sentinel must not change")
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("loading goal: %w", ErrGoalNotFound)
	assert.Equal(t, ErrGoalNotFound, As(wrapped))

	plain := As(stderrors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", plain.Code)
	assert.EqualError(t, plain.Internal, "boom")
}
