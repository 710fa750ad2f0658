package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsRetryableError(ErrNetworkUnavailable))
	assert.True(t, IsRetryableError(fmt.Errorf("fetch failed: %w", ErrTimeout)))
	assert.False(t, IsRetryableError(ErrInvalidInput))

	assert.True(t, IsPermanentError(ErrUnauthorized))
	assert.True(t, IsPermanentError(fmt.Errorf("message number 7: %w", ErrMessageNotFound)))
	assert.False(t, IsPermanentError(ErrNetworkUnavailable))

	// ErrNoMoreMessages is a flow signal, neither retryable nor permanent.
	assert.False(t, IsRetryableError(ErrNoMoreMessages))
	assert.False(t, IsPermanentError(ErrNoMoreMessages))
}
