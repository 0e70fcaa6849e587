package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := Status(429, "User Throttled")
	assert.Equal(t, "status error (code 429): User Throttled", err.Error())

	err = Remote("missing field %q", "post_count")
	assert.Equal(t, `remote error: missing field "post_count"`, err.Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		retryable bool
	}{
		{ErrorTypeTransport, true},
		{ErrorTypeStatus, true},
		{ErrorTypeRemote, false},
		{ErrorTypeMalformedRecord, false},
		{ErrorTypeAuth, false},
		{ErrorTypeStorageConflict, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.retryable, IsRetryable(tt.errorType), string(tt.errorType))
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(500))
	assert.True(t, IsRetryableStatusCode(502))
	assert.True(t, IsRetryableStatusCode(503))
	assert.False(t, IsRetryableStatusCode(401))
	assert.False(t, IsRetryableStatusCode(404))
	assert.False(t, IsRetryableStatusCode(410))
	assert.False(t, IsRetryableStatusCode(422))
}
