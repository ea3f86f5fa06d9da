package faults_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/faults"
)

func TestKindOf(t *testing.T) {
	err := faults.New(faults.AuthFailed, "bad credentials")
	assert.Equal(t, faults.AuthFailed, faults.KindOf(err))

	// Wrapped further up the chain, the kind survives.
	wrapped := fmt.Errorf("provider amadeus: %w", err)
	assert.Equal(t, faults.AuthFailed, faults.KindOf(wrapped))

	// Untagged errors classify as unknown.
	assert.Equal(t, faults.Unknown, faults.KindOf(errors.New("boom")))
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind      faults.Kind
		retryable bool
	}{
		{faults.RateLimitExceeded, true},
		{faults.ServiceUnavailable, true},
		{faults.NetworkError, true},
		{faults.AuthFailed, false},
		{faults.InvalidDate, false},
		{faults.InvalidLocation, false},
		{faults.ValidationError, false},
		{faults.CacheError, false},
		{faults.Unknown, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.kind.Retryable())
			assert.Equal(t, tt.retryable, faults.IsRetryable(faults.New(tt.kind, "x")))
		})
	}
}

func TestWrap(t *testing.T) {
	require.NoError(t, faults.Wrap(faults.CacheError, "set", nil))

	cause := errors.New("connection refused")
	err := faults.Wrap(faults.NetworkError, "call upstream", cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "NETWORK_ERROR")
	assert.Contains(t, err.Error(), "connection refused")
}
