package resilience

import (
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient_TransientError(t *testing.T) {
	err := NewTransientError(assert.AnError, 503)
	assert.True(t, IsTransient(err))
	assert.False(t, IsPermanent(err))
}

func TestIsTransient_WrappedTransient(t *testing.T) {
	err := fmt.Errorf("fetch page: %w", NewTransientError(assert.AnError, 429))
	assert.True(t, IsTransient(err))
}

func TestIsTransient_PermanentNeverTransient(t *testing.T) {
	// A permanent rejection stays permanent even when it wraps something
	// that looks transient.
	inner := NewTransientError(assert.AnError, 503)
	err := NewPermanentError(inner)
	assert.False(t, IsTransient(err))
	assert.True(t, IsPermanent(err))
}

func TestIsTransient_Syscall(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("dial: %w", syscall.ECONNRESET)))
	assert.True(t, IsTransient(fmt.Errorf("dial: %w", syscall.ECONNREFUSED)))
}

func TestIsTransient_StringHeuristics(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("read tcp: connection reset by peer")))
	assert.True(t, IsTransient(fmt.Errorf("Get \"x\": TLS handshake timeout")))
	assert.False(t, IsTransient(fmt.Errorf("parse error in response")))
}

func TestIsTransient_Nil(t *testing.T) {
	assert.False(t, IsTransient(nil))
}

func TestIsPermanent_Wrapped(t *testing.T) {
	err := fmt.Errorf("validate: %w", NewPermanentError(assert.AnError))
	assert.True(t, IsPermanent(err))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 410} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

func TestErrorUnwrap(t *testing.T) {
	te := NewTransientError(assert.AnError, 503)
	assert.Equal(t, assert.AnError, te.Unwrap())
	assert.Equal(t, assert.AnError.Error(), te.Error())

	pe := NewPermanentError(assert.AnError)
	assert.Equal(t, assert.AnError, pe.Unwrap())
}
