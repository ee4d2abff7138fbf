package platformerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError_CarriesRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	err := NewError(ctx, LayerDomain, ErrorTypeNotFound, "missing", nil, "nf-01")

	assert.Equal(t, "req-123", err.RequestID)
	assert.Equal(t, "nf-01", err.UUID)
	assert.Equal(t, "[domain][NOT_FOUND][nf-01] missing", err.Error())
}

func TestAsError(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, AsError(ctx, LayerDomain, nil, "noop"))

	inner := NewError(ctx, LayerRepository, ErrorTypeConflict, "duplicate", nil, "id-04")
	wrapped := AsError(ctx, LayerDomain, fmt.Errorf("ctx: %w", inner), "resolve identity")
	assert.Equal(t, ErrorTypeConflict, wrapped.Type)
	assert.Equal(t, "id-04", wrapped.UUID)
	assert.Equal(t, "resolve identity: duplicate", wrapped.Message)
	assert.True(t, IsErrorType(wrapped, ErrorTypeConflict))

	plain := AsError(ctx, LayerDomain, errors.New("boom"), "op")
	assert.Equal(t, ErrorTypeInternal, plain.Type)
	assert.False(t, IsRetryable(plain))
}

func TestIsRetryable(t *testing.T) {
	ctx := context.Background()
	assert.True(t, IsRetryable(NewError(ctx, LayerRepository, ErrorTypeUnavailable, "down", nil, "")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := map[ErrorType]int{
		ErrorTypeNotFound:      http.StatusNotFound,
		ErrorTypeValidation:    http.StatusBadRequest,
		ErrorTypeConflict:      http.StatusConflict,
		ErrorTypeUnauthorized:  http.StatusUnauthorized,
		ErrorTypeForbidden:     http.StatusForbidden,
		ErrorTypeUnavailable:   http.StatusServiceUnavailable,
		ErrorTypeDatabaseError: http.StatusInternalServerError,
		ErrorTypeInternal:      http.StatusInternalServerError,
	}
	for errType, status := range tests {
		assert.Equal(t, status, ErrorTypeToHTTPStatus(errType), string(errType))
	}
}

func TestGetPlatformError(t *testing.T) {
	require.Nil(t, GetPlatformError(errors.New("plain")))

	inner := NewError(context.Background(), LayerRepository, ErrorTypeNotFound, "x", nil, "")
	found := GetPlatformError(fmt.Errorf("outer: %w", inner))
	require.NotNil(t, found)
	assert.Same(t, inner, found)
}
