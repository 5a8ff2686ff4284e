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

var errMissing = errors.New("memory not found")

func TestNewError_CarriesRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")

	err := NewError(ctx, LayerRepository, ErrorTypeNotFound, "memory 7 not found", errMissing)

	assert.Equal(t, "req-123", err.RequestID)
	assert.NotEmpty(t, err.UUID)
	assert.ErrorIs(t, err, errMissing)
	assert.Equal(t, "[repository][NOT_FOUND] memory 7 not found: memory not found", err.Error())
}

func TestAsError_KeepsInnerType(t *testing.T) {
	ctx := context.Background()
	inner := NewError(ctx, LayerRepository, ErrorTypeConflict, "duplicate name", nil)

	wrapped := AsError(ctx, LayerDomain, fmt.Errorf("create corpus: %w", inner), "create corpus")
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorTypeConflict, wrapped.Type)
	assert.Equal(t, inner.UUID, wrapped.UUID)
	assert.Equal(t, LayerDomain, wrapped.Layer)

	plain := AsError(ctx, LayerDomain, errors.New("boom"), "failed")
	assert.Equal(t, ErrorTypeInternal, plain.Type)

	assert.Nil(t, AsError(ctx, LayerDomain, nil, "noop"))
}

func TestTypeOf(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorTypeValidation, TypeOf(fmt.Errorf("wrap: %w",
		NewError(ctx, LayerDomain, ErrorTypeValidation, "bad", nil))))
}

func TestDatabaseErrorsMatchStorageUnavailable(t *testing.T) {
	ctx := context.Background()

	dbErr := fmt.Errorf("list messages: %w", NewError(ctx, LayerRepository, ErrorTypeDatabaseError, "query failed", errors.New("conn reset")))
	assert.ErrorIs(t, dbErr, ErrStorageUnavailable)

	notFound := NewError(ctx, LayerRepository, ErrorTypeNotFound, "missing", nil)
	assert.False(t, errors.Is(notFound, ErrStorageUnavailable))
}

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := map[ErrorType]int{
		ErrorTypeNotFound:      http.StatusNotFound,
		ErrorTypeValidation:    http.StatusBadRequest,
		ErrorTypeConflict:      http.StatusConflict,
		ErrorTypeExternal:      http.StatusBadGateway,
		ErrorTypeDatabaseError: http.StatusServiceUnavailable,
		ErrorTypeInternal:      http.StatusInternalServerError,
	}
	for errorType, status := range tests {
		assert.Equal(t, status, ErrorTypeToHTTPStatus(errorType), errorType)
	}
}
