package platformerrors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) HTTPErrorDetail {
	t.Helper()
	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return *body.Error
}

func TestWriteError_PlatformError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-9")

	WriteError(c, NewError(context.Background(), LayerDomain, ErrorTypeNotFound, "conversation not found", nil, "cv-02"), zerolog.Nop())

	assert.Equal(t, http.StatusNotFound, w.Code)
	detail := decodeEnvelope(t, w)
	assert.Equal(t, "conversation not found", detail.Message)
	assert.Equal(t, "not_found_error", detail.Type)
	assert.Equal(t, "cv-02", detail.Code)
	assert.Equal(t, "req-9", detail.RequestID)
	assert.True(t, c.IsAborted())
}

func TestWriteError_HidesStorageDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	WriteError(c, NewError(context.Background(), LayerRepository, ErrorTypeDatabaseError, "pq: relation does not exist", nil, "id-01"), zerolog.Nop())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeEnvelope(t, w).Message)
}

func TestWriteError_Unavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	WriteError(c, NewError(context.Background(), LayerRepository, ErrorTypeUnavailable, "dial tcp", nil, ""), zerolog.Nop())

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable_error", decodeEnvelope(t, w).Type)
}

func TestWriteError_Unclassified(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	WriteError(c, errors.New("boom"), zerolog.Nop())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", decodeEnvelope(t, w).Type)
}

func TestWriteUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	WriteUnauthorized(c, "authentication required")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	detail := decodeEnvelope(t, w)
	assert.Equal(t, "unauthorized_error", detail.Type)
	assert.Empty(t, detail.Code)
}
