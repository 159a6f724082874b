package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, WriteError(rr, http.StatusForbidden, MessageBlocked))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, MessageBlocked, body.Error)
}

func TestWriteInternalError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteInternalError(rr)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rr.Body.String())
	assert.Len(t, rr.Header(), 1)
}

func TestValidationErrorResponseEncoding(t *testing.T) {
	out, err := json.Marshal(ValidationErrorResponse{Error: "File cannot be empty", RemainingAttempts: 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"File cannot be empty","remainingAttempts":0}`, string(out))
}
