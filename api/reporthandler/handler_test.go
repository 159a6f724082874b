package reporthandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/ra-quote-explorer/api"
	"github.com/ruteri/ra-quote-explorer/api/clients"
	"github.com/ruteri/ra-quote-explorer/interfaces"
	"github.com/ruteri/ra-quote-explorer/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, archive interfaces.QuoteArchive) (chi.Router, *clients.MockVerifier) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := &clients.MockVerifier{}
	router := chi.NewRouter()
	NewHandler(source, archive, nil, logger).RegisterRoutes(router)
	return router, source
}

func get(router chi.Router, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestRelay(t *testing.T) {
	router, source := setup(t, nil)
	source.On("Collateral", "abcd").Return(&interfaces.UpstreamResponse{
		StatusCode:  http.StatusOK,
		ContentType: "application/json",
		Body:        []byte(`{"tcbInfo":{}}`),
	}, nil)
	source.On("Report", "abcd").Return(&interfaces.UpstreamResponse{
		StatusCode: http.StatusNotFound,
		Body:       []byte("not found"),
	}, nil)

	rr := get(router, "/api/collateral/abcd")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"tcbInfo":{}}`, rr.Body.String())

	rr = get(router, "/api/reports/abcd")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/octet-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "not found", rr.Body.String())

	source.AssertExpectations(t)
}

func TestRelay_UpstreamFailure(t *testing.T) {
	router, source := setup(t, nil)
	source.On("Report", "abcd").Return(nil, errors.New("timeout"))

	rr := get(router, "/api/reports/abcd")
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, api.MessageInternalError, body.Error)
}

func TestRelay_InvalidChecksum(t *testing.T) {
	router, source := setup(t, nil)

	for _, path := range []string{
		"/api/collateral/xyz",
		"/api/reports/" + strings.Repeat("a", 129),
		"/raw/0x1234",
	} {
		rr := get(router, path)
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
	source.AssertNotCalled(t, "Collateral", mock.Anything)
	source.AssertNotCalled(t, "Report", mock.Anything)
	source.AssertNotCalled(t, "RawQuote", mock.Anything)
}

func TestRawQuote_ServedFromArchive(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	archive, err := storage.NewFileBackend(t.TempDir(), logger)
	require.NoError(t, err)

	quote := []byte{0x04, 0x00, 0x02, 0x00}
	id, err := archive.Store(context.Background(), quote)
	require.NoError(t, err)

	router, source := setup(t, archive)

	rr := get(router, "/raw/"+id.String())
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/octet-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, quote, rr.Body.Bytes())
	source.AssertNotCalled(t, "RawQuote", mock.Anything)
}

func TestRawQuote_FallsBackToBackend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	archive, err := storage.NewFileBackend(t.TempDir(), logger)
	require.NoError(t, err)

	missing := interfaces.ComputeID([]byte("not archived")).String()
	router, source := setup(t, archive)
	source.On("RawQuote", missing).Return(&interfaces.UpstreamResponse{
		StatusCode:  http.StatusOK,
		ContentType: "application/octet-stream",
		Body:        []byte{0x01},
	}, nil)
	source.On("RawQuote", "beef").Return(&interfaces.UpstreamResponse{
		StatusCode: http.StatusOK,
		Body:       []byte{0x02},
	}, nil)

	rr := get(router, "/raw/"+missing)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []byte{0x01}, rr.Body.Bytes())

	// short checksums are never archive IDs
	rr = get(router, "/raw/beef")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []byte{0x02}, rr.Body.Bytes())

	source.AssertExpectations(t)
}

func TestRawQuote_ArchiveErrorFallsBack(t *testing.T) {
	id := interfaces.ComputeID([]byte("quote"))
	archive := storage.NewMockArchive("broken")
	archive.On("Fetch", id).Return(nil, interfaces.ErrBackendUnavailable)

	router, source := setup(t, archive)
	source.On("RawQuote", id.String()).Return(&interfaces.UpstreamResponse{StatusCode: http.StatusOK, Body: []byte("quote")}, nil)

	rr := get(router, "/raw/"+id.String())
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "quote", rr.Body.String())
	archive.AssertExpectations(t)
}
