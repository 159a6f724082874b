package mockverifier

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/ra-quote-explorer/api/clients"
	"github.com/ruteri/ra-quote-explorer/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	NewHandler(false, logger).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestMockVerifier_RoundTrip(t *testing.T) {
	srv := newServer(t)
	client := clients.NewVerifierClient(srv.URL, time.Second)
	ctx := context.Background()

	quote := bytes.Repeat([]byte{0x42}, 100)
	result, err := client.Verify(ctx, quote)
	require.NoError(t, err)

	checksum := interfaces.ComputeID(quote).String()
	assert.Equal(t, checksum, result.Checksum())
	assert.False(t, result.Success())
	assert.Contains(t, result["error"], "could not parse quote")

	raw, err := client.RawQuote(ctx, checksum)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, raw.StatusCode)
	assert.Equal(t, quote, raw.Body)

	view, err := client.Report(ctx, checksum)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, view.StatusCode)
	assert.Contains(t, string(view.Body), checksum)

	collateral, err := client.Collateral(ctx, checksum)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, collateral.StatusCode)
}

func TestMockVerifier_UnknownChecksum(t *testing.T) {
	srv := newServer(t)
	client := clients.NewVerifierClient(srv.URL, time.Second)

	for _, fetch := range []func(context.Context, string) (*interfaces.UpstreamResponse, error){
		client.RawQuote, client.Report, client.Collateral,
	} {
		resp, err := fetch(context.Background(), "abcd")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}

func TestMockVerifier_MissingFile(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Post(srv.URL+"/api/attestations/verify", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, err = clients.NewVerifierClient(srv.URL, time.Second).Verify(context.Background(), nil)
	assert.NoError(t, err, "an empty file part is still a file")
}
