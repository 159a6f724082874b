package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ruteri/ra-quote-explorer/interfaces"
	"github.com/stretchr/testify/mock"
)

// ErrUpstreamStatus is returned when the verification backend answers a
// verify request with a non-2xx status.
var ErrUpstreamStatus = errors.New("verification backend returned error status")

// maxRelayBytes caps bodies relayed from the backend.
const maxRelayBytes = 16 << 20

// VerifierClient talks to the external verification backend.
type VerifierClient struct {
	// APIPrefix is the base URL of the backend, e.g. "https://api.example.com".
	APIPrefix string

	Client *http.Client
}

var (
	_ interfaces.Verifier     = (*VerifierClient)(nil)
	_ interfaces.ReportSource = (*VerifierClient)(nil)
)

func NewVerifierClient(apiPrefix string, timeout time.Duration) *VerifierClient {
	return &VerifierClient{
		APIPrefix: strings.TrimSuffix(apiPrefix, "/"),
		Client:    &http.Client{Timeout: timeout},
	}
}

// Verify posts quote as the single "file" field of a multipart form to
// /api/attestations/verify and decodes the JSON answer. It does not retry.
func (c *VerifierClient) Verify(ctx context.Context, quote []byte) (interfaces.VerificationResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "quote.bin")
	if err != nil {
		return nil, fmt.Errorf("could not initialize form: %w", err)
	}
	if _, err := part.Write(quote); err != nil {
		return nil, fmt.Errorf("could not write form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("could not finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIPrefix+"/api/attestations/verify", &body)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not request verification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w %d: %s", ErrUpstreamStatus, resp.StatusCode, string(bodyBytes))
	}

	var result interfaces.VerificationResult
	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxRelayBytes))
	decoder.UseNumber()
	if err := decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("could not parse verification response: %w", err)
	}
	if result == nil {
		return nil, errors.New("verification response is not a JSON object")
	}

	return result, nil
}

// Collateral relays /api/collateral/{checksum}.
func (c *VerifierClient) Collateral(ctx context.Context, checksum string) (*interfaces.UpstreamResponse, error) {
	return c.relay(ctx, "/api/collateral/"+checksum)
}

// Report relays /api/attestations/view/{checksum}.
func (c *VerifierClient) Report(ctx context.Context, checksum string) (*interfaces.UpstreamResponse, error) {
	return c.relay(ctx, "/api/attestations/view/"+checksum)
}

// RawQuote relays /raw/{checksum}.
func (c *VerifierClient) RawQuote(ctx context.Context, checksum string) (*interfaces.UpstreamResponse, error) {
	return c.relay(ctx, "/raw/"+checksum)
}

// relay fetches path from the backend. Error statuses are returned as
// responses, not as errors, so callers can pass them through.
func (c *VerifierClient) relay(ctx context.Context, path string) (*interfaces.UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIPrefix+path, nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRelayBytes))
	if err != nil {
		return nil, fmt.Errorf("could not read %s response: %w", path, err)
	}

	return &interfaces.UpstreamResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *VerifierClient) httpClient() *http.Client {
	if c.Client == nil {
		return http.DefaultClient
	}
	return c.Client
}

// MockVerifier implements interfaces.Verifier and interfaces.ReportSource for testing.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, quote []byte) (interfaces.VerificationResult, error) {
	args := m.Called(quote)
	result, _ := args.Get(0).(interfaces.VerificationResult)
	return result, args.Error(1)
}

func (m *MockVerifier) Collateral(ctx context.Context, checksum string) (*interfaces.UpstreamResponse, error) {
	args := m.Called(checksum)
	resp, _ := args.Get(0).(*interfaces.UpstreamResponse)
	return resp, args.Error(1)
}

func (m *MockVerifier) Report(ctx context.Context, checksum string) (*interfaces.UpstreamResponse, error) {
	args := m.Called(checksum)
	resp, _ := args.Get(0).(*interfaces.UpstreamResponse)
	return resp, args.Error(1)
}

func (m *MockVerifier) RawQuote(ctx context.Context, checksum string) (*interfaces.UpstreamResponse, error) {
	args := m.Called(checksum)
	resp, _ := args.Get(0).(*interfaces.UpstreamResponse)
	return resp, args.Error(1)
}
