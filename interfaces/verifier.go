package interfaces

import "context"

// VerificationResult is the JSON object returned by the verification backend.
// Its schema is owned by the backend; only a few well-known fields are read.
type VerificationResult map[string]any

// Checksum returns the backend-assigned checksum, or "" when absent.
func (r VerificationResult) Checksum() string {
	checksum, _ := r["checksum"].(string)
	return checksum
}

// Success reports the backend's verification outcome.
func (r VerificationResult) Success() bool {
	success, _ := r["success"].(bool)
	return success
}

// Verifier submits canonical quote bytes to the verification backend.
type Verifier interface {
	Verify(ctx context.Context, quote []byte) (VerificationResult, error)
}

// UpstreamResponse is a raw response relayed from the verification backend.
type UpstreamResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// ReportSource fetches backend-owned report data by checksum.
type ReportSource interface {
	Collateral(ctx context.Context, checksum string) (*UpstreamResponse, error)
	Report(ctx context.Context, checksum string) (*UpstreamResponse, error)
	RawQuote(ctx context.Context, checksum string) (*UpstreamResponse, error)
}
