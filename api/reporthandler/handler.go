package reporthandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/ra-quote-explorer/api"
	"github.com/ruteri/ra-quote-explorer/interfaces"
	"github.com/ruteri/ra-quote-explorer/metrics"
)

const maxChecksumLength = 128

// MessageInvalidChecksum is returned for a malformed checksum path parameter.
const MessageInvalidChecksum = "Invalid checksum"

// Handler relays report data owned by the verification backend. Raw quotes
// are served from the local archive when it holds them.
type Handler struct {
	source  interfaces.ReportSource
	archive interfaces.QuoteArchive
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewHandler creates a report handler. archive and m may be nil.
func NewHandler(source interfaces.ReportSource, archive interfaces.QuoteArchive, m *metrics.Metrics, log *slog.Logger) *Handler {
	return &Handler{
		source:  source,
		archive: archive,
		metrics: m,
		log:     log,
	}
}

// RegisterRoutes registers:
//   - GET /api/collateral/{checksum} - Quote collateral
//   - GET /api/reports/{checksum} - Verification report
//   - GET /raw/{checksum} - Raw quote bytes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/collateral/{checksum}", h.HandleCollateral)
	r.Get("/api/reports/{checksum}", h.HandleReport)
	r.Get("/raw/{checksum}", h.HandleRawQuote)
}

func (h *Handler) HandleCollateral(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, "collateral", h.source.Collateral)
}

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, "report", h.source.Report)
}

// HandleRawQuote serves an archived quote when the checksum is a content ID
// held by the archive, and relays the backend otherwise.
func (h *Handler) HandleRawQuote(w http.ResponseWriter, r *http.Request) {
	checksum, ok := checksumParam(w, r)
	if !ok {
		return
	}

	if data, ok := h.fromArchive(r.Context(), checksum); ok {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	h.relay(w, r, "raw", h.source.RawQuote)
}

func (h *Handler) fromArchive(ctx context.Context, checksum string) ([]byte, bool) {
	if h.archive == nil {
		return nil, false
	}
	id, err := interfaces.NewContentIDFromHex(checksum)
	if err != nil {
		return nil, false
	}

	data, err := h.archive.Fetch(ctx, id)
	switch {
	case errors.Is(err, interfaces.ErrContentNotFound):
		return nil, false
	case err != nil:
		h.log.Warn("Failed to read quote archive", "err", err, "checksum", checksum)
		return nil, false
	case !interfaces.ComputeID(data).Equal(id):
		h.log.Warn("Archived quote does not match its checksum", "checksum", checksum)
		return nil, false
	}
	return data, true
}

type fetchFunc func(ctx context.Context, checksum string) (*interfaces.UpstreamResponse, error)

func (h *Handler) relay(w http.ResponseWriter, r *http.Request, endpoint string, fetch fetchFunc) {
	checksum, ok := checksumParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := fetch(r.Context(), checksum)
	h.metrics.RecordUpstream(endpoint, start, err)
	if err != nil {
		h.log.Error("Failed to relay backend response", "err", err, "endpoint", endpoint, "checksum", checksum)
		api.WriteInternalError(w)
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func checksumParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	checksum := chi.URLParam(r, "checksum")
	if !validChecksum(checksum) {
		_ = api.WriteError(w, http.StatusBadRequest, MessageInvalidChecksum)
		return "", false
	}
	return checksum, true
}

func validChecksum(s string) bool {
	if len(s) == 0 || len(s) > maxChecksumLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}
