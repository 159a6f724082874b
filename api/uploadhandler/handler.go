package uploadhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/ra-quote-explorer/admission"
	"github.com/ruteri/ra-quote-explorer/api"
	"github.com/ruteri/ra-quote-explorer/interfaces"
	"github.com/ruteri/ra-quote-explorer/metrics"
	"github.com/ruteri/ra-quote-explorer/upload"
)

// DefaultReportBaseURL prefixes the checksum in the url field of a
// successful verification.
const DefaultReportBaseURL = "https://proof.t16z.com/reports"

type Config struct {
	MaxFileSize   int
	AcceptHex     bool
	ReportBaseURL string
}

func DefaultConfig() Config {
	return Config{
		MaxFileSize:   upload.DefaultMaxFileSize,
		AcceptHex:     true,
		ReportBaseURL: DefaultReportBaseURL,
	}
}

// Handler serves quote submissions. Every submission passes the admission
// gate before its body is read, and only admitted, valid quotes reach the
// verification backend.
type Handler struct {
	gate     *admission.Gate
	verifier interfaces.Verifier
	archive  interfaces.QuoteArchive
	metrics  *metrics.Metrics
	cfg      Config
	log      *slog.Logger
}

// NewHandler creates an upload handler. archive and m may be nil.
func NewHandler(gate *admission.Gate, verifier interfaces.Verifier, archive interfaces.QuoteArchive, m *metrics.Metrics, cfg Config, log *slog.Logger) *Handler {
	cfg.ReportBaseURL = strings.TrimSuffix(cfg.ReportBaseURL, "/")
	return &Handler{
		gate:     gate,
		verifier: verifier,
		archive:  archive,
		metrics:  m,
		cfg:      cfg,
		log:      log,
	}
}

// RegisterRoutes registers:
//   - POST /api/upload - Submit a quote for verification
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/upload", h.HandleUpload)
}

// HandleUpload accepts a multipart form with either a "file" or a "hex"
// field, forwards the decoded quote to the verification backend and relays
// its JSON answer with an added report url.
//
// Status codes:
//   - 200 OK: Verification result
//   - 400 Bad Request: Missing or invalid payload
//   - 403 Forbidden: Client blocked after repeated validation errors
//   - 429 Too Many Requests: Request window exhausted
//   - 500 Internal Server Error: Ledger, backend or encoding failure
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client := admission.ClientIdentityFromHeaders(r.Header)
	log := h.log.With("client", client.String())

	decision, err := h.gate.Admit(ctx, client)
	if err != nil {
		log.Error("Admission check failed", "err", err)
		api.WriteInternalError(w)
		return
	}
	h.metrics.RecordAdmission(decision.Outcome.String())

	switch decision.Outcome {
	case admission.OutcomeBlocked:
		log.Debug("Rejecting blocked client", "until", decision.BlockedUntil)
		_ = api.WriteError(w, http.StatusForbidden, api.MessageBlocked)
		return
	case admission.OutcomeRateLimited:
		log.Debug("Rejecting rate limited client", "count", decision.RateLimit.Count)
		setRateLimitHeaders(w, decision.RateLimit)
		w.Header().Set(api.HeaderRetryAfter, strconv.Itoa(decision.RateLimit.ResetSeconds()))
		_ = api.WriteError(w, http.StatusTooManyRequests, api.MessageRateLimited)
		return
	}

	in, err := upload.ParseRequest(w, r, h.cfg.MaxFileSize, h.cfg.AcceptHex)
	if err == nil {
		err = upload.Validate(in, h.cfg.MaxFileSize)
	}

	var validationErr *upload.ValidationError
	switch {
	case errors.Is(err, upload.ErrMissingPayload):
		if _, err := h.recordError(ctx, client); err != nil {
			log.Error("Failed to record validation error", "err", err)
			api.WriteInternalError(w)
			return
		}
		log.Debug("Rejecting submission without payload")
		setRateLimitHeaders(w, decision.RateLimit)
		_ = api.WriteError(w, http.StatusBadRequest, api.MessageMissingPayload)
		return
	case errors.As(err, &validationErr):
		tally, err := h.recordError(ctx, client)
		if err != nil {
			log.Error("Failed to record validation error", "err", err)
			api.WriteInternalError(w)
			return
		}
		log.Debug("Rejecting invalid submission", "reason", validationErr.Message, "remainingAttempts", tally.RemainingAttempts)
		setRateLimitHeaders(w, decision.RateLimit)
		_ = api.WriteJSON(w, http.StatusBadRequest, api.ValidationErrorResponse{
			Error:             validationErr.Message,
			RemainingAttempts: tally.RemainingAttempts,
		})
		return
	case err != nil:
		log.Error("Failed to read submission", "err", err)
		api.WriteInternalError(w)
		return
	}

	quote, err := in.Canonical()
	if err != nil {
		log.Error("Failed to decode submission", "err", err, "kind", in.Kind.String())
		api.WriteInternalError(w)
		return
	}

	// Forwarding runs to completion even if the client goes away.
	forwardCtx := context.WithoutCancel(ctx)

	start := time.Now()
	result, err := h.verifier.Verify(forwardCtx, quote)
	h.metrics.RecordUpstream("verify", start, err)
	if err != nil {
		log.Error("Verification request failed", "err", err)
		api.WriteInternalError(w)
		return
	}

	if checksum := result.Checksum(); checksum != "" {
		result["url"] = h.cfg.ReportBaseURL + "/" + checksum
	}

	h.archiveQuote(forwardCtx, log, quote)

	setRateLimitHeaders(w, decision.RateLimit)
	if err := api.WriteJSON(w, http.StatusOK, result); err != nil {
		log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) recordError(ctx context.Context, client admission.ClientIdentity) (admission.ErrorTally, error) {
	tally, err := h.gate.RecordError(ctx, client)
	if err != nil {
		return tally, err
	}
	h.metrics.RecordValidationError(tally.Blocked)
	return tally, nil
}

// archiveQuote stores an admitted quote. Failures never fail the request.
func (h *Handler) archiveQuote(ctx context.Context, log *slog.Logger, quote []byte) {
	if h.archive == nil {
		return
	}
	id, err := h.archive.Store(ctx, quote)
	h.metrics.RecordArchiveWrite(err)
	if err != nil {
		log.Warn("Failed to archive quote", "err", err, "backend", h.archive.Name())
		return
	}
	log.Debug("Archived quote", "id", id.String(), "backend", h.archive.Name())
}

func setRateLimitHeaders(w http.ResponseWriter, rl admission.RateLimit) {
	w.Header().Set(api.HeaderRateLimitLimit, strconv.Itoa(rl.Limit))
	w.Header().Set(api.HeaderRateLimitRemaining, strconv.Itoa(rl.Remaining))
	w.Header().Set(api.HeaderRateLimitReset, strconv.Itoa(rl.ResetSeconds()))
}
