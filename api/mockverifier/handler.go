package mockverifier

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	tdx_abi "github.com/google/go-tdx-guest/abi"
	tdx_pb "github.com/google/go-tdx-guest/proto/tdx"
	"github.com/google/go-tdx-guest/verify"
	"github.com/ruteri/ra-quote-explorer/api"
	"github.com/ruteri/ra-quote-explorer/interfaces"
)

// maxQuoteSize bounds accepted uploads. Real TDX quotes are a few KiB.
const maxQuoteSize = 1 << 20

type record struct {
	quote  []byte
	result map[string]any
}

// Handler imitates the verification backend for local development. Quotes
// are decoded with go-tdx-guest and, if requested, verified against Intel
// collateral. Results are kept in memory by checksum.
type Handler struct {
	verifyCollateral bool
	log              *slog.Logger

	mu      sync.RWMutex
	records map[string]record
}

func NewHandler(verifyCollateral bool, log *slog.Logger) *Handler {
	return &Handler{
		verifyCollateral: verifyCollateral,
		log:              log,
		records:          make(map[string]record),
	}
}

// RegisterRoutes registers:
//   - POST /api/attestations/verify
//   - GET /api/attestations/view/{checksum}
//   - GET /api/collateral/{checksum}
//   - GET /raw/{checksum}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/attestations/verify", h.HandleVerify)
	r.Get("/api/attestations/view/{checksum}", h.HandleView)
	r.Get("/api/collateral/{checksum}", h.HandleCollateral)
	r.Get("/raw/{checksum}", h.HandleRaw)
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQuoteSize+64*1024)
	f, _, err := r.FormFile("file")
	if err != nil {
		_ = api.WriteError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer f.Close()

	quote, err := io.ReadAll(f)
	if err != nil {
		_ = api.WriteError(w, http.StatusBadRequest, "could not read file")
		return
	}

	checksum := interfaces.ComputeID(quote).String()
	result := h.evaluate(quote)
	result["checksum"] = checksum

	h.mu.Lock()
	h.records[checksum] = record{quote: quote, result: result}
	h.mu.Unlock()

	h.log.Info("Verified quote", "checksum", checksum, "success", result["success"])
	_ = api.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) evaluate(quote []byte) map[string]any {
	parsed, err := tdx_abi.QuoteToProto(quote)
	if err != nil {
		return map[string]any{"success": false, "error": fmt.Sprintf("could not parse quote: %v", err)}
	}

	v4, ok := parsed.(*tdx_pb.QuoteV4)
	if !ok {
		return map[string]any{"success": false, "error": fmt.Sprintf("unsupported quote type: %T", parsed)}
	}

	result := map[string]any{
		"success": true,
		"quote":   describeQuote(v4),
	}

	if h.verifyCollateral {
		options := verify.DefaultOptions()
		options.GetCollateral = true
		if err := verify.TdxQuote(v4, options); err != nil {
			result["success"] = false
			result["error"] = fmt.Sprintf("quote verification failed: %v", err)
		}
	}

	return result
}

func describeQuote(q *tdx_pb.QuoteV4) map[string]any {
	header := q.GetHeader()
	body := q.GetTdQuoteBody()

	rtmrs := make([]string, 0, len(body.GetRtmrs()))
	for _, rtmr := range body.GetRtmrs() {
		rtmrs = append(rtmrs, hex.EncodeToString(rtmr))
	}

	return map[string]any{
		"header": map[string]any{
			"version":      header.GetVersion(),
			"tee_type":     fmt.Sprintf("0x%08x", header.GetTeeType()),
			"qe_vendor_id": hex.EncodeToString(header.GetQeVendorId()),
		},
		"body": map[string]any{
			"mr_td":           hex.EncodeToString(body.GetMrTd()),
			"rtmrs":           rtmrs,
			"mr_config_id":    hex.EncodeToString(body.GetMrConfigId()),
			"mr_owner":        hex.EncodeToString(body.GetMrOwner()),
			"mr_owner_config": hex.EncodeToString(body.GetMrOwnerConfig()),
			"report_data":     hex.EncodeToString(body.GetReportData()),
		},
	}
}

var errUnknownChecksum = errors.New("unknown checksum")

func (h *Handler) lookup(r *http.Request) (record, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rec, ok := h.records[chi.URLParam(r, "checksum")]
	if !ok {
		return record{}, errUnknownChecksum
	}
	return rec, nil
}

func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	rec, err := h.lookup(r)
	if err != nil {
		_ = api.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	_ = api.WriteJSON(w, http.StatusOK, rec.result)
}

// HandleCollateral answers with an empty collateral set. The mock never
// fetches PCS data on behalf of clients.
func (h *Handler) HandleCollateral(w http.ResponseWriter, r *http.Request) {
	rec, err := h.lookup(r)
	if err != nil {
		_ = api.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	_ = api.WriteJSON(w, http.StatusOK, map[string]any{
		"checksum":   rec.result["checksum"],
		"collateral": nil,
	})
}

func (h *Handler) HandleRaw(w http.ResponseWriter, r *http.Request) {
	rec, err := h.lookup(r)
	if err != nil {
		_ = api.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rec.quote)
}
