package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/ra-quote-explorer/interfaces"
)

// MultiArchive writes quotes to every available backend and reads from the
// first backend that has them.
type MultiArchive struct {
	backends []interfaces.QuoteArchive
	log      *slog.Logger
}

func NewMultiArchive(backends []interfaces.QuoteArchive, log *slog.Logger) *MultiArchive {
	if log == nil {
		log = slog.Default()
	}
	return &MultiArchive{
		backends: backends,
		log:      log,
	}
}

// Fetch returns ErrContentNotFound only when every backend that answered
// reported the quote missing.
func (m *MultiArchive) Fetch(ctx context.Context, id interfaces.ContentID) ([]byte, error) {
	var errs []error
	for _, backend := range m.backends {
		data, err := backend.Fetch(ctx, id)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, interfaces.ErrContentNotFound) {
			m.log.Debug("Failed to fetch from backend", "backend", backend.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		}
	}

	if len(errs) == 0 {
		return nil, interfaces.ErrContentNotFound
	}
	return nil, fmt.Errorf("all backends failed to fetch %s: %w", id.String(), errors.Join(errs...))
}

// Store succeeds if at least one backend stored the quote.
func (m *MultiArchive) Store(ctx context.Context, data []byte) (interfaces.ContentID, error) {
	id := interfaces.ComputeID(data)

	var errs []error
	stored := 0
	for _, backend := range m.backends {
		if _, err := backend.Store(ctx, data); err != nil {
			m.log.Debug("Failed to store to backend", "backend", backend.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			continue
		}
		stored++
	}

	if stored == 0 {
		return id, fmt.Errorf("all backends failed to store quote: %w", errors.Join(errs...))
	}
	return id, nil
}

func (m *MultiArchive) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiArchive) Name() string {
	return "multi-archive"
}

func (m *MultiArchive) LocationURI() string {
	locations := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}
	return strings.Join(locations, ",")
}
