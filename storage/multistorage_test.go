package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/ra-quote-explorer/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMultiArchive_Available(t *testing.T) {
	tests := []struct {
		name     string
		backends []bool
		expected bool
	}{
		{"all backends available", []bool{true, true}, true},
		{"some backends available", []bool{false, true}, true},
		{"no backends available", []bool{false, false}, false},
		{"no backends", []bool{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var backends []interfaces.QuoteArchive
			for _, available := range tt.backends {
				m := NewMockArchive("mock")
				m.On("Available").Return(available).Maybe()
				backends = append(backends, m)
			}

			multi := NewMultiArchive(backends, discardLogger())
			assert.Equal(t, tt.expected, multi.Available(context.Background()))
		})
	}
}

func TestMultiArchive_FetchFallsThrough(t *testing.T) {
	data := []byte("quote")
	id := interfaces.ComputeID(data)

	first := NewMockArchive("first")
	first.On("Fetch", id).Return(nil, interfaces.ErrContentNotFound)
	second := NewMockArchive("second")
	second.On("Fetch", id).Return(data, nil)

	multi := NewMultiArchive([]interfaces.QuoteArchive{first, second}, discardLogger())
	got, err := multi.Fetch(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestMultiArchive_FetchNotFound(t *testing.T) {
	id := interfaces.ComputeID([]byte("missing"))

	first := NewMockArchive("first")
	first.On("Fetch", id).Return(nil, interfaces.ErrContentNotFound)
	second := NewMockArchive("second")
	second.On("Fetch", id).Return(nil, interfaces.ErrContentNotFound)

	multi := NewMultiArchive([]interfaces.QuoteArchive{first, second}, discardLogger())
	_, err := multi.Fetch(context.Background(), id)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestMultiArchive_FetchBackendFailure(t *testing.T) {
	id := interfaces.ComputeID([]byte("quote"))
	boom := errors.New("connection refused")

	first := NewMockArchive("first")
	first.On("Fetch", id).Return(nil, boom)
	second := NewMockArchive("second")
	second.On("Fetch", id).Return(nil, interfaces.ErrContentNotFound)

	multi := NewMultiArchive([]interfaces.QuoteArchive{first, second}, discardLogger())
	_, err := multi.Fetch(context.Background(), id)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestMultiArchive_Store(t *testing.T) {
	data := []byte("quote")
	id := interfaces.ComputeID(data)

	t.Run("partial success", func(t *testing.T) {
		failing := NewMockArchive("failing")
		failing.On("Store", data).Return(id, errors.New("read-only"))
		working := NewMockArchive("working")
		working.On("Store", data).Return(id, nil)

		multi := NewMultiArchive([]interfaces.QuoteArchive{failing, working}, discardLogger())
		got, err := multi.Store(context.Background(), data)
		require.NoError(t, err)
		assert.Equal(t, id, got)
		failing.AssertExpectations(t)
		working.AssertExpectations(t)
	})

	t.Run("all fail", func(t *testing.T) {
		failing := NewMockArchive("failing")
		failing.On("Store", data).Return(id, interfaces.ErrBackendUnavailable)

		multi := NewMultiArchive([]interfaces.QuoteArchive{failing}, discardLogger())
		_, err := multi.Store(context.Background(), data)
		assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
	})
}

func TestMultiArchive_LocationURI(t *testing.T) {
	multi := NewMultiArchive([]interfaces.QuoteArchive{NewMockArchive("a"), NewMockArchive("b")}, discardLogger())
	assert.Equal(t, "mock://a,mock://b", multi.LocationURI())
	assert.Equal(t, "multi-archive", multi.Name())
}
