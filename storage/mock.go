package storage

import (
	"context"

	"github.com/ruteri/ra-quote-explorer/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockArchive implements interfaces.QuoteArchive for testing.
type MockArchive struct {
	mock.Mock
	name string
}

func NewMockArchive(name string) *MockArchive {
	return &MockArchive{name: name}
}

func (m *MockArchive) Fetch(ctx context.Context, id interfaces.ContentID) ([]byte, error) {
	args := m.Called(id)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockArchive) Store(ctx context.Context, data []byte) (interfaces.ContentID, error) {
	args := m.Called(data)
	id, _ := args.Get(0).(interfaces.ContentID)
	return id, args.Error(1)
}

func (m *MockArchive) Available(ctx context.Context) bool {
	return m.Called().Bool(0)
}

func (m *MockArchive) Name() string {
	return m.name
}

func (m *MockArchive) LocationURI() string {
	return "mock://" + m.name
}
