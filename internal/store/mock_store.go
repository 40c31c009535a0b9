package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"paper-rag/internal/chunker"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) CreatePaper(ctx context.Context, p Paper) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockStore) InsertChunks(ctx context.Context, docTitle string, chunks []chunker.Chunk) ([]InsertFailure, error) {
	args := m.Called(ctx, docTitle, chunks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]InsertFailure), args.Error(1)
}

func (m *MockStore) GetObject(ctx context.Context, collection, id string) (map[string]any, error) {
	args := m.Called(ctx, collection, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockStore) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Hit), args.Error(1)
}

func (m *MockStore) Collections() Collections {
	args := m.Called()
	return args.Get(0).(Collections)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
