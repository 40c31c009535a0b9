package rag

import (
	"context"

	"github.com/stretchr/testify/mock"

	"paper-rag/internal/llm"
)

// MockAnswerer is a mock implementation of Answerer using testify/mock.
type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, messages []llm.Message) (Response, error) {
	args := m.Called(ctx, messages)
	return args.Get(0).(Response), args.Error(1)
}
