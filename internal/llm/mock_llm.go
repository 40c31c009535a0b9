package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client using testify/mock.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Answer(ctx context.Context, messages []Message, contextText string) (string, error) {
	args := m.Called(ctx, messages, contextText)
	return args.String(0), args.Error(1)
}
