package queue

import (
	"context"

	"github.com/stretchr/testify/mock"
)

var _ Queue = (*MockQueue)(nil)

// MockQueue is a testify mock of Queue. Worker records only ctx and the task
// type since handlers cannot be compared.
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, task Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockQueue) Close() error {
	return m.Called().Error(0)
}

func (m *MockQueue) Worker(ctx context.Context, taskType TaskType, _ Handler) error {
	return m.Called(ctx, taskType).Error(0)
}
