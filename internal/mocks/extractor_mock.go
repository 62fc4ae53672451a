package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockExtractor is a mock implementation of chat.Extractor
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func (m *MockExtractor) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}
