package mocks

import (
	"context"

	"github.com/omriShneor/planit/internal/chat"
	"github.com/stretchr/testify/mock"
)

// MockMaterializer is a mock implementation of chat.Materializer
type MockMaterializer struct {
	mock.Mock
}

func (m *MockMaterializer) CreateEvent(ctx context.Context, in chat.EventInput) (*chat.PersistedEvent, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.PersistedEvent), args.Error(1)
}
