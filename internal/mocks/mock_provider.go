package mocks

import (
	"context"

	"thirdeye/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of provider.Service
type MockProvider struct {
	mock.Mock
}

// Analyze mocks the Analyze method of provider.Service
func (m *MockProvider) Analyze(ctx context.Context, target string, mode models.Mode) (*models.RawProviderResult, error) {
	args := m.Called(ctx, target, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RawProviderResult), args.Error(1)
}

// Chat mocks the Chat method of provider.Service
func (m *MockProvider) Chat(ctx context.Context, history []models.ChatMessage, input, target string) (string, error) {
	args := m.Called(ctx, history, input, target)
	return args.String(0), args.Error(1)
}
