package mocks

import (
	"context"

	"thirdeye/internal/cache/analysiscache"
	"thirdeye/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockAnalysisCache is a mock implementation of analysiscache.Service
type MockAnalysisCache struct {
	mock.Mock
}

// GetOrFetch mocks the GetOrFetch method of analysiscache.Service
func (m *MockAnalysisCache) GetOrFetch(ctx context.Context, target string, mode models.Mode, fetch analysiscache.Fetcher) *models.AnalysisRecord {
	args := m.Called(ctx, target, mode, fetch)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.AnalysisRecord)
}
