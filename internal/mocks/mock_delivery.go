package mocks

import (
	"context"

	"thirdeye/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockDelivery is a mock implementation of delivery.Service
type MockDelivery struct {
	mock.Mock
}

// Send mocks the Send method of delivery.Service
func (m *MockDelivery) Send(ctx context.Context, req *models.ReportRequest, record *models.AnalysisRecord) (string, error) {
	args := m.Called(ctx, req, record)
	return args.String(0), args.Error(1)
}
