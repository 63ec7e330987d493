package mocks

import (
	"context"

	"thirdeye/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockLogger is a mock implementation of logger.Service
type MockLogger struct {
	mock.Mock
}

// LogInfo mocks the LogInfo method of logger.Service
func (m *MockLogger) LogInfo(ctx context.Context, operation, message string, metadata map[string]interface{}) {
	m.Called(ctx, operation, message, metadata)
}

// LogSuccess mocks the LogSuccess method of logger.Service
func (m *MockLogger) LogSuccess(ctx context.Context, operation, targetName, message string, metadata map[string]interface{}) {
	m.Called(ctx, operation, targetName, message, metadata)
}

// LogError mocks the LogError method of logger.Service
func (m *MockLogger) LogError(ctx context.Context, operation, targetName, message string, err error, severity models.LogSeverity, metadata map[string]interface{}) {
	m.Called(ctx, operation, targetName, message, err, severity, metadata)
}

// Close mocks the Close method of logger.Service
func (m *MockLogger) Close() error {
	args := m.Called()
	return args.Error(0)
}

// NoopLogger is a logger.Service that discards everything. Tests that
// do not assert on logging use it instead of wiring mock expectations.
type NoopLogger struct{}

func (NoopLogger) LogInfo(ctx context.Context, operation, message string, metadata map[string]interface{}) {
}

func (NoopLogger) LogSuccess(ctx context.Context, operation, targetName, message string, metadata map[string]interface{}) {
}

func (NoopLogger) LogError(ctx context.Context, operation, targetName, message string, err error, severity models.LogSeverity, metadata map[string]interface{}) {
}

func (NoopLogger) Close() error { return nil }
