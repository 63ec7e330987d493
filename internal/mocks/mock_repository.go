package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of store.Repository
type MockRepository struct {
	mock.Mock
}

// Get mocks the Get method of store.Repository
func (m *MockRepository) Get(ctx context.Context, namespace, key string) (string, error) {
	args := m.Called(ctx, namespace, key)
	return args.String(0), args.Error(1)
}

// Set mocks the Set method of store.Repository
func (m *MockRepository) Set(ctx context.Context, namespace, key, value string) error {
	args := m.Called(ctx, namespace, key, value)
	return args.Error(0)
}

// Delete mocks the Delete method of store.Repository
func (m *MockRepository) Delete(ctx context.Context, namespace, key string) error {
	args := m.Called(ctx, namespace, key)
	return args.Error(0)
}

// DeleteNamespace mocks the DeleteNamespace method of store.Repository
func (m *MockRepository) DeleteNamespace(ctx context.Context, namespace string) error {
	args := m.Called(ctx, namespace)
	return args.Error(0)
}
