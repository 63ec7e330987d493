package store

import "context"

// Repository is a namespaced string key-value store. The ghost session
// synchronizer exclusively owns its namespaces; no other component may
// touch those keys.
// External packages should use this interface, not the concrete implementations
type Repository interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
	DeleteNamespace(ctx context.Context, namespace string) error
}
