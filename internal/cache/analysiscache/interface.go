package analysiscache

import (
	"context"

	"thirdeye/internal/models"
)

// Fetcher produces a raw provider result for one (target, mode) pair.
// It is invoked at most once per key for the process lifetime.
type Fetcher func(ctx context.Context, target string, mode models.Mode) (*models.RawProviderResult, error)

// Service defines the interface for memoized analysis retrieval.
// GetOrFetch never fails: provider errors are downgraded to FAILED records.
// External packages should use this interface, not the concrete implementations
type Service interface {
	GetOrFetch(ctx context.Context, target string, mode models.Mode, fetch Fetcher) *models.AnalysisRecord
}
