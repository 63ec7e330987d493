package analysiscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"thirdeye/internal/cache"
	"thirdeye/internal/logger"
	"thirdeye/internal/models"

	"golang.org/x/sync/singleflight"
)

// analysisCache implements Service on top of a generic cache backend.
// Records are stored without expiry: the key space is operator-driven and
// small, so the map is allowed to grow for the process lifetime.
type analysisCache struct {
	cache   cache.Service
	logger  logger.Service
	timeout time.Duration
	group   singleflight.Group
}

// New creates a new analysis cache. A positive timeout bounds each
// provider call; expiry resolves into the FAILED record path.
func New(backing cache.Service, loggerService logger.Service, timeout time.Duration) Service {
	return &analysisCache{
		cache:   backing,
		logger:  loggerService,
		timeout: timeout,
	}
}

// GetOrFetch returns the stored record for (target, mode), fetching it on
// first request. Concurrent requests for the same key share one in-flight
// fetch; the fetcher is never invoked twice for a key.
func (a *analysisCache) GetOrFetch(ctx context.Context, target string, mode models.Mode, fetch Fetcher) *models.AnalysisRecord {
	key := cacheKey(target, mode)

	// singleflight collapses concurrent callers onto one execution per
	// key; the cache lookup inside covers sequential callers.
	result, _, _ := a.group.Do(key, func() (interface{}, error) {
		if record, err := a.lookup(ctx, key); err == nil {
			a.logger.LogSuccess(ctx, logger.OpCacheHit, target, "Retrieved analysis from cache", map[string]interface{}{
				"mode": string(mode),
			})
			return record, nil
		}

		a.logger.LogInfo(ctx, logger.OpCacheMiss, fmt.Sprintf("Cache miss for target: %s", target), map[string]interface{}{
			"target": target,
			"mode":   string(mode),
		})

		// The fetch outlives the first caller: a client disconnect must not
		// cancel the shared execution and pin a FAILED record for the key.
		// The per-call timeout inside fetchRecord still bounds the provider.
		fetchCtx := context.WithoutCancel(ctx)
		record := a.fetchRecord(fetchCtx, target, mode, fetch)

		if err := a.cache.Set(fetchCtx, key, record, 0); err != nil {
			a.logger.LogError(ctx, logger.OpCacheSet, target, "Failed to cache analysis record", err, models.LogSeverityLow, nil)
			// The caller still gets the record even if caching fails
		}

		return record, nil
	})

	return result.(*models.AnalysisRecord)
}

// fetchRecord runs the fetcher and coerces its output into a canonical
// record. All failure paths yield a well-formed FAILED record.
func (a *analysisCache) fetchRecord(ctx context.Context, target string, mode models.Mode, fetch Fetcher) *models.AnalysisRecord {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := fetch(ctx, target, mode)
	if err != nil {
		a.logger.LogError(ctx, logger.OpProviderCall, target, "Analysis provider call failed", err, models.LogSeverityMedium, map[string]interface{}{
			"mode":        string(mode),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return models.NewFailedAnalysisRecord(target, mode,
			"Remote host terminated connection or analysis timed out.", models.StatusFailed)
	}

	a.logger.LogSuccess(ctx, logger.OpProviderCall, target, "Analysis provider call completed", map[string]interface{}{
		"mode":        string(mode),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return models.NewAnalysisRecord(target, mode, raw)
}

// lookup reads a record back from the cache backend, handling both the
// in-memory backend (typed values) and Redis (JSON strings).
func (a *analysisCache) lookup(ctx context.Context, key string) (*models.AnalysisRecord, error) {
	value, err := a.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case *models.AnalysisRecord:
		return v, nil
	case models.AnalysisRecord:
		return &v, nil
	case string:
		var record models.AnalysisRecord
		if err := json.Unmarshal([]byte(v), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached analysis record: %w", err)
		}
		return &record, nil
	default:
		return nil, fmt.Errorf("unexpected type in cache: %T", v)
	}
}

func cacheKey(target string, mode models.Mode) string {
	return fmt.Sprintf("analysis:%s|%s", target, mode)
}
