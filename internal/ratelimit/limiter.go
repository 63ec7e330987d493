package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity   int64
	tokens     int64
	refillRate int64 // tokens per second
	lastRefill time.Time
	mutex      sync.Mutex
}

// NewTokenBucket creates a new token bucket with the specified capacity and refill rate
func NewTokenBucket(capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity, // Start with full bucket
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a token is available and consumes it if so
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// refund returns a consumed token, used when a later check rejects the request
func (tb *TokenBucket) refund() {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	if tb.tokens < tb.capacity {
		tb.tokens++
	}
}

// refill adds tokens based on time elapsed since last refill
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	tokensToAdd := int64(elapsed * float64(tb.refillRate))
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}
}

// TwoTierRateLimiter implements both global and per-IP rate limiting.
// The global tier protects the shared analysis-provider quota; the per-IP
// tier keeps one client from exhausting it.
type TwoTierRateLimiter struct {
	globalBucket  *TokenBucket
	ipBuckets     sync.Map // map[string]*TokenBucket
	perIPCapacity int64
	perIPRate     int64
}

// NewTwoTierRateLimiter creates a new two-tier rate limiter
func NewTwoTierRateLimiter(globalCapacity, globalRate, perIPCapacity, perIPRate int64) *TwoTierRateLimiter {
	return &TwoTierRateLimiter{
		globalBucket:  NewTokenBucket(globalCapacity, globalRate),
		perIPCapacity: perIPCapacity,
		perIPRate:     perIPRate,
	}
}

// Allow checks both global and per-IP rate limits
func (trl *TwoTierRateLimiter) Allow(clientIP string) bool {
	if !trl.globalBucket.Allow() {
		return false
	}

	ipBucket := trl.getOrCreateIPBucket(clientIP)
	if !ipBucket.Allow() {
		// The global token was consumed but the request cannot proceed
		trl.globalBucket.refund()
		return false
	}

	return true
}

// getOrCreateIPBucket gets or creates a token bucket for the given IP
func (trl *TwoTierRateLimiter) getOrCreateIPBucket(clientIP string) *TokenBucket {
	if bucket, ok := trl.ipBuckets.Load(clientIP); ok {
		return bucket.(*TokenBucket)
	}

	newBucket := NewTokenBucket(trl.perIPCapacity, trl.perIPRate)
	actual, _ := trl.ipBuckets.LoadOrStore(clientIP, newBucket)
	return actual.(*TokenBucket)
}
