package models

import (
	"errors"
	"fmt"
)

var (
	// ErrTargetMalformed indicates the raw target string failed validation
	ErrTargetMalformed = errors.New("malformed target")

	// ErrTargetBlocked indicates the target is excluded by policy (localhost/private networks)
	ErrTargetBlocked = errors.New("target blocked by policy")

	// ErrProviderUnavailable indicates the analysis provider could not be reached
	ErrProviderUnavailable = errors.New("analysis provider unavailable")

	// ErrDeliveryFailed indicates a report dispatch was rejected or never arrived
	ErrDeliveryFailed = errors.New("report delivery failed")

	// ErrStoreUnavailable indicates the session store rejected a read or write
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrKeyNotFound indicates the session store has no value for a key
	ErrKeyNotFound = errors.New("key not found in store")

	// ErrCacheUnavailable indicates that the cache has no usable entry for a key
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrSessionNotMounted indicates a session operation arrived before Mount
	ErrSessionNotMounted = errors.New("no session mounted")

	// ErrRateLimitExceeded indicates that a rate limit has been exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// TargetError represents an error tied to a specific target
type TargetError struct {
	Target  string
	Message string
	Err     error
}

func (e *TargetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("target %s: %s: %v", e.Target, e.Message, e.Err)
	}
	return fmt.Sprintf("target %s: %s", e.Target, e.Message)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

// NewTargetError creates a new target-specific error
func NewTargetError(target, message string, err error) *TargetError {
	return &TargetError{
		Target:  target,
		Message: message,
		Err:     err,
	}
}
