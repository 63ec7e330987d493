package provider

import (
	"context"

	"thirdeye/internal/models"
)

// Service defines the interface for the external analysis provider
// External packages should use this interface, not the concrete implementations
type Service interface {
	// Analyze produces a loosely-typed assessment for one (target, mode)
	// pair. Callers must not assume any field of the result is present.
	Analyze(ctx context.Context, target string, mode models.Mode) (*models.RawProviderResult, error)

	// Chat answers one architect-conversation turn in plain text
	Chat(ctx context.Context, history []models.ChatMessage, input, target string) (string, error)
}
