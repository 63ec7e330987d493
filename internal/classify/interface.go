package classify

import "thirdeye/internal/models"

// Service defines the interface for target classification
// External packages should use this interface, not the concrete implementations
type Service interface {
	Classify(raw string) models.TargetClassification
}
