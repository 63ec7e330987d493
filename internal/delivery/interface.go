package delivery

import (
	"context"

	"thirdeye/internal/models"
)

// Service defines the interface for report delivery
// External packages should use this interface, not the concrete implementations
type Service interface {
	// Send dispatches one report payload and returns its reference ID.
	// Failed dispatches are surfaced to the operator and never retried
	// automatically.
	Send(ctx context.Context, req *models.ReportRequest, record *models.AnalysisRecord) (string, error)
}
