package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"thirdeye/internal/models"

	"github.com/google/uuid"
)

// HTTPDelivery implements Service against a form-relay endpoint that
// accepts a flat JSON key-value payload
type HTTPDelivery struct {
	client    *http.Client
	endpoint  string
	accessKey string
	minDelay  time.Duration
}

// deliveryResponse is the relay's acknowledgement shape
type deliveryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewHTTPDelivery creates a new HTTP-based report delivery client.
// minDelay enforces a floor on dispatch duration for perceived pacing.
func NewHTTPDelivery(endpoint, accessKey string, timeout, minDelay time.Duration) Service {
	return &HTTPDelivery{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint:  endpoint,
		accessKey: accessKey,
		minDelay:  minDelay,
	}
}

// Send dispatches one report and returns its reference ID
func (d *HTTPDelivery) Send(ctx context.Context, req *models.ReportRequest, record *models.AnalysisRecord) (string, error) {
	referenceID := newReferenceID()
	payload := d.buildPayload(referenceID, req, record)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := d.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	var ack deliveryResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("%w: unreadable acknowledgement: %v", models.ErrDeliveryFailed, err)
	}

	if err := d.holdMinimumDelay(ctx, time.Since(start)); err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK || !ack.Success {
		msg := ack.Message
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %s", models.ErrDeliveryFailed, msg)
	}

	return referenceID, nil
}

// buildPayload flattens the record plus operator metadata into the
// key-value shape the relay forwards verbatim
func (d *HTTPDelivery) buildPayload(referenceID string, req *models.ReportRequest, record *models.AnalysisRecord) map[string]interface{} {
	target := req.Target
	status := "UNKNOWN"
	securityScore := "N/A"
	aiScore := "N/A"
	techStack := "N/A"
	reportType := string(models.ModeSummary)

	if record != nil {
		if target == "" {
			target = record.Target
		}
		status = string(record.Status)
		securityScore = fmt.Sprintf("%d/100", record.SecurityScore)
		aiScore = fmt.Sprintf("%d%%", record.AIContentScore)
		techStack = fmt.Sprintf("%s / %s", record.Frontend, record.Backend)
		reportType = string(record.Mode)
	}

	notes := req.Notes
	if notes == "" {
		notes = "N/A"
	}

	return map[string]interface{}{
		"access_key": d.accessKey,
		"subject":    fmt.Sprintf("THIRD EYE: Forensic Report Dispatch - %s", stripScheme(target)),
		"from_name":  "Third Eye System",

		"name":  req.Name,
		"email": req.Email,

		"Target URL":             target,
		"User Role":              req.Role,
		"User Notes":             notes,
		"Analysis Status":        status,
		"Security Risk Score":    securityScore,
		"AI Content Probability": aiScore,
		"Tech Stack":             techStack,
		"Report Type":            reportType,
		"Reference ID":           referenceID,
		"Timestamp":              time.Now().UTC().Format(time.RFC3339),
	}
}

// holdMinimumDelay sleeps out the remainder of the dispatch floor
func (d *HTTPDelivery) holdMinimumDelay(ctx context.Context, elapsed time.Duration) error {
	remaining := d.minDelay - elapsed
	if remaining <= 0 {
		return nil
	}
	select {
	case <-time.After(remaining):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func stripScheme(target string) string {
	target = strings.TrimPrefix(target, "https://")
	return strings.TrimPrefix(target, "http://")
}

func newReferenceID() string {
	return "TE-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:9])
}
