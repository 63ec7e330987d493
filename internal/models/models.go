package models

import (
	"strings"
	"time"
)

// Mode selects the depth of an analysis run
type Mode string

const (
	ModeSummary  Mode = "SUMMARY"
	ModeDeepDive Mode = "DEEP_DIVE"
)

// ParseMode converts a user-supplied mode string to a Mode, defaulting to SUMMARY
func ParseMode(s string) Mode {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEEP_DIVE", "DEEPDIVE", "DEEP":
		return ModeDeepDive
	default:
		return ModeSummary
	}
}

// AnalysisStatus represents the outcome reported by the analysis provider
type AnalysisStatus string

const (
	StatusSuccess     AnalysisStatus = "SUCCESS"
	StatusUnreachable AnalysisStatus = "UNREACHABLE"
	StatusFailed      AnalysisStatus = "FAILED"
)

// TargetCategory classifies a raw target string before any provider call
type TargetCategory string

const (
	CategoryValid            TargetCategory = "VALID"
	CategoryMalformed        TargetCategory = "MALFORMED"
	CategoryLocalhostPrivate TargetCategory = "LOCALHOST_PRIVATE"
	CategoryShortURL         TargetCategory = "SHORT_URL"
	CategoryIPAddress        TargetCategory = "IP_ADDRESS"
	CategorySuspicious       TargetCategory = "SUSPICIOUS"
)

// TargetClassification is the result of validating one raw target string.
// It is constructed fresh on every validation call and never stored.
type TargetClassification struct {
	IsValid     bool           `json:"is_valid"`
	Category    TargetCategory `json:"category"`
	CleanTarget string         `json:"clean_target"`
	Message     string         `json:"message,omitempty"`
}

// RawProviderResult is the loosely-typed wire shape returned by the
// analysis provider. No field is guaranteed to be present; the
// AnalysisRecord constructor coerces it into the canonical form.
type RawProviderResult struct {
	Status            string   `json:"status"`
	ErrorSummary      string   `json:"error_summary"`
	Backend           string   `json:"backend"`
	Frontend          string   `json:"frontend"`
	Database          string   `json:"database"`
	IsEcommerce       bool     `json:"is_ecommerce"`
	EcommercePlatform string   `json:"ecommerce_platform"`
	CheckoutStrategy  string   `json:"checkout_strategy"`
	AIContentScore    int      `json:"ai_content_score"`
	AIContentAnalysis string   `json:"ai_content_analysis"`
	Fonts             []string `json:"fonts"`
	Colors            []string `json:"colors"`
	RedFlags          []string `json:"red_flags"`
	Improvements      []string `json:"improvements"`
	SecurityScore     int      `json:"security_score"`
	SEOScore          int      `json:"seo_score"`
	SEOIssues         []string `json:"seo_issues"`
}

// AnalysisRecord is the canonical assessment for one (target, mode) pair.
// Records are immutable after construction.
type AnalysisRecord struct {
	Target            string         `json:"target"`
	Mode              Mode           `json:"mode"`
	Status            AnalysisStatus `json:"status"`
	ErrorSummary      string         `json:"error_summary,omitempty"`
	Backend           string         `json:"backend"`
	Frontend          string         `json:"frontend"`
	Database          string         `json:"database"`
	IsEcommerce       bool           `json:"is_ecommerce"`
	EcommercePlatform string         `json:"ecommerce_platform"`
	CheckoutStrategy  string         `json:"checkout_strategy"`
	AIContentScore    int            `json:"ai_content_score"`
	AIContentAnalysis string         `json:"ai_content_analysis"`
	Fonts             []string       `json:"fonts"`
	Colors            []string       `json:"colors"`
	RedFlags          []string       `json:"red_flags"`
	Improvements      []string       `json:"improvements"`
	SecurityScore     int            `json:"security_score"`
	SEOScore          int            `json:"seo_score"`
	SEOIssues         []string       `json:"seo_issues"`
	Timestamp         time.Time      `json:"timestamp"`
}

const unknownField = "Unknown"

// NewAnalysisRecord coerces a raw provider result into a canonical record.
// Missing scalar fields get safe defaults, scores are clamped to [0, 100],
// and every free-text field is stripped of structural markup so the record
// invariants hold regardless of provider behavior.
func NewAnalysisRecord(target string, mode Mode, raw *RawProviderResult) *AnalysisRecord {
	if raw == nil {
		raw = &RawProviderResult{}
	}

	status := AnalysisStatus(strings.ToUpper(strings.TrimSpace(raw.Status)))
	switch status {
	case StatusSuccess, StatusUnreachable, StatusFailed:
	default:
		status = StatusSuccess
	}

	if status != StatusSuccess {
		summary := StripMarkup(raw.ErrorSummary)
		if summary == "" {
			summary = "Target could not be assessed."
		}
		return NewFailedAnalysisRecord(target, mode, summary, status)
	}

	return &AnalysisRecord{
		Target:            target,
		Mode:              mode,
		Status:            status,
		Backend:           textOrUnknown(raw.Backend),
		Frontend:          textOrUnknown(raw.Frontend),
		Database:          textOrUnknown(raw.Database),
		IsEcommerce:       raw.IsEcommerce,
		EcommercePlatform: textOrUnknown(raw.EcommercePlatform),
		CheckoutStrategy:  textOrUnknown(raw.CheckoutStrategy),
		AIContentScore:    clampScore(raw.AIContentScore),
		AIContentAnalysis: textOrUnknown(raw.AIContentAnalysis),
		Fonts:             stripAll(raw.Fonts),
		Colors:            stripAll(raw.Colors),
		RedFlags:          stripAll(raw.RedFlags),
		Improvements:      stripAll(raw.Improvements),
		SecurityScore:     clampScore(raw.SecurityScore),
		SEOScore:          clampScore(raw.SEOScore),
		SEOIssues:         stripAll(raw.SEOIssues),
		Timestamp:         time.Now().UTC(),
	}
}

// NewFailedAnalysisRecord builds a record for a target that could not be
// assessed. All scalar and collection fields carry safe defaults and the
// error summary is guaranteed non-empty.
func NewFailedAnalysisRecord(target string, mode Mode, summary string, status AnalysisStatus) *AnalysisRecord {
	if status != StatusUnreachable {
		status = StatusFailed
	}
	summary = StripMarkup(summary)
	if summary == "" {
		summary = "Remote host terminated connection or analysis timed out."
	}

	return &AnalysisRecord{
		Target:            target,
		Mode:              mode,
		Status:            status,
		ErrorSummary:      summary,
		Backend:           unknownField,
		Frontend:          unknownField,
		Database:          unknownField,
		EcommercePlatform: unknownField,
		CheckoutStrategy:  unknownField,
		AIContentAnalysis: "Analysis failed.",
		Fonts:             []string{},
		Colors:            []string{},
		RedFlags:          []string{},
		Improvements:      []string{},
		SEOIssues:         []string{},
		Timestamp:         time.Now().UTC(),
	}
}

// StripMarkup removes structural markup characters the provider sometimes
// emits despite instructions. Record text fields must stay plain.
func StripMarkup(s string) string {
	r := strings.NewReplacer("*", "", "`", "", "#", "")
	return strings.TrimSpace(r.Replace(s))
}

func stripAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if cleaned := StripMarkup(v); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

func textOrUnknown(s string) string {
	if cleaned := StripMarkup(s); cleaned != "" {
		return cleaned
	}
	return unknownField
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// CartItem is a single line item in a ghost session's shadow cart
type CartItem struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// CustomerData holds the contact fields captured by the checkout simulation
type CustomerData struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// GhostSession is the simulated persisted commerce session for one device.
// Exactly one exists per (device, target domain) pair at any time.
type GhostSession struct {
	SessionID    string       `json:"session_id"`
	DeviceID     string       `json:"device_id"`
	LastActive   time.Time    `json:"last_active"`
	CartItems    []CartItem   `json:"cart_items"`
	CustomerData CustomerData `json:"customer_data"`
}

// ChatMessage is one turn in the architect conversation
type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "model"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ReportRequest carries operator-entered metadata for a report dispatch
type ReportRequest struct {
	Target string `json:"target"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Notes  string `json:"notes"`
}

// LogSeverity represents the severity level of a log entry
type LogSeverity string

const (
	LogSeverityLow    LogSeverity = "low"
	LogSeverityMedium LogSeverity = "medium"
	LogSeverityHigh   LogSeverity = "high"
)

// ProcessType represents the type of process that created the log
type ProcessType string

const (
	ProcessTypeRequest  ProcessType = "request"
	ProcessTypeInternal ProcessType = "internal"
)

// LogEvent represents a process-specific logging context
type LogEvent struct {
	ProcessID   string      `json:"process_id"`
	ProcessType ProcessType `json:"process_type"`
	StartTime   time.Time   `json:"start_time"`
	ClientIP    string      `json:"client_ip,omitempty"`
}

// LogEntry represents a structured log entry for database storage
type LogEntry struct {
	ID          string                 `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	Severity    LogSeverity            `json:"severity,omitempty"`
	Message     string                 `json:"message"`
	Operation   string                 `json:"operation"`
	TargetName  string                 `json:"target_name,omitempty"`
	ProcessID   string                 `json:"process_id"`
	ProcessType ProcessType            `json:"process_type"`
	ClientIP    string                 `json:"client_ip,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
