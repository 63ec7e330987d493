package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"thirdeye/internal/cache/analysiscache"
	"thirdeye/internal/classify"
	"thirdeye/internal/delivery"
	"thirdeye/internal/logger"
	"thirdeye/internal/models"
	"thirdeye/internal/provider"
	"thirdeye/internal/session"

	"github.com/gorilla/mux"
)

// architectOfflineMessage is returned when the chat provider is unreachable;
// chat failures are never surfaced as request errors
const architectOfflineMessage = "Connection interrupted. The Architect is offline."

// Handler contains the HTTP handlers for the API
type Handler struct {
	classifier   classify.Service
	analysisSvc  analysiscache.Service
	providerSvc  provider.Service
	deliverySvc  delivery.Service
	synchronizer *session.Synchronizer
	logger       logger.Service
}

// NewHandler creates a new HTTP handler
func NewHandler(
	classifier classify.Service,
	analysisSvc analysiscache.Service,
	providerSvc provider.Service,
	deliverySvc delivery.Service,
	synchronizer *session.Synchronizer,
	logger logger.Service,
) *Handler {
	return &Handler{
		classifier:   classifier,
		analysisSvc:  analysisSvc,
		providerSvc:  providerSvc,
		deliverySvc:  deliverySvc,
		synchronizer: synchronizer,
		logger:       logger,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// AnalyzeResponse pairs the classification verdict with the cached record
type AnalyzeResponse struct {
	Classification models.TargetClassification `json:"classification"`
	Record         *models.AnalysisRecord      `json:"record"`
}

// writeJSONResponse writes a JSON response with standard headers including X-Request-ID
func (h *Handler) writeJSONResponse(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) error {
	logEvent := logger.GetLogEvent(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", logEvent.ProcessID)
	w.WriteHeader(statusCode)

	return json.NewEncoder(w).Encode(data)
}

// ClassifyTarget handles GET /api/classify?target=
func (h *Handler) ClassifyTarget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target := r.URL.Query().Get("target")
	if target == "" {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "target is required", "")
		return
	}

	result := h.classifier.Classify(target)

	h.logger.LogInfo(ctx, logger.OpClassify, fmt.Sprintf("Classified target: %s", target), map[string]interface{}{
		"category": string(result.Category),
		"is_valid": result.IsValid,
	})

	if err := h.writeJSONResponse(w, r, http.StatusOK, result); err != nil {
		h.logger.LogError(ctx, logger.OpClassify, target, "Failed to encode response", err, models.LogSeverityLow, nil)
	}
}

// AnalyzeTarget handles GET /api/analyze/{target}?mode=
func (h *Handler) AnalyzeTarget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vars := mux.Vars(r)
	target := vars["target"]
	if target == "" {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "target is required", "")
		return
	}
	mode := models.ParseMode(r.URL.Query().Get("mode"))

	// Classification gates every provider call: policy-excluded and
	// malformed targets never spend provider quota
	classification := h.classifier.Classify(target)
	if !classification.IsValid {
		statusCode := http.StatusBadRequest
		if classification.Category == models.CategoryLocalhostPrivate {
			statusCode = http.StatusForbidden
		}
		h.logger.LogInfo(ctx, logger.OpClassify, fmt.Sprintf("Blocked target: %s", target), map[string]interface{}{
			"category": string(classification.Category),
		})
		h.writeErrorResponse(w, r, statusCode, "target rejected", classification.Message)
		return
	}

	h.logger.LogInfo(ctx, logger.OpAnalysis, fmt.Sprintf("Starting analysis for target: %s", target), map[string]interface{}{
		"target": classification.CleanTarget,
		"mode":   string(mode),
	})

	record := h.analysisSvc.GetOrFetch(ctx, classification.CleanTarget, mode, h.providerSvc.Analyze)

	response := AnalyzeResponse{
		Classification: classification,
		Record:         record,
	}

	if err := h.writeJSONResponse(w, r, http.StatusOK, response); err != nil {
		h.logger.LogError(ctx, logger.OpAnalysis, target, "Failed to encode response", err, models.LogSeverityLow, nil)
		return
	}

	h.logger.LogSuccess(ctx, logger.OpAnalysis, target, "Successfully analyzed target", map[string]interface{}{
		"status": string(record.Status),
	})
}

// architectRequest is the ask-the-architect request body
type architectRequest struct {
	Target  string               `json:"target"`
	Message string               `json:"message"`
	History []models.ChatMessage `json:"history"`
}

// AskArchitect handles POST /api/architect/ask
func (h *Handler) AskArchitect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request architectRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if request.Message == "" {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "message is required", "")
		return
	}

	answer, err := h.providerSvc.Chat(ctx, request.History, request.Message, request.Target)
	if err != nil {
		// Chat degrades to a canned offline reply rather than an error
		h.logger.LogError(ctx, logger.OpArchitectChat, request.Target, "Architect chat failed", err, models.LogSeverityLow, nil)
		answer = architectOfflineMessage
	}

	response := models.ChatMessage{
		Role:      "model",
		Text:      answer,
		Timestamp: time.Now().UTC(),
	}
	if err := h.writeJSONResponse(w, r, http.StatusOK, response); err != nil {
		h.logger.LogError(ctx, logger.OpArchitectChat, request.Target, "Failed to encode response", err, models.LogSeverityLow, nil)
	}
}

// reportRequest is the report dispatch request body
type reportRequest struct {
	models.ReportRequest
	Mode string `json:"mode"`
}

// DispatchReport handles POST /api/report
func (h *Handler) DispatchReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request reportRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if request.Target == "" || request.Email == "" {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "target and email are required", "")
		return
	}

	classification := h.classifier.Classify(request.Target)
	if !classification.IsValid {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "target rejected", classification.Message)
		return
	}

	mode := models.ParseMode(request.Mode)
	record := h.analysisSvc.GetOrFetch(ctx, classification.CleanTarget, mode, h.providerSvc.Analyze)

	referenceID, err := h.deliverySvc.Send(ctx, &request.ReportRequest, record)
	if err != nil {
		h.logger.LogError(ctx, logger.OpReportDispatch, request.Target, "Report dispatch failed", err, models.LogSeverityMedium, nil)
		// Surfaced with a retry affordance; dispatches are never retried automatically
		h.writeErrorResponse(w, r, http.StatusBadGateway, "report dispatch failed", "Dispatch failed. You may retry the request.")
		return
	}

	h.logger.LogSuccess(ctx, logger.OpReportDispatch, request.Target, "Report dispatched", map[string]interface{}{
		"reference_id": referenceID,
	})

	if err := h.writeJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success":      true,
		"reference_id": referenceID,
	}); err != nil {
		h.logger.LogError(ctx, logger.OpReportDispatch, request.Target, "Failed to encode response", err, models.LogSeverityLow, nil)
	}
}

// mountRequest is the session mount request body
type mountRequest struct {
	Target string `json:"target"`
}

// MountSession handles POST /api/session/mount
func (h *Handler) MountSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request mountRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	classification := h.classifier.Classify(request.Target)
	if !classification.IsValid {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "target rejected", classification.Message)
		return
	}

	if err := h.synchronizer.Mount(ctx, classification.CleanTarget); err != nil {
		h.writeErrorResponse(w, r, h.getStatusCodeForError(err), "session mount failed", err.Error())
		return
	}

	h.writeSessionSnapshot(w, r)
}

// fieldRequest is the contact-field update request body
type fieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// UpdateSessionField handles POST /api/session/field
func (h *Handler) UpdateSessionField(w http.ResponseWriter, r *http.Request) {
	var request fieldRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.synchronizer.UpdateContactField(request.Field, request.Value); err != nil {
		statusCode := http.StatusBadRequest
		if errors.Is(err, models.ErrSessionNotMounted) {
			statusCode = http.StatusConflict
		}
		h.writeErrorResponse(w, r, statusCode, "field update failed", err.Error())
		return
	}

	h.writeSessionSnapshot(w, r)
}

// InjectCartItem handles POST /api/session/cart
func (h *Handler) InjectCartItem(w http.ResponseWriter, r *http.Request) {
	if err := h.synchronizer.InjectCartItem(r.Context()); err != nil {
		h.writeErrorResponse(w, r, h.getStatusCodeForError(err), "cart injection failed", err.Error())
		return
	}

	h.writeSessionSnapshot(w, r)
}

// ResetSession handles POST /api/session/reset
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	if err := h.synchronizer.Reset(r.Context()); err != nil {
		h.writeErrorResponse(w, r, h.getStatusCodeForError(err), "session reset failed", err.Error())
		return
	}

	h.writeSessionSnapshot(w, r)
}

// GetSession handles GET /api/session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.writeSessionSnapshot(w, r)
}

// GetSessionLogs handles GET /api/session/logs
func (h *Handler) GetSessionLogs(w http.ResponseWriter, r *http.Request) {
	if err := h.writeJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"logs": h.synchronizer.Logs(),
	}); err != nil {
		h.logger.LogError(r.Context(), logger.OpSessionMount, "", "Failed to encode response", err, models.LogSeverityLow, nil)
	}
}

// writeSessionSnapshot reports the synchronizer's current session and state
func (h *Handler) writeSessionSnapshot(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"state":   string(h.synchronizer.State()),
		"session": h.synchronizer.Session(),
	}
	if err := h.writeJSONResponse(w, r, http.StatusOK, response); err != nil {
		h.logger.LogError(r.Context(), logger.OpSessionMount, "", "Failed to encode response", err, models.LogSeverityLow, nil)
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
	}

	if err := h.writeJSONResponse(w, r, http.StatusOK, response); err != nil {
		h.logger.LogError(ctx, logger.OpHealthCheck, "", "Failed to encode health response", err, models.LogSeverityLow, nil)
		return
	}

	h.logger.LogInfo(ctx, logger.OpHealthCheck, "Health check performed successfully", nil)
}

// writeErrorResponse writes a standardized error response
func (h *Handler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, error, message string) {
	response := ErrorResponse{
		Error:     error,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	if err := h.writeJSONResponse(w, r, statusCode, response); err != nil {
		h.logger.LogError(r.Context(), "response_encoding", "", "Failed to encode error response", err, models.LogSeverityLow, nil)
	}
}

// getStatusCodeForError determines the appropriate HTTP status code for an error
func (h *Handler) getStatusCodeForError(err error) int {
	switch {
	case errors.Is(err, models.ErrSessionNotMounted):
		return http.StatusConflict
	case errors.Is(err, models.ErrTargetMalformed) || errors.Is(err, models.ErrTargetBlocked):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrDeliveryFailed):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
