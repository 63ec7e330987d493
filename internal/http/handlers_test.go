package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"thirdeye/internal/classify"
	"thirdeye/internal/mocks"
	"thirdeye/internal/models"
	"thirdeye/internal/session"
	"thirdeye/internal/store"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testHarness bundles the handler with its mockable collaborators
type testHarness struct {
	handler       *Handler
	analysisCache *mocks.MockAnalysisCache
	provider      *mocks.MockProvider
	delivery      *mocks.MockDelivery
	synchronizer  *session.Synchronizer
	repo          *store.MemoryRepository
}

func newTestHarness() *testHarness {
	analysisCache := &mocks.MockAnalysisCache{}
	providerMock := &mocks.MockProvider{}
	deliveryMock := &mocks.MockDelivery{}
	repo := store.NewMemoryRepository()
	synchronizer := session.New(repo, mocks.NoopLogger{}, session.Config{
		DebounceWindow: 10 * time.Millisecond,
	})

	handler := NewHandler(
		classify.New(),
		analysisCache,
		providerMock,
		deliveryMock,
		synchronizer,
		mocks.NoopLogger{},
	)

	return &testHarness{
		handler:       handler,
		analysisCache: analysisCache,
		provider:      providerMock,
		delivery:      deliveryMock,
		synchronizer:  synchronizer,
		repo:          repo,
	}
}

func successRecord(target string) *models.AnalysisRecord {
	return models.NewAnalysisRecord(target, models.ModeSummary, &models.RawProviderResult{
		Status:        "SUCCESS",
		Backend:       "Node.js",
		Frontend:      "React",
		SecurityScore: 80,
	})
}

func postJSON(t *testing.T, body interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestHandler_ClassifyTarget_Valid(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodGet, "/api/classify?target=example.com", nil)
	w := httptest.NewRecorder()

	h.handler.ClassifyTarget(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.TargetClassification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.True(t, response.IsValid)
	assert.Equal(t, models.CategoryValid, response.Category)
	assert.Equal(t, "https://example.com", response.CleanTarget)
}

func TestHandler_ClassifyTarget_Missing(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodGet, "/api/classify", nil)
	w := httptest.NewRecorder()

	h.handler.ClassifyTarget(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "target is required", response.Error)
}

func TestHandler_AnalyzeTarget_Success(t *testing.T) {
	h := newTestHarness()

	record := successRecord("https://example.com")
	h.analysisCache.On("GetOrFetch", mock.Anything, "https://example.com", models.ModeSummary, mock.Anything).
		Return(record)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze/example.com", nil)
	req = mux.SetURLVars(req, map[string]string{"target": "example.com"})
	w := httptest.NewRecorder()

	h.handler.AnalyzeTarget(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.True(t, response.Classification.IsValid)
	require.NotNil(t, response.Record)
	assert.Equal(t, models.StatusSuccess, response.Record.Status)
	assert.Equal(t, "Node.js", response.Record.Backend)

	h.analysisCache.AssertExpectations(t)
}

func TestHandler_AnalyzeTarget_DeepDiveMode(t *testing.T) {
	h := newTestHarness()

	record := successRecord("https://example.com")
	h.analysisCache.On("GetOrFetch", mock.Anything, "https://example.com", models.ModeDeepDive, mock.Anything).
		Return(record)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze/example.com?mode=deep_dive", nil)
	req = mux.SetURLVars(req, map[string]string{"target": "example.com"})
	w := httptest.NewRecorder()

	h.handler.AnalyzeTarget(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	h.analysisCache.AssertExpectations(t)
}

func TestHandler_AnalyzeTarget_LocalhostForbidden(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodGet, "/api/analyze/localhost:3000", nil)
	req = mux.SetURLVars(req, map[string]string{"target": "localhost:3000"})
	w := httptest.NewRecorder()

	h.handler.AnalyzeTarget(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	h.analysisCache.AssertNotCalled(t, "GetOrFetch")
}

func TestHandler_AnalyzeTarget_MalformedRejected(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodGet, "/api/analyze/x", nil)
	req = mux.SetURLVars(req, map[string]string{"target": "no-dot-here"})
	w := httptest.NewRecorder()

	h.handler.AnalyzeTarget(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	h.analysisCache.AssertNotCalled(t, "GetOrFetch")
}

func TestHandler_AskArchitect_Success(t *testing.T) {
	h := newTestHarness()

	h.provider.On("Chat", mock.Anything, mock.Anything, "What backend is this?", "example.com").
		Return("It runs Node.js behind a CDN.", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/architect/ask", postJSON(t, map[string]interface{}{
		"target":  "example.com",
		"message": "What backend is this?",
	}))
	w := httptest.NewRecorder()

	h.handler.AskArchitect(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.ChatMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "model", response.Role)
	assert.Equal(t, "It runs Node.js behind a CDN.", response.Text)

	h.provider.AssertExpectations(t)
}

func TestHandler_AskArchitect_ProviderDownDegrades(t *testing.T) {
	h := newTestHarness()

	h.provider.On("Chat", mock.Anything, mock.Anything, "hello", "").
		Return("", models.ErrProviderUnavailable)

	req := httptest.NewRequest(http.MethodPost, "/api/architect/ask", postJSON(t, map[string]interface{}{
		"message": "hello",
	}))
	w := httptest.NewRecorder()

	h.handler.AskArchitect(w, req)

	// Chat failures degrade to a canned reply, never an HTTP error
	assert.Equal(t, http.StatusOK, w.Code)

	var response models.ChatMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Connection interrupted. The Architect is offline.", response.Text)
}

func TestHandler_AskArchitect_MissingMessage(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodPost, "/api/architect/ask", postJSON(t, map[string]interface{}{
		"target": "example.com",
	}))
	w := httptest.NewRecorder()

	h.handler.AskArchitect(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	h.provider.AssertNotCalled(t, "Chat")
}

func TestHandler_DispatchReport_Success(t *testing.T) {
	h := newTestHarness()

	record := successRecord("https://example.com")
	h.analysisCache.On("GetOrFetch", mock.Anything, "https://example.com", models.ModeSummary, mock.Anything).
		Return(record)
	h.delivery.On("Send", mock.Anything, mock.AnythingOfType("*models.ReportRequest"), record).
		Return("TE-A1B2C3D4E", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/report", postJSON(t, map[string]interface{}{
		"target": "example.com",
		"name":   "Jane",
		"email":  "jane@agency.example",
	}))
	w := httptest.NewRecorder()

	h.handler.DispatchReport(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "TE-A1B2C3D4E", response["reference_id"])

	h.delivery.AssertExpectations(t)
}

func TestHandler_DispatchReport_DeliveryFailure(t *testing.T) {
	h := newTestHarness()

	record := successRecord("https://example.com")
	h.analysisCache.On("GetOrFetch", mock.Anything, "https://example.com", models.ModeSummary, mock.Anything).
		Return(record)
	h.delivery.On("Send", mock.Anything, mock.Anything, record).
		Return("", models.ErrDeliveryFailed)

	req := httptest.NewRequest(http.MethodPost, "/api/report", postJSON(t, map[string]interface{}{
		"target": "example.com",
		"email":  "jane@agency.example",
	}))
	w := httptest.NewRecorder()

	h.handler.DispatchReport(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Dispatch failed. You may retry the request.", response.Message)
}

func TestHandler_DispatchReport_MissingFields(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodPost, "/api/report", postJSON(t, map[string]interface{}{
		"target": "example.com",
	}))
	w := httptest.NewRecorder()

	h.handler.DispatchReport(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	h.delivery.AssertNotCalled(t, "Send")
}

func TestHandler_DispatchReport_InvalidTarget(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodPost, "/api/report", postJSON(t, map[string]interface{}{
		"target": "localhost",
		"email":  "jane@agency.example",
	}))
	w := httptest.NewRecorder()

	h.handler.DispatchReport(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	h.analysisCache.AssertNotCalled(t, "GetOrFetch")
}

func TestHandler_MountSession_Success(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodPost, "/api/session/mount", postJSON(t, map[string]interface{}{
		"target": "example.com",
	}))
	w := httptest.NewRecorder()

	h.handler.MountSession(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		State   string               `json:"state"`
		Session *models.GhostSession `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "IDLE", response.State)
	require.NotNil(t, response.Session)
	assert.NotEmpty(t, response.Session.DeviceID)
	assert.NotEmpty(t, response.Session.SessionID)
}

func TestHandler_MountSession_InvalidTarget(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodPost, "/api/session/mount", postJSON(t, map[string]interface{}{
		"target": "127.0.0.1",
	}))
	w := httptest.NewRecorder()

	h.handler.MountSession(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, h.synchronizer.Session())
}

func TestHandler_UpdateSessionField_NotMounted(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodPost, "/api/session/field", postJSON(t, map[string]interface{}{
		"field": "email",
		"value": "a@b.com",
	}))
	w := httptest.NewRecorder()

	h.handler.UpdateSessionField(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_UpdateSessionField_UnknownField(t *testing.T) {
	h := newTestHarness()
	require.NoError(t, h.synchronizer.Mount(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "example.com"))

	req := httptest.NewRequest(http.MethodPost, "/api/session/field", postJSON(t, map[string]interface{}{
		"field": "nickname",
		"value": "ghost",
	}))
	w := httptest.NewRecorder()

	h.handler.UpdateSessionField(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_UpdateSessionField_Success(t *testing.T) {
	h := newTestHarness()
	require.NoError(t, h.synchronizer.Mount(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "example.com"))

	req := httptest.NewRequest(http.MethodPost, "/api/session/field", postJSON(t, map[string]interface{}{
		"field": "email",
		"value": "a@b.com",
	}))
	w := httptest.NewRecorder()

	h.handler.UpdateSessionField(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		State   string               `json:"state"`
		Session *models.GhostSession `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	// The snapshot reflects the live form before the debounce lands
	assert.Equal(t, "CAPTURING", response.State)
	require.NotNil(t, response.Session)
	assert.Equal(t, "a@b.com", response.Session.CustomerData.Email)
}

func TestHandler_InjectCartItem_Success(t *testing.T) {
	h := newTestHarness()
	require.NoError(t, h.synchronizer.Mount(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "example.com"))

	req := httptest.NewRequest(http.MethodPost, "/api/session/cart", nil)
	w := httptest.NewRecorder()

	h.handler.InjectCartItem(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Session *models.GhostSession `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Session)
	require.Len(t, response.Session.CartItems, 1)
	assert.Equal(t, "Third Eye Enterprise License", response.Session.CartItems[0].Name)
}

func TestHandler_InjectCartItem_NotMounted(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodPost, "/api/session/cart", nil)
	w := httptest.NewRecorder()

	h.handler.InjectCartItem(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_ResetSession_Success(t *testing.T) {
	h := newTestHarness()
	require.NoError(t, h.synchronizer.Mount(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "example.com"))
	priorDevice := h.synchronizer.Session().DeviceID

	req := httptest.NewRequest(http.MethodPost, "/api/session/reset", nil)
	w := httptest.NewRecorder()

	h.handler.ResetSession(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Session *models.GhostSession `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Session)
	assert.NotEqual(t, priorDevice, response.Session.DeviceID)
	assert.Empty(t, response.Session.CartItems)
}

func TestHandler_GetSession_Unmounted(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	w := httptest.NewRecorder()

	h.handler.GetSession(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "UNINITIALIZED", response["state"])
	assert.Nil(t, response["session"])
}

func TestHandler_GetSessionLogs(t *testing.T) {
	h := newTestHarness()
	require.NoError(t, h.synchronizer.Mount(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "example.com"))

	req := httptest.NewRequest(http.MethodGet, "/api/session/logs", nil)
	w := httptest.NewRecorder()

	h.handler.GetSessionLogs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Logs []string `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Logs)
}

func TestHandler_HealthCheck(t *testing.T) {
	h := newTestHarness()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.handler.HealthCheck(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "1.0.0", response.Version)
}

func TestGetStatusCodeForError(t *testing.T) {
	h := newTestHarness()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not mounted", models.ErrSessionNotMounted, http.StatusConflict},
		{"malformed", models.ErrTargetMalformed, http.StatusBadRequest},
		{"blocked", models.ErrTargetBlocked, http.StatusBadRequest},
		{"store down", models.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"delivery failed", models.ErrDeliveryFailed, http.StatusBadGateway},
		{"rate limited", models.ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, h.handler.getStatusCodeForError(tt.err))
		})
	}
}
