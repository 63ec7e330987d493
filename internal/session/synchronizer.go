package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"thirdeye/internal/logger"
	"thirdeye/internal/models"
	"thirdeye/internal/store"

	"github.com/google/uuid"
)

// State identifies where the synchronizer is in its lifecycle
type State string

const (
	StateUninitialized State = "UNINITIALIZED"
	StateRestoring     State = "RESTORING"
	StateIdle          State = "IDLE"
	StateCapturing     State = "CAPTURING"
	StatePersisting    State = "PERSISTING"
	StateResetting     State = "RESETTING"
)

const (
	deviceNamespace      = "device"
	sessionNamespacePref = "session:"
	logHistoryLimit      = 20
)

// Config controls the synchronizer's simulated timing
type Config struct {
	// DebounceWindow is the quiet period required after the last edit
	// before the live form is persisted
	DebounceWindow time.Duration
	// WriteDelay simulates backend processing time before a persist lands
	WriteDelay time.Duration
	// RestoreDelay simulates the device fingerprint scan during restore
	RestoreDelay time.Duration
}

// DefaultConfig mirrors the timing of the checkout simulation UI
func DefaultConfig() Config {
	return Config{
		DebounceWindow: time.Second,
		WriteDelay:     600 * time.Millisecond,
		RestoreDelay:   800 * time.Millisecond,
	}
}

// Synchronizer manages the simulated per-device commerce session for one
// mounted target: restore on mount, debounced persistence of contact-form
// edits, synchronous cart injection, and deterministic reset.
//
// The scheduling discipline is single-flight throughout: one pending
// debounce timer (new edits replace it) and at most one persist in flight.
type Synchronizer struct {
	repo   store.Repository
	logger logger.Service
	cfg    Config

	mu               sync.Mutex
	state            State
	target           string
	domain           string
	session          *models.GhostSession
	form             models.CustomerData
	lastPersisted    models.CustomerData
	timer            *time.Timer
	writeInFlight    bool
	dirtyDuringWrite bool
	generation       uint64
	logs             []string
	subscribers      []chan string
}

// New creates a new ghost session synchronizer
func New(repo store.Repository, loggerService logger.Service, cfg Config) *Synchronizer {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = time.Second
	}
	return &Synchronizer{
		repo:   repo,
		logger: loggerService,
		cfg:    cfg,
		state:  StateUninitialized,
	}
}

// DomainKey derives the storage domain from a target address
func DomainKey(target string) string {
	domain := strings.TrimPrefix(target, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "www.")
	if i := strings.IndexByte(domain, '/'); i >= 0 {
		domain = domain[:i]
	}
	return domain
}

func sessionNamespace(domain string) string {
	return sessionNamespacePref + domain
}

// Mount binds the synchronizer to a target and restores (or seeds) the
// persisted device/session pair for its domain. Mounting a new target
// implicitly unmounts the previous one.
func (s *Synchronizer) Mount(ctx context.Context, target string) error {
	s.mu.Lock()
	s.detachLocked()
	s.state = StateRestoring
	s.target = target
	s.domain = DomainKey(target)
	s.form = models.CustomerData{}
	s.lastPersisted = models.CustomerData{}
	s.logf("System: Analyzing device fingerprint...")
	domain := s.domain
	s.mu.Unlock()

	if s.cfg.RestoreDelay > 0 {
		time.Sleep(s.cfg.RestoreDelay)
	}

	sess, restoredForm, err := s.restore(ctx, domain)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.domain != domain {
		// A different target was mounted while we were restoring
		return nil
	}
	if err != nil {
		s.state = StateUninitialized
		s.logf("Storage Error: %v", err)
		s.logger.LogError(ctx, logger.OpSessionMount, target, "Failed to restore ghost session", err, models.LogSeverityMedium, nil)
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	s.session = sess
	s.form = restoredForm
	s.lastPersisted = restoredForm
	s.state = StateIdle

	s.logger.LogSuccess(ctx, logger.OpSessionMount, target, "Ghost session mounted", map[string]interface{}{
		"device_id":  sess.DeviceID,
		"session_id": sess.SessionID,
	})
	return nil
}

// restore looks up or seeds the device/session pair for a domain
func (s *Synchronizer) restore(ctx context.Context, domain string) (*models.GhostSession, models.CustomerData, error) {
	deviceID, err := s.repo.Get(ctx, deviceNamespace, domain)
	switch {
	case err == nil:
		s.publish(fmt.Sprintf("Existing Device Recognized: %s", deviceID))
	case err == models.ErrKeyNotFound:
		deviceID = newDeviceID()
		if err := s.repo.Set(ctx, deviceNamespace, domain, deviceID); err != nil {
			return nil, models.CustomerData{}, err
		}
		s.publish(fmt.Sprintf("New Device ID Generated: %s", deviceID))
	default:
		return nil, models.CustomerData{}, err
	}

	raw, err := s.repo.Get(ctx, sessionNamespace(domain), deviceID)
	if err == nil {
		var sess models.GhostSession
		if unmarshalErr := json.Unmarshal([]byte(raw), &sess); unmarshalErr == nil {
			s.publish("Ghost Session Found: Restoring shadow cart data.")
			return &sess, sess.CustomerData, nil
		}
		// Corrupt payloads are treated the same as absent ones
	} else if err != models.ErrKeyNotFound {
		return nil, models.CustomerData{}, err
	}

	sess := &models.GhostSession{
		SessionID:    newSessionID(),
		DeviceID:     deviceID,
		LastActive:   time.Now().UTC(),
		CartItems:    []models.CartItem{},
		CustomerData: models.CustomerData{},
	}
	if err := s.persistSession(ctx, domain, sess); err != nil {
		return nil, models.CustomerData{}, err
	}
	s.publish("No Session Found: Initializing new ghost session.")
	return sess, models.CustomerData{}, nil
}

// Unmount cancels any pending debounce so no late write lands after the
// target changed, and releases the mounted session.
func (s *Synchronizer) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detachLocked()
}

func (s *Synchronizer) detachLocked() {
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.writeInFlight = false
	s.dirtyDuringWrite = false
	s.session = nil
	s.target = ""
	s.domain = ""
	s.state = StateUninitialized
}

// UpdateContactField records an edit to the live contact form and starts
// (or restarts) the debounce window. Edits arriving while a persist is in
// flight re-arm the window once the write completes.
func (s *Synchronizer) UpdateContactField(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return models.ErrSessionNotMounted
	}

	switch strings.ToLower(field) {
	case "email":
		s.form.Email = value
	case "phone":
		s.form.Phone = value
	case "address":
		s.form.Address = value
	case "city":
		s.form.City = value
	default:
		return fmt.Errorf("unknown contact field: %s", field)
	}

	if s.writeInFlight {
		s.dirtyDuringWrite = true
		return nil
	}

	s.state = StateCapturing
	s.armDebounceLocked()
	return nil
}

// armDebounceLocked replaces any pending debounce timer with a fresh one
func (s *Synchronizer) armDebounceLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.generation
	s.timer = time.AfterFunc(s.cfg.DebounceWindow, func() {
		s.debounceElapsed(gen)
	})
}

// debounceElapsed fires when the quiet period ends with no further edits
func (s *Synchronizer) debounceElapsed(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.session == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil

	if s.form == s.lastPersisted {
		s.state = StateIdle
		s.mu.Unlock()
		return
	}

	s.state = StatePersisting
	s.writeInFlight = true
	s.logf("Input Stream: Capturing PII fragments...")
	s.mu.Unlock()

	if s.cfg.WriteDelay > 0 {
		time.Sleep(s.cfg.WriteDelay)
	}
	s.completeWrite(gen)
}

// completeWrite lands the debounced persist and settles follow-up state
func (s *Synchronizer) completeWrite(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.session == nil {
		return
	}

	updated := *s.session
	updated.CustomerData = s.form
	updated.LastActive = nextActiveTime(s.session.LastActive)

	if err := s.persistSession(context.Background(), s.domain, &updated); err != nil {
		// Prior in-memory state stays untouched; the live form still
		// differs from the persisted snapshot, so the next edit will
		// carry the data forward
		s.writeInFlight = false
		s.dirtyDuringWrite = false
		s.state = StateIdle
		s.logf("Storage Error: write rejected, session preserved (%v)", err)
		s.logger.LogError(context.Background(), logger.OpSessionPersist, s.target, "Ghost session write failed", err, models.LogSeverityMedium, nil)
		return
	}

	s.session = &updated
	s.lastPersisted = updated.CustomerData
	s.writeInFlight = false
	s.logf("DB Write: Ghost session updated successfully.")

	if s.dirtyDuringWrite && s.form != s.lastPersisted {
		s.dirtyDuringWrite = false
		s.state = StateCapturing
		s.armDebounceLocked()
		return
	}
	s.dirtyDuringWrite = false
	s.state = StateIdle
}

// InjectCartItem appends the fixed demo line item to the shadow cart and
// persists synchronously. It does not participate in the debounce cycle.
func (s *Synchronizer) InjectCartItem(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return models.ErrSessionNotMounted
	}

	updated := *s.session
	updated.CartItems = append(append([]models.CartItem{}, s.session.CartItems...), models.CartItem{
		ID:    101,
		Name:  "Third Eye Enterprise License",
		Price: 199,
	})

	if err := s.persistSession(ctx, s.domain, &updated); err != nil {
		s.logf("Storage Error: cart injection rejected (%v)", err)
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	s.session = &updated
	s.logf("Event: Cart Payload Injected via Control Panel.")
	s.logger.LogSuccess(ctx, logger.OpSessionInject, s.target, "Cart payload injected", map[string]interface{}{
		"cart_size": len(updated.CartItems),
	})
	return nil
}

// Reset purges the device identifier and every session key for the mounted
// domain, clears the live form and log history, and reseeds a brand-new
// device/session pair. On storage failure the prior persisted state is
// restored so the reset is atomic from the caller's perspective.
func (s *Synchronizer) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return models.ErrSessionNotMounted
	}

	s.state = StateResetting
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.writeInFlight = false
	s.dirtyDuringWrite = false

	domain := s.domain
	priorSession := s.session
	priorDevice := priorSession.DeviceID

	rollback := func() {
		if data, err := json.Marshal(priorSession); err == nil {
			_ = s.repo.Set(ctx, deviceNamespace, domain, priorDevice)
			_ = s.repo.Set(ctx, sessionNamespace(domain), priorDevice, string(data))
		}
		s.state = StateIdle
	}

	if err := s.repo.Delete(ctx, deviceNamespace, domain); err != nil {
		s.state = StateIdle
		s.logf("Storage Error: reset aborted (%v)", err)
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	if err := s.repo.DeleteNamespace(ctx, sessionNamespace(domain)); err != nil {
		rollback()
		s.logf("Storage Error: reset aborted (%v)", err)
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	s.logs = nil
	s.form = models.CustomerData{}
	s.lastPersisted = models.CustomerData{}
	s.logf("System: Purging local storage and resetting simulation...")

	deviceID := newDeviceID()
	fresh := &models.GhostSession{
		SessionID:    newSessionID(),
		DeviceID:     deviceID,
		LastActive:   time.Now().UTC(),
		CartItems:    []models.CartItem{},
		CustomerData: models.CustomerData{},
	}
	if err := s.repo.Set(ctx, deviceNamespace, domain, deviceID); err != nil {
		rollback()
		s.logf("Storage Error: reset aborted (%v)", err)
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	if err := s.persistSession(ctx, domain, fresh); err != nil {
		rollback()
		s.logf("Storage Error: reset aborted (%v)", err)
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	s.session = fresh
	s.state = StateIdle
	s.logf("New Device ID Generated: %s", deviceID)
	s.logger.LogSuccess(ctx, logger.OpSessionReset, s.target, "Ghost session reset", map[string]interface{}{
		"device_id": deviceID,
	})
	return nil
}

// persistSession writes a session to the store; lastActive must already be set
func (s *Synchronizer) persistSession(ctx context.Context, domain string, sess *models.GhostSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, sessionNamespace(domain), sess.DeviceID, string(data))
}

// Session returns a snapshot of the mounted session, or nil
func (s *Synchronizer) Session() *models.GhostSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	snapshot := *s.session
	snapshot.CartItems = append([]models.CartItem{}, s.session.CartItems...)
	snapshot.CustomerData = s.form
	return &snapshot
}

// State returns the current lifecycle state
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Logs returns the simulation log history, newest first
func (s *Synchronizer) Logs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.logs...)
}

// Subscribe returns a channel receiving new simulation log lines. Slow
// consumers drop lines rather than blocking the synchronizer.
func (s *Synchronizer) Subscribe() <-chan string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan string, 32)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// logf appends a timestamped line to the history and notifies subscribers.
// Callers must hold the mutex.
func (s *Synchronizer) logf(format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	s.logs = append([]string{line}, s.logs...)
	if len(s.logs) > logHistoryLimit {
		s.logs = s.logs[:logHistoryLimit]
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- line:
		default:
		}
	}
}

// publish logs a line from code paths that do not hold the mutex
func (s *Synchronizer) publish(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logf("%s", line)
}

// nextActiveTime guarantees lastActive increases with every persisted write
func nextActiveTime(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}

func newDeviceID() string {
	return "dev_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
}

func newSessionID() string {
	return "sess_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:9]
}
