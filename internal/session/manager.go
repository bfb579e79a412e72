// Package session runs model loads in the background and tracks their
// progress so HTTP clients can poll for the result.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fpp-modeler/backend/internal/models"
	"github.com/google/uuid"
)

// MaxSessions limits how many finished sessions are remembered
const MaxSessions = 10

// SessionMaxAge is how long to keep finished sessions before cleanup
const SessionMaxAge = 30 * time.Minute

// Loader compiles and loads the model.
type Loader interface {
	LoadModel(ctx context.Context) (*models.ViewList, error)
}

// Manager tracks background load sessions. Loads run one at a time.
type Manager struct {
	sessions map[string]*models.LoadSession
	mu       sync.RWMutex
	loadMu   sync.Mutex
	loader   Loader
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewManager creates a session manager.
func NewManager(loader Loader, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*models.LoadSession),
		loader:   loader,
		logger:   logger.With("component", "sessions"),
	}
}

// StartLoad begins a background load and returns its session immediately.
func (m *Manager) StartLoad() *models.LoadSession {
	m.cleanupOldSessionsIfNeeded()

	sess := models.NewLoadSession(uuid.New().String())

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	out := *sess
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runLoad(sess.ID)

	return &out
}

// Load runs a load in the caller's goroutine, queued behind any background
// load so an older compile never replaces a newer model.
func (m *Manager) Load(ctx context.Context) (*models.ViewList, error) {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	return m.loader.LoadModel(ctx)
}

func (m *Manager) runLoad(id string) {
	defer m.wg.Done()
	// Recover from panics to prevent backend crash
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("load panicked", "session", id, "panic", r)
			m.finish(id, nil, fmt.Errorf("load panicked: %v", r), 0)
		}
	}()

	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	m.mu.Lock()
	if sess, ok := m.sessions[id]; ok {
		sess.Status = models.SessionStatusLoading
	}
	m.mu.Unlock()

	start := time.Now()
	m.logger.Info("load started", "session", id)

	// Loads are not cancelled once started.
	views, err := m.loader.LoadModel(context.Background())
	m.finish(id, views, err, time.Since(start))
}

func (m *Manager) finish(id string, views *models.ViewList, err error, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return
	}
	sess.ProcessingTimeMs = elapsed.Milliseconds()
	if err != nil {
		sess.Status = models.SessionStatusError
		sess.Error = err.Error()
		m.logger.Warn("load failed", "session", id, "error", err)
		return
	}
	sess.Status = models.SessionStatusComplete
	sess.Views = views
	m.logger.Info("load complete", "session", id, "duration", elapsed)
}

// GetSession returns a snapshot of a session by ID.
func (m *Manager) GetSession(id string) (*models.LoadSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	out := *sess
	return &out, true
}

// Wait blocks until every started load has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// cleanupOldSessionsIfNeeded removes the oldest finished sessions if at capacity
func (m *Manager) cleanupOldSessionsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < MaxSessions {
		return
	}

	var done []*models.LoadSession
	for _, sess := range m.sessions {
		if sess.Done() {
			done = append(done, sess)
		}
	}
	sort.Slice(done, func(i, j int) bool {
		return done[i].StartedAt.Before(done[j].StartedAt)
	})

	toFree := len(m.sessions) - MaxSessions + 1
	for i := 0; i < toFree && i < len(done); i++ {
		delete(m.sessions, done[i].ID)
		m.logger.Debug("dropped old session", "session", done[i].ID)
	}
}

// CleanupOldSessions removes finished sessions started more than maxAge ago.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for id, sess := range m.sessions {
		if sess.Done() && sess.StartedAt.Before(cutoff) {
			delete(m.sessions, id)
			m.logger.Debug("cleaned up aged session", "session", id)
		}
	}
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
