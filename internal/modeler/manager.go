// Package modeler owns the authoritative in-memory FPP model. It loads the
// model from compiler output, slices it into views, applies edits and writes
// it back out as .fpp source.
package modeler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fpp-modeler/backend/internal/compiler"
	"github.com/fpp-modeler/backend/internal/models"
	"github.com/fpp-modeler/backend/internal/parser"
)

// Compiler produces compiler XML and runs analyzers.
type Compiler interface {
	Compile(ctx context.Context) ([]byte, error)
	Analyze(ctx context.Context, name string) (*compiler.Analysis, error)
}

var errNoCompiler = errors.New("no compiler configured")

// EventKind identifies a model change notification.
type EventKind string

const (
	EventReloaded EventKind = "model:reloaded"
	EventChanged  EventKind = "model:changed"
)

// Event is delivered to subscribers after the model changes.
type Event struct {
	Kind EventKind `json:"type"`
	// Entity is the kind of entity a mutation touched. Empty for reloads.
	Entity models.EntityKind `json:"entity,omitempty"`
	// Name is the entity a mutation touched. Empty for reloads.
	Name string    `json:"name,omitempty"`
	At   time.Time `json:"at"`
}

// Manager holds the current model. All methods are safe for concurrent use;
// loads and mutations are serialized against each other and against reads.
type Manager struct {
	mu       sync.RWMutex
	model    *models.Model
	compiler Compiler
	logger   *slog.Logger

	subMu       sync.Mutex
	subscribers []func(Event)
}

// NewManager creates a manager with an empty model. compiler may be nil when
// the model is only ever loaded from XML directly.
func NewManager(c Compiler, logger *slog.Logger) *Manager {
	return &Manager{
		model:    models.NewModel(),
		compiler: c,
		logger:   logger.With("component", "modeler"),
	}
}

// Subscribe registers fn to be called after every reload and successful
// mutation. fn runs on the caller's goroutine with no manager lock held.
func (m *Manager) Subscribe(fn func(Event)) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

func (m *Manager) publish(ev Event) {
	ev.At = time.Now()
	m.subMu.Lock()
	subs := append([]func(Event){}, m.subscribers...)
	m.subMu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// LoadModel runs the compiler and replaces the model with the result.
// On failure the previous model stays in place.
func (m *Manager) LoadModel(ctx context.Context) (*models.ViewList, error) {
	if m.compiler == nil {
		return nil, &models.ExternalProcessError{Name: "compiler", Err: errNoCompiler}
	}

	data, err := m.compiler.Compile(ctx)
	if err != nil {
		m.logger.Error("compile failed, keeping previous model", "error", err)
		return nil, err
	}
	return m.LoadModelFromXML(bytes.NewReader(data))
}

// LoadModelFromXML parses and translates compiler XML and replaces the model.
// On failure the previous model stays in place.
func (m *Manager) LoadModelFromXML(r io.Reader) (*models.ViewList, error) {
	start := time.Now()

	raw, err := parser.ParseCompilerXML(r)
	if err != nil {
		m.logger.Error("load failed, keeping previous model", "error", err)
		return nil, err
	}
	model, err := parser.Translate(raw)
	if err != nil {
		m.logger.Error("load failed, keeping previous model", "error", err)
		return nil, err
	}

	m.mu.Lock()
	m.model = model
	views := model.ViewList()
	m.mu.Unlock()

	m.logger.Info("model loaded",
		"porttypes", len(views.PortTypes),
		"components", len(views.Components),
		"instances", len(views.Instances),
		"topologies", len(views.Topologies),
		"duration", time.Since(start))

	m.publish(Event{Kind: EventReloaded})
	return views, nil
}

// ViewList returns the names shown in the view pickers.
func (m *Manager) ViewList() *models.ViewList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model.ViewList()
}

// RunAnalyzer runs the named analyzer.
func (m *Manager) RunAnalyzer(ctx context.Context, name string) (*compiler.Analysis, error) {
	if m.compiler == nil {
		return nil, &models.ExternalProcessError{Name: "analyzer " + name, Err: errNoCompiler}
	}
	return m.compiler.Analyze(ctx, name)
}

// Read calls fn with the current model under the read lock. fn must not
// retain the model or modify it.
func (m *Manager) Read(fn func(*models.Model)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(m.model)
}
