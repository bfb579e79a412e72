package view

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fpp-modeler/backend/internal/models"
	"github.com/fpp-modeler/backend/internal/storage"
)

// ErrViewNotFound is returned when the model has no view with the requested
// kind and name.
var ErrViewNotFound = errors.New("view not found")

// ModelSource answers view queries.
type ModelSource interface {
	Query(viewName string, kind models.ViewKind, filterPorts bool) *models.QueryResult
}

// Rendered is everything the front end needs to draw one view.
type Rendered struct {
	View         string              `json:"view" msgpack:"view"`
	Kind         models.ViewKind     `json:"kind" msgpack:"kind"`
	Cytoscape    CytoscapeJSON       `json:"cytoscape" msgpack:"cytoscape"`
	NeedLayout   bool                `json:"needLayout" msgpack:"needLayout"`
	Layout       *Layout             `json:"layout,omitempty" msgpack:"layout,omitempty"`
	SimpleGraph  map[string][]string `json:"simpleGraph" msgpack:"simpleGraph"`
	DefaultStyle []StyleRule         `json:"defaultStyle" msgpack:"defaultStyle"`
}

// Manager builds, caches and styles views.
type Manager struct {
	source  ModelSource
	styles  storage.StyleStore
	layouts *LayoutGenerator
	cache   *Cache
	logger  *slog.Logger

	defaultStylePath string
	defaultOnce      sync.Once
	defaultStyle     []StyleRule
}

// NewManager creates a view manager. defaultStylePath may be empty, in which
// case the built-in stylesheet is used.
func NewManager(source ModelSource, styles storage.StyleStore, layouts *LayoutGenerator, defaultStylePath string, logger *slog.Logger) *Manager {
	return &Manager{
		source:           source,
		styles:           styles,
		layouts:          layouts,
		cache:            NewCache(),
		logger:           logger.With("component", "views"),
		defaultStylePath: defaultStylePath,
	}
}

// Cache exposes the descriptor cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// InvalidateAll drops every cached view. Call it whenever the model changes.
func (m *Manager) InvalidateAll() {
	m.cache.InvalidateAll()
}

// Descriptor returns the styled descriptor for a view, building and caching
// it on first use.
func (m *Manager) Descriptor(kind models.ViewKind, name string, filterPorts bool) (*Descriptor, error) {
	key := Key{Kind: kind, Name: name, FilterPorts: filterPorts}
	if d, ok := m.cache.Get(key); ok {
		return d, nil
	}

	gen := m.cache.Generation()
	res := m.source.Query(name, kind, filterPorts)
	if res == nil {
		return nil, fmt.Errorf("%w: %s %q", ErrViewNotFound, kind, name)
	}

	d := BuildFrom(res)
	if len(d.Collisions) > 0 {
		m.logger.Warn("port node ids collide, ports left out of view",
			"kind", kind, "name", name, "ids", d.Collisions)
	}
	if style, ok := m.loadStyle(key.StyleKey()); ok {
		d.ApplyStyle(style)
	}
	if !m.cache.Put(key, d, gen) {
		m.logger.Debug("model changed while building view, not cached", "kind", kind, "name", name)
	}

	m.logger.Debug("view built", "kind", kind, "name", name,
		"nodes", len(d.Graph.Nodes), "edges", len(d.Graph.Edges))
	return d, nil
}

// Render returns the drawable form of a view. layoutName selects the
// auto-layout; empty selects the default one.
func (m *Manager) Render(kind models.ViewKind, name string, filterPorts bool, layoutName string) (*Rendered, error) {
	d, err := m.Descriptor(kind, name, filterPorts)
	if err != nil {
		return nil, err
	}

	doc, needLayout := d.GenerateCytoscapeJSON()
	out := &Rendered{
		View:         name,
		Kind:         kind,
		Cytoscape:    doc,
		NeedLayout:   needLayout,
		SimpleGraph:  d.SimpleGraph(),
		DefaultStyle: m.DefaultStyle(),
	}

	if m.layouts != nil {
		layout, err := m.layouts.Select(layoutName)
		switch {
		case err == nil:
			out.Layout = &layout
		case layoutName != "":
			return nil, err
		}
	}
	return out, nil
}

// SaveStyle persists the per-element styles of a view and drops its cached
// descriptors so the next render picks them up.
func (m *Manager) SaveStyle(kind models.ViewKind, name string, doc CytoscapeJSON) (*models.StyleFileInfo, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding style: %w", err)
	}

	key := Key{Kind: kind, Name: name}
	info, err := m.styles.Save(key.StyleKey(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("saving style for %s: %w", key.StyleKey(), err)
	}

	m.cache.InvalidateView(kind, name)
	m.logger.Info("style saved", "view", key.StyleKey(), "size", info.Size)
	return info, nil
}

// Layouts returns the configured auto-layouts.
func (m *Manager) Layouts() []Layout {
	if m.layouts == nil {
		return []Layout{}
	}
	return m.layouts.Available()
}

func (m *Manager) loadStyle(styleKey string) (StyleDescriptor, bool) {
	if m.styles == nil {
		return StyleDescriptor{}, false
	}
	data, _, err := m.styles.Load(styleKey)
	if errors.Is(err, storage.ErrNotFound) {
		return StyleDescriptor{}, false
	}
	if err != nil {
		m.logger.Warn("style unreadable, using none", "view", styleKey, "error", err)
		return StyleDescriptor{}, false
	}

	var doc CytoscapeJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		m.logger.Warn("style file corrupt, using none", "view", styleKey, "error", err)
		return StyleDescriptor{}, false
	}
	return ParseStyleFrom(doc), true
}

// DefaultStyle returns the class-wide stylesheet. It is read once from the
// configured file; a missing or invalid file falls back to the built-in one.
func (m *Manager) DefaultStyle() []StyleRule {
	m.defaultOnce.Do(func() {
		m.defaultStyle = builtinStyle()
		if m.defaultStylePath == "" {
			return
		}
		data, err := os.ReadFile(m.defaultStylePath)
		if err != nil {
			if !os.IsNotExist(err) {
				m.logger.Warn("default style unreadable", "path", m.defaultStylePath, "error", err)
			}
			return
		}
		var rules []StyleRule
		if err := json.Unmarshal(data, &rules); err != nil {
			m.logger.Warn("default style invalid", "path", m.defaultStylePath, "error", err)
			return
		}
		m.defaultStyle = rules
	})
	return m.defaultStyle
}

func builtinStyle() []StyleRule {
	return []StyleRule{
		{Selector: "node", Style: map[string]any{"label": "data(label)", "font-size": 10}},
		{Selector: ".Instance", Style: map[string]any{
			"shape":            "round-rectangle",
			"background-color": "#dfe7f2",
			"border-width":     1,
			"width":            140,
			"height":           70,
			"text-valign":      "center",
		}},
		{Selector: ".Port", Style: map[string]any{
			"shape":            "rectangle",
			"background-color": "#4a6fa5",
			"width":            14,
			"height":           14,
			"font-size":        8,
		}},
		{Selector: ".Port2Port", Style: map[string]any{
			"curve-style":        "bezier",
			"target-arrow-shape": "triangle",
			"width":              2,
		}},
		{Selector: ".Instance2Port", Style: map[string]any{"opacity": 0}},
	}
}
