package view

import (
	"errors"
	"fmt"

	"github.com/fpp-modeler/backend/internal/config"
)

var (
	// ErrNoLayout is returned when no auto-layout is configured.
	ErrNoLayout = errors.New("no auto-layout configured")
	// ErrUnknownLayout is returned when a layout is requested by a name that
	// is not configured.
	ErrUnknownLayout = errors.New("unknown layout")
)

// Layout is the algorithm name and parameters handed to the renderer.
type Layout struct {
	Name       string            `json:"name" msgpack:"name"`
	Parameters map[string]string `json:"parameters" msgpack:"parameters"`
}

// LayoutGenerator selects among the configured auto-layouts.
type LayoutGenerator struct {
	layouts []config.LayoutConfig
}

// NewLayoutGenerator creates a generator over the configured layouts.
func NewLayoutGenerator(layouts []config.LayoutConfig) *LayoutGenerator {
	return &LayoutGenerator{layouts: layouts}
}

// Select returns the layout with the given name. An empty name selects the
// default layout, or the first one when none is marked default.
func (g *LayoutGenerator) Select(name string) (Layout, error) {
	if len(g.layouts) == 0 {
		return Layout{}, ErrNoLayout
	}

	if name != "" {
		for _, l := range g.layouts {
			if l.Name == name {
				return toLayout(l), nil
			}
		}
		return Layout{}, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}

	for _, l := range g.layouts {
		if l.Default {
			return toLayout(l), nil
		}
	}
	return toLayout(g.layouts[0]), nil
}

// Available returns every configured layout.
func (g *LayoutGenerator) Available() []Layout {
	out := make([]Layout, len(g.layouts))
	for i, l := range g.layouts {
		out[i] = toLayout(l)
	}
	return out
}

func toLayout(l config.LayoutConfig) Layout {
	return Layout{Name: l.Name, Parameters: l.ParamMap()}
}
