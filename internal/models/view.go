package models

import (
	"strings"
	"time"
)

// ViewKind selects how the model is sliced for display.
type ViewKind string

const (
	FunctionView        ViewKind = "function"
	ComponentView       ViewKind = "component"
	InstanceCentricView ViewKind = "instance"
)

// ParseViewKind maps user input to a ViewKind. Unknown input is returned
// as-is so callers can treat it as an unrecognized kind.
func ParseViewKind(s string) ViewKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "function", "functionview", "function view", "topology":
		return FunctionView
	case "component", "componentview", "component view":
		return ComponentView
	case "instance", "instancecentric", "instancecentricview", "instancecentric view":
		return InstanceCentricView
	}
	return ViewKind(s)
}

// QueryResult is a view-local slice of the model. Instances are copies.
type QueryResult struct {
	Instances   []Instance   `json:"instances"`
	Connections []Connection `json:"connections"`
	Components  []Component  `json:"components"`
}

// StyleFileInfo describes a persisted per-view style file.
type StyleFileInfo struct {
	ID      string    `json:"id"`
	View    string    `json:"view"`
	Size    int64     `json:"size"`
	SavedAt time.Time `json:"savedAt"`
}
