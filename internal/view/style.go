package view

import (
	"maps"
	"strings"
)

// NodeStyle is the saved style and position of one node.
type NodeStyle struct {
	Style map[string]any `json:"style"`
	X     *float64       `json:"x,omitempty"`
	Y     *float64       `json:"y,omitempty"`
}

// EdgeStyle is the saved style of one edge.
type EdgeStyle struct {
	Style map[string]any `json:"style"`
}

// StyleDescriptor holds per-element styles keyed by element id.
type StyleDescriptor struct {
	Nodes map[string]*NodeStyle `json:"nodes"`
	Edges map[string]*EdgeStyle `json:"edges"`
}

// NewStyleDescriptor creates an empty style overlay.
func NewStyleDescriptor() StyleDescriptor {
	return StyleDescriptor{
		Nodes: make(map[string]*NodeStyle),
		Edges: make(map[string]*EdgeStyle),
	}
}

func (s StyleDescriptor) node(id string) *NodeStyle {
	ns, ok := s.Nodes[id]
	if !ok {
		ns = &NodeStyle{Style: make(map[string]any)}
		s.Nodes[id] = ns
	}
	return ns
}

func (s StyleDescriptor) edge(id string) *EdgeStyle {
	es, ok := s.Edges[id]
	if !ok {
		es = &EdgeStyle{Style: make(map[string]any)}
		s.Edges[id] = es
	}
	return es
}

// CytoscapeJSON is the graph-exchange document shared with the renderer.
type CytoscapeJSON struct {
	Style    []StyleRule `json:"style" msgpack:"style"`
	Elements Elements    `json:"elements" msgpack:"elements"`
}

// StyleRule is one selector with its declarations.
type StyleRule struct {
	Selector string         `json:"selector" msgpack:"selector"`
	Style    map[string]any `json:"style" msgpack:"style"`
}

// Elements lists the graph elements of a CytoscapeJSON document.
type Elements struct {
	Nodes []Element `json:"nodes" msgpack:"nodes"`
	Edges []Element `json:"edges" msgpack:"edges"`
}

// Element is a single node or edge entry.
type Element struct {
	Data     ElementData `json:"data" msgpack:"data"`
	Classes  string      `json:"classes,omitempty" msgpack:"classes,omitempty"`
	Position *Position   `json:"position,omitempty" msgpack:"position,omitempty"`
}

// ElementData carries element identity. Source and Target are set on edges.
type ElementData struct {
	ID     string `json:"id" msgpack:"id"`
	Label  string `json:"label,omitempty" msgpack:"label,omitempty"`
	Source string `json:"source,omitempty" msgpack:"source,omitempty"`
	Target string `json:"target,omitempty" msgpack:"target,omitempty"`
}

// Position is a node location on the canvas.
type Position struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// isEdgeID reports whether id names an edge. Node ids never contain '-';
// edge ids join two node ids with it.
func isEdgeID(id string) bool {
	return strings.Contains(id, "-")
}

// ParseStyleFrom extracts per-element styles from a document. Only "#id"
// selectors are per-element; class-wide selectors belong to the default
// stylesheet and are ignored. Declarations for the same id merge, later ones
// winning. Positions attach only to node ids.
func ParseStyleFrom(doc CytoscapeJSON) StyleDescriptor {
	s := NewStyleDescriptor()

	for _, rule := range doc.Style {
		sel := strings.TrimSpace(rule.Selector)
		if !strings.HasPrefix(sel, "#") || len(sel) == 1 {
			continue
		}
		id := sel[1:]
		if isEdgeID(id) {
			maps.Copy(s.edge(id).Style, rule.Style)
		} else {
			maps.Copy(s.node(id).Style, rule.Style)
		}
	}

	for _, n := range doc.Elements.Nodes {
		if n.Position == nil || n.Data.ID == "" || isEdgeID(n.Data.ID) {
			continue
		}
		ns := s.node(n.Data.ID)
		x, y := n.Position.X, n.Position.Y
		ns.X, ns.Y = &x, &y
	}

	return s
}

// ApplyStyle replaces the descriptor's style overlay. Entries for ids that
// are not in the graph are kept but not rendered, so a style survives a
// rebuild that temporarily hides its element.
func (d *Descriptor) ApplyStyle(s StyleDescriptor) {
	d.Style = s
}

// GenerateCytoscapeJSON renders the graph and its styles. needLayout is true
// when at least one node is missing x or y; a half-positioned node cannot be
// placed and counts as unpositioned.
func (d *Descriptor) GenerateCytoscapeJSON() (doc CytoscapeJSON, needLayout bool) {
	doc.Style = []StyleRule{}
	doc.Elements.Nodes = []Element{}
	doc.Elements.Edges = []Element{}

	for _, n := range d.Graph.NodeList() {
		el := Element{
			Data:    ElementData{ID: n.ID, Label: nodeLabel(n)},
			Classes: string(n.Type),
		}
		ns, ok := d.Style.Nodes[n.ID]
		if ok && len(ns.Style) > 0 {
			doc.Style = append(doc.Style, StyleRule{Selector: "#" + n.ID, Style: maps.Clone(ns.Style)})
		}
		if ok && ns.X != nil && ns.Y != nil {
			el.Position = &Position{X: *ns.X, Y: *ns.Y}
		} else {
			needLayout = true
		}
		doc.Elements.Nodes = append(doc.Elements.Nodes, el)
	}

	for _, e := range d.Graph.EdgeList() {
		if es, ok := d.Style.Edges[e.ID]; ok && len(es.Style) > 0 {
			doc.Style = append(doc.Style, StyleRule{Selector: "#" + e.ID, Style: maps.Clone(es.Style)})
		}
		doc.Elements.Edges = append(doc.Elements.Edges, Element{
			Data:    ElementData{ID: e.ID, Source: e.From, Target: e.To},
			Classes: string(e.Type),
		})
	}

	return doc, needLayout
}

func nodeLabel(n *Node) string {
	if n.Type == NodePort {
		if i := strings.LastIndex(n.ModelID, "."); i >= 0 {
			return n.ModelID[i+1:]
		}
	}
	return n.ModelID
}
