package view

import (
	"testing"

	"github.com/fpp-modeler/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(x, y float64) *Position {
	return &Position{X: x, Y: y}
}

func TestParseStyleFrom(t *testing.T) {
	doc := CytoscapeJSON{
		Style: []StyleRule{
			{Selector: "#A.a", Style: map[string]any{"color": "red", "width": 10}},
			{Selector: ".Instance", Style: map[string]any{"shape": "rectangle"}},
			{Selector: "#A.a", Style: map[string]any{"color": "blue"}},
			{Selector: "#A.a_out-A.b_in", Style: map[string]any{"line-color": "green"}},
			{Selector: "#", Style: map[string]any{"ignored": true}},
		},
		Elements: Elements{
			Nodes: []Element{
				{Data: ElementData{ID: "A.a"}, Position: pos(1, 2)},
				{Data: ElementData{ID: "A.b"}, Position: pos(3, 4)},
				{Data: ElementData{ID: "A.c"}},
				{Data: ElementData{ID: "x-y"}, Position: pos(5, 6)},
			},
		},
	}

	s := ParseStyleFrom(doc)

	require.Contains(t, s.Nodes, "A.a")
	assert.Equal(t, map[string]any{"color": "blue", "width": 10}, s.Nodes["A.a"].Style, "later declarations win")
	assert.Equal(t, 1.0, *s.Nodes["A.a"].X)
	assert.Equal(t, 2.0, *s.Nodes["A.a"].Y)

	require.Contains(t, s.Nodes, "A.b", "position alone creates a node entry")
	assert.Empty(t, s.Nodes["A.b"].Style)

	assert.NotContains(t, s.Nodes, "A.c")
	assert.NotContains(t, s.Nodes, "x-y", "positions never attach to edge ids")
	assert.NotContains(t, s.Nodes, "")

	require.Contains(t, s.Edges, "A.a_out-A.b_in")
	assert.Equal(t, "green", s.Edges["A.a_out-A.b_in"].Style["line-color"])
	assert.Len(t, s.Edges, 1)
}

func twoNodeDescriptor() *Descriptor {
	return BuildFrom(&models.QueryResult{
		Instances: []models.Instance{
			{Name: "A.a", Ports: []models.Port{{Name: "out"}}},
			{Name: "A.b", Ports: []models.Port{{Name: "in"}}},
		},
		Connections: []models.Connection{
			{From: models.Endpoint{Instance: "A.a", Port: "out"}, To: &models.Endpoint{Instance: "A.b", Port: "in"}},
		},
	})
}

func TestGenerateCytoscapeJSON(t *testing.T) {
	d := twoNodeDescriptor()

	doc, needLayout := d.GenerateCytoscapeJSON()
	assert.True(t, needLayout, "no positions saved yet")
	assert.Empty(t, doc.Style)
	require.Len(t, doc.Elements.Nodes, 4)
	require.Len(t, doc.Elements.Edges, 3)

	assert.Equal(t, "Instance", doc.Elements.Nodes[0].Classes)
	assert.Equal(t, "out", doc.Elements.Nodes[1].Data.Label)

	last := doc.Elements.Edges[2]
	assert.Equal(t, "A.a_out-A.b_in", last.Data.ID)
	assert.Equal(t, "Port2Port", last.Classes)
	assert.Equal(t, "A.a_out", last.Data.Source)
	assert.Equal(t, "A.b_in", last.Data.Target)
}

func TestStyleRoundTrip(t *testing.T) {
	d := twoNodeDescriptor()

	saved := CytoscapeJSON{
		Style: []StyleRule{
			{Selector: "#A.a", Style: map[string]any{"background-color": "red"}},
			{Selector: "#A.a", Style: map[string]any{"background-color": "blue", "width": 80}},
			{Selector: "#A.a_out-A.b_in", Style: map[string]any{"line-color": "green"}},
			{Selector: "#Gone.x", Style: map[string]any{"color": "black"}},
		},
		Elements: Elements{Nodes: []Element{
			{Data: ElementData{ID: "A.a"}, Position: pos(10, 20)},
			{Data: ElementData{ID: "A.a_out"}, Position: pos(11, 21)},
			{Data: ElementData{ID: "A.b"}, Position: pos(30, 40)},
			{Data: ElementData{ID: "A.b_in"}, Position: pos(31, 41)},
		}},
	}
	d.ApplyStyle(ParseStyleFrom(saved))

	doc, needLayout := d.GenerateCytoscapeJSON()
	assert.False(t, needLayout)

	require.Len(t, doc.Style, 2, "styles of elements not in the graph are not rendered")
	assert.Equal(t, StyleRule{Selector: "#A.a", Style: map[string]any{"background-color": "blue", "width": 80}}, doc.Style[0])
	assert.Equal(t, "#A.a_out-A.b_in", doc.Style[1].Selector)

	assert.Equal(t, pos(10, 20), doc.Elements.Nodes[0].Position)
	for _, e := range doc.Elements.Edges {
		assert.Nil(t, e.Position)
	}

	again := ParseStyleFrom(doc)
	assert.Equal(t, d.Style.Nodes["A.a"].Style, again.Nodes["A.a"].Style)
	assert.Equal(t, *d.Style.Nodes["A.b_in"].X, *again.Nodes["A.b_in"].X)
}

func TestNeedLayoutWhenOneNodeUnplaced(t *testing.T) {
	d := twoNodeDescriptor()
	d.ApplyStyle(ParseStyleFrom(CytoscapeJSON{Elements: Elements{Nodes: []Element{
		{Data: ElementData{ID: "A.a"}, Position: pos(0, 0)},
		{Data: ElementData{ID: "A.a_out"}, Position: pos(0, 0)},
		{Data: ElementData{ID: "A.b"}, Position: pos(0, 0)},
	}}}))

	_, needLayout := d.GenerateCytoscapeJSON()
	assert.True(t, needLayout)
}

func TestNeedLayoutWhenNodeHalfPositioned(t *testing.T) {
	d := twoNodeDescriptor()
	for _, n := range d.Graph.NodeList() {
		x, y := 1.0, 2.0
		d.Style.Nodes[n.ID] = &NodeStyle{Style: map[string]any{}, X: &x, Y: &y}
	}
	_, needLayout := d.GenerateCytoscapeJSON()
	require.False(t, needLayout)

	d.Style.Nodes["A.b"].Y = nil
	doc, needLayout := d.GenerateCytoscapeJSON()
	assert.True(t, needLayout)
	for _, el := range doc.Elements.Nodes {
		if el.Data.ID == "A.b" {
			assert.Nil(t, el.Position)
		}
	}
}
