// Package view derives renderable node/edge graphs from model queries and
// reconciles them with saved per-element styles.
package view

import (
	"fmt"

	"github.com/fpp-modeler/backend/internal/models"
)

// NodeType tags a graph node.
type NodeType string

const (
	NodeInstance NodeType = "Instance"
	NodePort     NodeType = "Port"
)

// EdgeType tags a graph edge.
type EdgeType string

const (
	EdgePort2Port     EdgeType = "Port2Port"
	EdgeInstance2Port EdgeType = "Instance2Port"
)

// Node is a graph vertex. ModelID names the model entity it stands for.
type Node struct {
	ID      string   `json:"id" msgpack:"id"`
	ModelID string   `json:"modelId" msgpack:"modelId"`
	Type    NodeType `json:"type" msgpack:"type"`
}

// Edge joins two nodes by id.
type Edge struct {
	ID      string   `json:"id" msgpack:"id"`
	ModelID string   `json:"modelId" msgpack:"modelId"`
	Type    EdgeType `json:"type" msgpack:"type"`
	From    string   `json:"from" msgpack:"from"`
	To      string   `json:"to" msgpack:"to"`
}

// Graph is an arena of nodes and edges keyed by id. Edges reference nodes
// by id only; every edge endpoint exists in Nodes.
type Graph struct {
	Nodes map[string]*Node
	Edges map[string]*Edge

	nodeOrder []string
	edgeOrder []string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make(map[string]*Edge),
	}
}

// AddNode inserts n. It returns false if a node with that id exists.
func (g *Graph) AddNode(n *Node) bool {
	if _, ok := g.Nodes[n.ID]; ok {
		return false
	}
	g.Nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return true
}

// AddEdge inserts e. Both endpoints must already be nodes of g.
func (g *Graph) AddEdge(e *Edge) error {
	if _, ok := g.Nodes[e.From]; !ok {
		return fmt.Errorf("edge %s: unknown source node %s", e.ID, e.From)
	}
	if _, ok := g.Nodes[e.To]; !ok {
		return fmt.Errorf("edge %s: unknown target node %s", e.ID, e.To)
	}
	if _, ok := g.Edges[e.ID]; ok {
		return fmt.Errorf("edge %s: duplicate id", e.ID)
	}
	g.Edges[e.ID] = e
	g.edgeOrder = append(g.edgeOrder, e.ID)
	return nil
}

// NodeList returns nodes in insertion order.
func (g *Graph) NodeList() []*Node {
	out := make([]*Node, len(g.nodeOrder))
	for i, id := range g.nodeOrder {
		out[i] = g.Nodes[id]
	}
	return out
}

// EdgeList returns edges in insertion order.
func (g *Graph) EdgeList() []*Edge {
	out := make([]*Edge, len(g.edgeOrder))
	for i, id := range g.edgeOrder {
		out[i] = g.Edges[id]
	}
	return out
}

// Descriptor pairs a graph with its style overlay.
type Descriptor struct {
	Graph *Graph
	Style StyleDescriptor
	// Collisions lists port node ids that another owner already produced.
	// Those ports are left out of the graph.
	Collisions []string
}

// PortNodeID is the node id of port on instance.
func PortNodeID(instance, port string) string {
	return instance + "_" + port
}

// EdgeID is the id of the edge between two nodes.
func EdgeID(from, to string) string {
	return from + "-" + to
}

// BuildFrom derives the graph of a query result. Ids are derived from names
// only, so equal model content always yields equal ids and saved styles stay
// attached across rebuilds.
//
// Every instance becomes an Instance node with one Port node and one
// Instance2Port edge per port. Components of a component view are drawn the
// same way. Every connection whose both ends name an existing port becomes a
// Port2Port edge.
func BuildFrom(res *models.QueryResult) *Descriptor {
	d := &Descriptor{Graph: NewGraph(), Style: NewStyleDescriptor()}
	if res == nil {
		return d
	}

	for _, inst := range res.Instances {
		d.addOwner(inst.Name, inst.Ports)
	}
	for _, comp := range res.Components {
		d.addOwner(comp.Name, comp.Ports)
	}

	for _, c := range res.Connections {
		if c.From.Port == "" || c.To == nil || c.To.Port == "" {
			continue
		}
		from := PortNodeID(c.From.Instance, c.From.Port)
		to := PortNodeID(c.To.Instance, c.To.Port)
		// Connections to ports trimmed from the view have no nodes to join.
		_ = d.Graph.AddEdge(&Edge{
			ID:      EdgeID(from, to),
			ModelID: c.From.Instance + "." + c.From.Port + "->" + c.To.Instance + "." + c.To.Port,
			Type:    EdgePort2Port,
			From:    from,
			To:      to,
		})
	}
	return d
}

func (d *Descriptor) addOwner(name string, ports []models.Port) {
	if !d.Graph.AddNode(&Node{ID: name, ModelID: name, Type: NodeInstance}) {
		return
	}
	for _, p := range ports {
		portID := PortNodeID(name, p.Name)
		if !d.Graph.AddNode(&Node{ID: portID, ModelID: name + "." + p.Name, Type: NodePort}) {
			d.Collisions = append(d.Collisions, portID)
			continue
		}
		_ = d.Graph.AddEdge(&Edge{
			ID:      EdgeID(name, portID),
			ModelID: name + "." + p.Name,
			Type:    EdgeInstance2Port,
			From:    name,
			To:      portID,
		})
	}
}

// SimpleGraph maps every instance selector to the selectors of its ports,
// in port order. Instances without ports map to an empty list.
func (d *Descriptor) SimpleGraph() map[string][]string {
	out := make(map[string][]string)
	for _, n := range d.Graph.NodeList() {
		if n.Type == NodeInstance {
			out["#"+n.ID] = []string{}
		}
	}
	for _, e := range d.Graph.EdgeList() {
		if e.Type != EdgeInstance2Port {
			continue
		}
		key := "#" + e.From
		out[key] = append(out[key], "#"+e.To)
	}
	return out
}
