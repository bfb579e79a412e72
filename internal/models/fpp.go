package models

import "strings"

// Argument is one named, typed argument of a port type.
type Argument struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	PassBy string `json:"passBy,omitempty"`
}

// PortType is a reusable port interface shape.
type PortType struct {
	Name      string     `json:"name"` // namespace-qualified
	Namespace string     `json:"namespace"`
	Arguments []Argument `json:"arguments"`
}

// Argument returns the argument with the given name.
func (pt *PortType) Argument(name string) (Argument, bool) {
	for _, arg := range pt.Arguments {
		if arg.Name == name {
			return arg, true
		}
	}
	return Argument{}, false
}

// Port is an instantiation of a port type on a component.
type Port struct {
	Name  string `json:"name"`
	Type  string `json:"type"` // qualified port type name
	Props Props  `json:"properties"`
}

// Component is a software unit type exposing typed ports.
type Component struct {
	Name      string `json:"name"` // namespace-qualified
	Namespace string `json:"namespace"`
	Kind      string `json:"kind"`
	Props     Props  `json:"properties,omitempty"`
	Ports     []Port `json:"ports"`
}

// Port returns the component port with the given name.
func (c *Component) Port(name string) (Port, bool) {
	return findPort(c.Ports, name)
}

// Instance is a concrete instantiation of a component.
type Instance struct {
	Name      string `json:"name"` // namespace-qualified
	Namespace string `json:"namespace"`
	Type      string `json:"type"` // qualified component name
	BaseID    string `json:"baseId"`
	Props     Props  `json:"properties"`
	// Ports is a copy of the component's ports taken when the instance was
	// created. It is not shared with the component.
	Ports []Port `json:"ports"`
}

// Port returns the instance port with the given name.
func (i *Instance) Port(name string) (Port, bool) {
	return findPort(i.Ports, name)
}

// Copy returns a shallow copy with its own port slice and props, so a view
// can trim ports without touching the model.
func (i *Instance) Copy() Instance {
	out := *i
	out.Ports = append([]Port(nil), i.Ports...)
	out.Props = i.Props.Clone()
	return out
}

func findPort(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Endpoint references one side of a connection by name.
type Endpoint struct {
	Instance string `json:"instance"`
	Port     string `json:"port,omitempty"`
}

// Connection joins two instance ports. A connection without To is a half
// connection: an instance placed in a topology with no wiring yet.
type Connection struct {
	From Endpoint  `json:"from"`
	To   *Endpoint `json:"to,omitempty"`
}

// ConnectionKey identifies a full connection within a topology.
type ConnectionKey struct {
	FromInstance, FromPort, ToInstance, ToPort string
}

// Key returns the identifying tuple of the connection.
func (c Connection) Key() ConnectionKey {
	key := ConnectionKey{FromInstance: c.From.Instance, FromPort: c.From.Port}
	if c.To != nil {
		key.ToInstance = c.To.Instance
		key.ToPort = c.To.Port
	}
	return key
}

// IsHalf reports whether the connection has no target.
func (c Connection) IsHalf() bool {
	return c.To == nil
}

// Touches reports whether the connection has instance on either side.
func (c Connection) Touches(instance string) bool {
	return c.From.Instance == instance || (c.To != nil && c.To.Instance == instance)
}

// Topology is a named set of connections.
type Topology struct {
	Name        string       `json:"name"` // namespace-qualified
	Namespace   string       `json:"namespace"`
	Connections []Connection `json:"connections"`
}

// HasConnection reports whether a connection with the same key exists.
func (t *Topology) HasConnection(key ConnectionKey) bool {
	for _, c := range t.Connections {
		if c.Key() == key {
			return true
		}
	}
	return false
}

// QualifiedName joins a namespace and local name.
func QualifiedName(namespace, local string) string {
	if namespace == "" {
		return local
	}
	return namespace + "." + local
}

// SplitQualified splits a name on its first dot.
// Names without a dot have an empty namespace.
func SplitQualified(name string) (namespace, local string) {
	ns, local, ok := strings.Cut(name, ".")
	if !ok {
		return "", name
	}
	return ns, local
}

// LocalName returns the part of a qualified name after the namespace.
func LocalName(name string) string {
	_, local := SplitQualified(name)
	return local
}

// ParseTypeReference parses a component or port type reference that must
// be exactly "namespace.local".
func ParseTypeReference(ref string) (namespace, local string, ok bool) {
	parts := strings.Split(ref, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// EntityKind names a model collection in mutation requests.
type EntityKind string

const (
	EntityPortType  EntityKind = "porttype"
	EntityComponent EntityKind = "component"
	EntityInstance  EntityKind = "instance"
	EntityTopology  EntityKind = "topology"
)
