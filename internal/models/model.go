package models

// Collection is an insertion-ordered set of entities indexed by name.
type Collection[T any] struct {
	items []*T
	index map[string]int
	name  func(*T) string
}

// NewCollection creates an empty collection keyed by name(item).
func NewCollection[T any](name func(*T) string) *Collection[T] {
	return &Collection[T]{
		index: make(map[string]int),
		name:  name,
	}
}

// Add inserts item. It returns false if an item with the same name exists.
func (c *Collection[T]) Add(item *T) bool {
	key := c.name(item)
	if _, exists := c.index[key]; exists {
		return false
	}
	c.index[key] = len(c.items)
	c.items = append(c.items, item)
	return true
}

// Get returns the item with the given name.
func (c *Collection[T]) Get(name string) (*T, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.items[i], true
}

// Has reports whether an item with the given name exists.
func (c *Collection[T]) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Remove deletes the named item and reports whether it existed.
func (c *Collection[T]) Remove(name string) bool {
	i, ok := c.index[name]
	if !ok {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, name)
	for j := i; j < len(c.items); j++ {
		c.index[c.name(c.items[j])] = j
	}
	return true
}

// All returns the items in insertion order. The slice must not be modified.
func (c *Collection[T]) All() []*T {
	return c.items
}

// Names returns item names in insertion order.
func (c *Collection[T]) Names() []string {
	names := make([]string, len(c.items))
	for i, item := range c.items {
		names[i] = c.name(item)
	}
	return names
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// Model is the aggregate root for everything loaded from the compiler.
//
// Cross references (instance to component, connection to instance) are
// names looked up through these collections, never pointers, so they stay
// valid across mutations and are re-resolved after every reload.
type Model struct {
	PortTypes  *Collection[PortType]
	Components *Collection[Component]
	Instances  *Collection[Instance]
	Topologies *Collection[Topology]
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{
		PortTypes:  NewCollection(func(p *PortType) string { return p.Name }),
		Components: NewCollection(func(c *Component) string { return c.Name }),
		Instances:  NewCollection(func(i *Instance) string { return i.Name }),
		Topologies: NewCollection(func(t *Topology) string { return t.Name }),
	}
}

// ViewList returns the display names used to populate view pickers.
func (m *Model) ViewList() *ViewList {
	return &ViewList{
		Topologies: m.Topologies.Names(),
		Instances:  m.Instances.Names(),
		Components: m.Components.Names(),
		PortTypes:  m.PortTypes.Names(),
	}
}

// Namespaces returns every namespace that owns at least one entity, in
// first-seen order (port types, components, instances, topologies).
func (m *Model) Namespaces() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(ns string) {
		if !seen[ns] {
			seen[ns] = true
			out = append(out, ns)
		}
	}
	for _, pt := range m.PortTypes.All() {
		add(pt.Namespace)
	}
	for _, c := range m.Components.All() {
		add(c.Namespace)
	}
	for _, i := range m.Instances.All() {
		add(i.Namespace)
	}
	for _, t := range m.Topologies.All() {
		add(t.Namespace)
	}
	return out
}

// ResolveEndpoint looks up the instance and port an endpoint refers to.
func (m *Model) ResolveEndpoint(ep Endpoint) (*Instance, Port, error) {
	inst, ok := m.Instances.Get(ep.Instance)
	if !ok {
		return nil, Port{}, &PortResolutionError{Instance: ep.Instance, Port: ep.Port}
	}
	port, ok := inst.Port(ep.Port)
	if !ok {
		return inst, Port{}, &PortResolutionError{Instance: ep.Instance, Port: ep.Port}
	}
	return inst, port, nil
}

// ViewList holds the names shown in the view pickers.
type ViewList struct {
	Topologies []string `json:"topologies"`
	Instances  []string `json:"instances"`
	Components []string `json:"components"`
	PortTypes  []string `json:"porttypes"`
}
