package modeler

import (
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/fpp-modeler/backend/internal/models"
)

// Mutations return false, leaving the model untouched, when a precondition
// does not hold. AddNewInstance is the one exception that also reports a
// malformed component reference as an error.

// mutate runs fn under the write lock and publishes a change event if fn
// reports success.
func (m *Manager) mutate(entity models.EntityKind, name string, fn func(model *models.Model) bool) bool {
	m.mu.Lock()
	ok := fn(m.model)
	m.mu.Unlock()

	if ok {
		m.logger.Debug("model changed", "entity", entity, "name", name)
		m.publish(Event{Kind: EventChanged, Entity: entity, Name: name})
	}
	return ok
}

// AddNewPortType adds a port type. name must be namespace-qualified and
// argument names must be unique.
func (m *Manager) AddNewPortType(name string, args []models.Argument) bool {
	ns, local := models.SplitQualified(name)
	if ns == "" || local == "" {
		return false
	}
	seen := make(map[string]bool, len(args))
	for _, a := range args {
		if a.Name == "" || seen[a.Name] {
			return false
		}
		seen[a.Name] = true
	}

	return m.mutate(models.EntityPortType, name, func(model *models.Model) bool {
		return model.PortTypes.Add(&models.PortType{
			Name:      name,
			Namespace: ns,
			Arguments: append([]models.Argument{}, args...),
		})
	})
}

// AddNewComponent adds a component with no ports. name must be
// namespace-qualified.
func (m *Manager) AddNewComponent(name, kind string) bool {
	ns, local := models.SplitQualified(name)
	if ns == "" || local == "" {
		return false
	}

	return m.mutate(models.EntityComponent, name, func(model *models.Model) bool {
		return model.Components.Add(&models.Component{
			Name:      name,
			Namespace: ns,
			Kind:      kind,
			Props:     models.Props{},
			Ports:     []models.Port{},
		})
	})
}

// AddNewInstance adds an instance of component. component must be exactly
// "namespace.local" or ErrInvalidTypeFormat is returned. A name without a
// namespace is placed in the component's namespace. The instance starts
// with a copy of the component's ports.
func (m *Manager) AddNewInstance(name, component string) (bool, error) {
	compNS, _, ok := models.ParseTypeReference(component)
	if !ok {
		return false, fmt.Errorf("%w: %q", models.ErrInvalidTypeFormat, component)
	}
	if name == "" {
		return false, nil
	}

	ns, local := models.SplitQualified(name)
	if ns == "" {
		ns = compNS
		name = models.QualifiedName(ns, local)
	}

	added := m.mutate(models.EntityInstance, name, func(model *models.Model) bool {
		comp, ok := model.Components.Get(component)
		if !ok || model.Instances.Has(name) {
			return false
		}
		return model.Instances.Add(&models.Instance{
			Name:      name,
			Namespace: ns,
			Type:      comp.Name,
			Props:     models.Props{},
			Ports:     append([]models.Port{}, comp.Ports...),
		})
	})
	return added, nil
}

// AddNewFunctionView adds an empty topology. name must be
// namespace-qualified.
func (m *Manager) AddNewFunctionView(name string) bool {
	ns, local := models.SplitQualified(name)
	if ns == "" || local == "" {
		return false
	}

	return m.mutate(models.EntityTopology, name, func(model *models.Model) bool {
		return model.Topologies.Add(&models.Topology{
			Name:        name,
			Namespace:   ns,
			Connections: []models.Connection{},
		})
	})
}

// DeletePortType removes a port type together with every port of that type
// and every connection made over such a port.
func (m *Manager) DeletePortType(name string) bool {
	return m.mutate(models.EntityPortType, name, func(model *models.Model) bool {
		if !model.PortTypes.Remove(name) {
			return false
		}

		ofType := func(p models.Port) bool { return p.Type == name }
		for _, comp := range model.Components.All() {
			comp.Ports = removePorts(comp.Ports, ofType)
		}

		dropped := make(map[models.Endpoint]bool)
		for _, inst := range model.Instances.All() {
			for _, p := range inst.Ports {
				if ofType(p) {
					dropped[models.Endpoint{Instance: inst.Name, Port: p.Name}] = true
				}
			}
			inst.Ports = removePorts(inst.Ports, ofType)
		}

		dropConnections(model, func(c models.Connection) bool {
			return dropped[c.From] || (c.To != nil && dropped[*c.To])
		})
		return true
	})
}

// DeleteComponent removes a component and every instance of it.
func (m *Manager) DeleteComponent(name string) bool {
	return m.mutate(models.EntityComponent, name, func(model *models.Model) bool {
		if !model.Components.Remove(name) {
			return false
		}
		var orphans []string
		for _, inst := range model.Instances.All() {
			if inst.Type == name {
				orphans = append(orphans, inst.Name)
			}
		}
		for _, inst := range orphans {
			removeInstance(model, inst)
		}
		return true
	})
}

// DeleteInstance removes an instance and every connection touching it.
func (m *Manager) DeleteInstance(name string) bool {
	return m.mutate(models.EntityInstance, name, func(model *models.Model) bool {
		return removeInstance(model, name)
	})
}

// DeleteTopology removes a topology.
func (m *Manager) DeleteTopology(name string) bool {
	return m.mutate(models.EntityTopology, name, func(model *models.Model) bool {
		return model.Topologies.Remove(name)
	})
}

// AddPortToComponent adds a port of portType to component and to every
// existing instance of it. The port is named after the port type's local
// name with its first letter lower-cased; a port with that name must not
// already exist on the component.
func (m *Manager) AddPortToComponent(component, portType string) bool {
	return m.mutate(models.EntityComponent, component, func(model *models.Model) bool {
		comp, ok := model.Components.Get(component)
		if !ok {
			return false
		}
		pt, ok := model.PortTypes.Get(portType)
		if !ok {
			return false
		}

		portName := lowerFirst(models.LocalName(pt.Name))
		if _, exists := comp.Port(portName); exists {
			return false
		}

		port := models.Port{Name: portName, Type: pt.Name, Props: models.Props{}}
		comp.Ports = append(comp.Ports, port)
		for _, inst := range model.Instances.All() {
			if inst.Type != comp.Name {
				continue
			}
			if _, exists := inst.Port(portName); !exists {
				inst.Ports = append(inst.Ports, port)
			}
		}
		return true
	})
}

// AddInstanceToTopo places instance in topology as a half connection. It
// fails if the instance already appears in the topology.
func (m *Manager) AddInstanceToTopo(topology, instance string) bool {
	return m.mutate(models.EntityTopology, topology, func(model *models.Model) bool {
		topo, ok := model.Topologies.Get(topology)
		if !ok || !model.Instances.Has(instance) {
			return false
		}
		for _, c := range topo.Connections {
			if c.Touches(instance) {
				return false
			}
		}
		topo.Connections = append(topo.Connections, models.Connection{
			From: models.Endpoint{Instance: instance},
		})
		return true
	})
}

// AddConnection connects two instance ports in topology. Both endpoints
// must resolve and the same connection must not already exist. Half
// connections placeholding either instance are replaced by the new one.
func (m *Manager) AddConnection(topology string, from, to models.Endpoint) bool {
	return m.mutate(models.EntityTopology, topology, func(model *models.Model) bool {
		topo, ok := model.Topologies.Get(topology)
		if !ok {
			return false
		}
		if _, _, err := model.ResolveEndpoint(from); err != nil {
			return false
		}
		if _, _, err := model.ResolveEndpoint(to); err != nil {
			return false
		}

		conn := models.Connection{From: from, To: &to}
		if topo.HasConnection(conn.Key()) {
			return false
		}

		kept := topo.Connections[:0]
		for _, c := range topo.Connections {
			if c.IsHalf() && (c.From.Instance == from.Instance || c.From.Instance == to.Instance) {
				continue
			}
			kept = append(kept, c)
		}
		topo.Connections = append(kept, conn)
		return true
	})
}

// UpdateAttributes sets attributes on an instance or component. An empty
// value removes the attribute. For instances base_id updates the base id;
// for components kind updates the kind. name, type and namespace cannot be
// changed this way and are ignored.
func (m *Manager) UpdateAttributes(entity models.EntityKind, name string, attrs map[string]string) bool {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return m.mutate(entity, name, func(model *models.Model) bool {
		switch entity {
		case models.EntityInstance:
			inst, ok := model.Instances.Get(name)
			if !ok {
				return false
			}
			for _, k := range keys {
				switch {
				case k == models.KeyBaseID:
					inst.BaseID = attrs[k]
				case models.IsReservedKey(k):
				default:
					setProp(&inst.Props, k, attrs[k])
				}
			}
			return true

		case models.EntityComponent:
			comp, ok := model.Components.Get(name)
			if !ok {
				return false
			}
			for _, k := range keys {
				switch {
				case k == models.KeyKind:
					comp.Kind = attrs[k]
				case models.IsReservedKey(k):
				default:
					setProp(&comp.Props, k, attrs[k])
				}
			}
			return true
		}
		return false
	})
}

func setProp(p *models.Props, key, value string) {
	if value == "" {
		p.Delete(key)
		return
	}
	p.Set(key, value)
}

func removeInstance(model *models.Model, name string) bool {
	if !model.Instances.Remove(name) {
		return false
	}
	dropConnections(model, func(c models.Connection) bool { return c.Touches(name) })
	return true
}

func dropConnections(model *models.Model, drop func(models.Connection) bool) {
	for _, topo := range model.Topologies.All() {
		kept := topo.Connections[:0]
		for _, c := range topo.Connections {
			if !drop(c) {
				kept = append(kept, c)
			}
		}
		topo.Connections = kept
	}
}

func removePorts(ports []models.Port, drop func(models.Port) bool) []models.Port {
	kept := ports[:0]
	for _, p := range ports {
		if !drop(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
