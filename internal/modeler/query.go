package modeler

import "github.com/fpp-modeler/backend/internal/models"

// Query slices the model for one view. It returns nil for an unknown view
// kind or a view name that does not exist. Returned instances and
// connections are copies; trimming their ports never touches the model.
//
// For a function view, ports not used by a connection in the topology are
// dropped unless filterPorts is set. For an instance-centric view, the same
// trimming applies only when filterPorts is set.
func (m *Manager) Query(viewName string, kind models.ViewKind, filterPorts bool) *models.QueryResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch kind {
	case models.FunctionView:
		return queryFunctionView(m.model, viewName, filterPorts)
	case models.ComponentView:
		return queryComponentView(m.model, viewName)
	case models.InstanceCentricView:
		return queryInstanceCentric(m.model, viewName, filterPorts)
	}
	return nil
}

func newQueryResult() *models.QueryResult {
	return &models.QueryResult{
		Instances:   []models.Instance{},
		Connections: []models.Connection{},
		Components:  []models.Component{},
	}
}

func queryFunctionView(model *models.Model, name string, filterPorts bool) *models.QueryResult {
	topo, ok := model.Topologies.Get(name)
	if !ok {
		return nil
	}

	res := newQueryResult()
	seen := make(map[string]bool)
	collect := func(instName string) {
		if seen[instName] {
			return
		}
		seen[instName] = true
		if inst, ok := model.Instances.Get(instName); ok {
			res.Instances = append(res.Instances, inst.Copy())
		}
	}

	for _, c := range topo.Connections {
		res.Connections = append(res.Connections, copyConnection(c))
		collect(c.From.Instance)
		if c.To != nil {
			collect(c.To.Instance)
		}
	}

	if !filterPorts {
		trimUnusedPorts(res.Instances, res.Connections)
	}
	return res
}

func queryComponentView(model *models.Model, name string) *models.QueryResult {
	res := newQueryResult()
	for _, comp := range model.Components.All() {
		if comp.Name == name {
			c := *comp
			c.Ports = append([]models.Port(nil), comp.Ports...)
			c.Props = comp.Props.Clone()
			res.Components = append(res.Components, c)
		}
	}
	if len(res.Components) == 0 {
		return nil
	}
	return res
}

func queryInstanceCentric(model *models.Model, name string, filterPorts bool) *models.QueryResult {
	root, ok := model.Instances.Get(name)
	if !ok {
		return nil
	}

	res := newQueryResult()
	seenInst := map[string]bool{root.Name: true}
	seenConn := make(map[models.ConnectionKey]bool)
	collect := func(instName string) {
		if seenInst[instName] {
			return
		}
		seenInst[instName] = true
		if inst, ok := model.Instances.Get(instName); ok {
			res.Instances = append(res.Instances, inst.Copy())
		}
	}

	// A connection wired in several topologies is listed once: the view
	// graph keys edges by endpoints, so a repeat would draw nothing new.
	for _, topo := range model.Topologies.All() {
		for _, c := range topo.Connections {
			if !c.Touches(root.Name) || seenConn[c.Key()] {
				continue
			}
			seenConn[c.Key()] = true
			res.Connections = append(res.Connections, copyConnection(c))
			collect(c.From.Instance)
			if c.To != nil {
				collect(c.To.Instance)
			}
		}
	}
	res.Instances = append(res.Instances, root.Copy())

	if filterPorts {
		trimUnusedPorts(res.Instances, res.Connections)
	}
	return res
}

// trimUnusedPorts drops every port not named by one of conns.
func trimUnusedPorts(instances []models.Instance, conns []models.Connection) {
	used := make(map[models.Endpoint]bool)
	for _, c := range conns {
		if c.From.Port != "" {
			used[c.From] = true
		}
		if c.To != nil {
			used[*c.To] = true
		}
	}

	for i := range instances {
		inst := &instances[i]
		kept := inst.Ports[:0]
		for _, p := range inst.Ports {
			if used[models.Endpoint{Instance: inst.Name, Port: p.Name}] {
				kept = append(kept, p)
			}
		}
		inst.Ports = kept
	}
}

func copyConnection(c models.Connection) models.Connection {
	if c.To != nil {
		to := *c.To
		c.To = &to
	}
	return c
}
