package parser

import (
	"fmt"
	"strings"

	"github.com/fpp-modeler/backend/internal/models"
)

// Translate maps parsed compiler XML into a fresh model.
//
// Port types and components are extracted for every namespace first so
// instances can reference components declared in any namespace. Instances
// and topologies are only extracted from namespaces with a system section.
func Translate(raw *CompilerXML) (*models.Model, error) {
	if raw == nil || len(raw.Namespaces) == 0 {
		return nil, models.ErrEmptyModelData
	}

	systems := 0
	for _, ns := range raw.Namespaces {
		systems += len(ns.Systems)
	}
	if systems > 1 {
		return nil, fmt.Errorf("%w: found %d", models.ErrMultipleSystemSections, systems)
	}

	m := models.NewModel()
	strs := NewStringIntern()

	for _, ns := range raw.Namespaces {
		namespace := strs.Intern(ns.Name)
		for _, el := range ns.PortTypes {
			m.PortTypes.Add(translatePortType(strs, namespace, el))
		}
		for _, el := range ns.Components {
			m.Components.Add(translateComponent(strs, namespace, el))
		}
	}

	for _, ns := range raw.Namespaces {
		if len(ns.Systems) == 0 {
			continue
		}
		sys := ns.Systems[0]
		namespace := strs.Intern(ns.Name)

		for _, el := range sys.Instances {
			inst, err := translateInstance(strs, m, namespace, el)
			if err != nil {
				return nil, fmt.Errorf("namespace %s: %w", namespace, err)
			}
			m.Instances.Add(inst)
		}
		for _, el := range sys.Topologies {
			topo, err := translateTopology(m, namespace, el)
			if err != nil {
				return nil, fmt.Errorf("namespace %s: topology %s: %w", namespace, el.Name, err)
			}
			m.Topologies.Add(topo)
		}
	}

	return m, nil
}

func translatePortType(strs *StringIntern, namespace string, el PortTypeElement) *models.PortType {
	pt := &models.PortType{
		Name:      models.QualifiedName(namespace, el.Name),
		Namespace: namespace,
		Arguments: make([]models.Argument, 0, len(el.Args)),
	}
	for _, arg := range el.Args {
		pt.Arguments = append(pt.Arguments, models.Argument{
			Name:   arg.Name,
			Type:   strs.Intern(arg.Type),
			PassBy: strs.Intern(arg.PassBy),
		})
	}
	return pt
}

func translateComponent(strs *StringIntern, namespace string, el ComponentElement) *models.Component {
	comp := &models.Component{
		Name:      models.QualifiedName(namespace, el.Name),
		Namespace: namespace,
		Kind:      strs.Intern(el.Kind),
		Props:     attrMap(strs, el.Attrs),
		Ports:     make([]models.Port, 0, len(el.Ports)),
	}
	comp.Props.Delete(models.KeyNamespace)

	for _, p := range el.Ports {
		comp.Ports = append(comp.Ports, translatePort(strs, p))
	}
	return comp
}

func translatePort(strs *StringIntern, el PortElement) models.Port {
	props := attrMap(strs, el.Attrs)
	port := models.Port{
		Name: props.Value(models.KeyName),
		Type: props.Value(models.KeyType),
	}
	props.Delete(models.KeyName)
	props.Delete(models.KeyType)
	port.Props = props
	return port
}

func translateInstance(strs *StringIntern, m *models.Model, namespace string, el InstanceElement) (*models.Instance, error) {
	props := attrMap(strs, el.Attrs)

	typeRef, _ := props.Get(models.KeyType)
	compNS, compLocal, ok := models.ParseTypeReference(typeRef)
	if !ok {
		return nil, &models.MalformedTypeReferenceError{Value: typeRef}
	}

	inst := &models.Instance{
		Name:      models.QualifiedName(namespace, props.Value(models.KeyName)),
		Namespace: namespace,
		Type:      typeRef,
		BaseID:    props.Value(models.KeyBaseID),
	}
	for _, key := range []string{models.KeyName, models.KeyBaseID, models.KeyType, models.KeyNamespace} {
		props.Delete(key)
	}
	inst.Props = props

	if comp, ok := m.Components.Get(models.QualifiedName(compNS, compLocal)); ok && comp.Namespace == compNS {
		inst.Ports = append([]models.Port(nil), comp.Ports...)
	} else {
		inst.Ports = []models.Port{}
	}

	return inst, nil
}

func translateTopology(m *models.Model, namespace string, el TopologyElement) (*models.Topology, error) {
	topo := &models.Topology{
		Name:        models.QualifiedName(namespace, el.Name),
		Namespace:   namespace,
		Connections: make([]models.Connection, 0, len(el.Connections)),
	}

	for _, c := range el.Connections {
		from, err := resolveEndpoint(m, namespace, c.Source, false)
		if err != nil {
			return nil, err
		}
		conn := models.Connection{From: from}
		if c.Target != nil {
			to, err := resolveEndpoint(m, namespace, *c.Target, true)
			if err != nil {
				return nil, err
			}
			conn.To = &to
		}
		topo.Connections = append(topo.Connections, conn)
	}

	return topo, nil
}

// resolveEndpoint qualifies the instance reference and checks the port
// exists on it. A source endpoint with no port is allowed (half connection).
func resolveEndpoint(m *models.Model, namespace string, el EndpointElement, requirePort bool) (models.Endpoint, error) {
	name := el.Instance
	if !strings.Contains(name, ".") {
		name = models.QualifiedName(namespace, name)
	}
	ep := models.Endpoint{Instance: name, Port: el.Port}

	inst, ok := m.Instances.Get(name)
	if !ok {
		return ep, &models.PortResolutionError{Instance: name, Port: el.Port}
	}
	if el.Port == "" && !requirePort {
		return ep, nil
	}
	if _, ok := inst.Port(el.Port); !ok {
		return ep, &models.PortResolutionError{Instance: name, Port: el.Port}
	}
	return ep, nil
}
