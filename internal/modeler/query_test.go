package modeler

import (
	"testing"

	"github.com/fpp-modeler/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func portNames(inst models.Instance) []string {
	names := make([]string, len(inst.Ports))
	for i, p := range inst.Ports {
		names[i] = p.Name
	}
	return names
}

func instanceNames(res *models.QueryResult) []string {
	names := make([]string, len(res.Instances))
	for i, inst := range res.Instances {
		names[i] = inst.Name
	}
	return names
}

func TestQueryFunctionView(t *testing.T) {
	m := loadedManager(t)

	t.Run("trims unused ports", func(t *testing.T) {
		res := m.Query("Ref.Command", models.FunctionView, false)
		require.NotNil(t, res)

		assert.Len(t, res.Connections, 3)
		assert.Equal(t, []string{"Ref.cmdDisp", "Ref.SG1", "Ref.SG2"}, instanceNames(res))
		assert.Empty(t, res.Components)

		assert.Equal(t, []string{"compCmdSend", "compCmdStat"}, portNames(res.Instances[0]))
		assert.Equal(t, []string{"cmdIn", "cmdResponseOut"}, portNames(res.Instances[1]))
		assert.Equal(t, []string{"cmdIn"}, portNames(res.Instances[2]))
	})

	t.Run("filterPorts keeps every port", func(t *testing.T) {
		res := m.Query("Ref.Command", models.FunctionView, true)
		require.NotNil(t, res)
		for _, inst := range res.Instances {
			assert.Len(t, inst.Ports, 3, inst.Name)
		}
	})

	t.Run("every returned port is used", func(t *testing.T) {
		res := m.Query("Ref.Command", models.FunctionView, false)
		used := make(map[models.Endpoint]bool)
		for _, c := range res.Connections {
			used[c.From] = true
			if c.To != nil {
				used[*c.To] = true
			}
		}
		for _, inst := range res.Instances {
			for _, p := range inst.Ports {
				assert.True(t, used[models.Endpoint{Instance: inst.Name, Port: p.Name}], "%s.%s", inst.Name, p.Name)
			}
		}
	})

	t.Run("model is not trimmed", func(t *testing.T) {
		m.Query("Ref.Command", models.FunctionView, false)
		m.Read(func(model *models.Model) {
			inst, _ := model.Instances.Get("Ref.SG1")
			assert.Len(t, inst.Ports, 3)
		})
	})

	t.Run("half connection", func(t *testing.T) {
		res := m.Query("Ref.Health", models.FunctionView, false)
		require.NotNil(t, res)
		assert.Equal(t, []string{"Ref.health"}, instanceNames(res))
		assert.Empty(t, res.Instances[0].Ports)
	})

	t.Run("unknown topology", func(t *testing.T) {
		assert.Nil(t, m.Query("Ref.Nope", models.FunctionView, false))
	})
}

func TestQueryComponentView(t *testing.T) {
	m := loadedManager(t)

	res := m.Query("Ref.SignalGen", models.ComponentView, false)
	require.NotNil(t, res)
	require.Len(t, res.Components, 1)
	assert.Equal(t, "Ref.SignalGen", res.Components[0].Name)
	assert.Empty(t, res.Instances)
	assert.Empty(t, res.Connections)

	assert.Nil(t, m.Query("Ref.Nope", models.ComponentView, false))
}

func TestQueryInstanceCentric(t *testing.T) {
	m := loadedManager(t)

	t.Run("neighbours then root", func(t *testing.T) {
		res := m.Query("Ref.SG1", models.InstanceCentricView, false)
		require.NotNil(t, res)

		assert.Len(t, res.Connections, 2)
		assert.Equal(t, []string{"Ref.cmdDisp", "Ref.SG1"}, instanceNames(res))
		assert.Len(t, res.Instances[0].Ports, 3, "no trimming unless filterPorts is set")
	})

	t.Run("filterPorts trims", func(t *testing.T) {
		res := m.Query("Ref.SG1", models.InstanceCentricView, true)
		require.NotNil(t, res)
		assert.Equal(t, []string{"compCmdSend", "compCmdStat"}, portNames(res.Instances[0]))
		assert.Equal(t, []string{"cmdIn", "cmdResponseOut"}, portNames(res.Instances[1]))
	})

	t.Run("half connection", func(t *testing.T) {
		res := m.Query("Ref.health", models.InstanceCentricView, false)
		require.NotNil(t, res)
		assert.Len(t, res.Connections, 1)
		assert.Equal(t, []string{"Ref.health"}, instanceNames(res))
	})

	t.Run("unknown instance", func(t *testing.T) {
		assert.Nil(t, m.Query("Ref.Nope", models.InstanceCentricView, false))
	})
}

func TestQueryInstanceCentricAcrossTopologies(t *testing.T) {
	m := loadedManager(t)
	require.True(t, m.AddConnection("Ref.Health", ep("Ref.cmdDisp", "compCmdSend"), ep("Ref.SG1", "cmdIn")))

	res := m.Query("Ref.SG1", models.InstanceCentricView, false)
	require.NotNil(t, res)
	assert.Len(t, res.Connections, 2, "same connection in two topologies is listed once")
	assert.Equal(t, []string{"Ref.cmdDisp", "Ref.SG1"}, instanceNames(res))
}

func TestQueryUnknownKind(t *testing.T) {
	m := loadedManager(t)
	assert.Nil(t, m.Query("Ref.Command", models.ViewKind("graph"), false))
}
