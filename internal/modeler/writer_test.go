package modeler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpp-modeler/backend/internal/logging"
	"github.com/fpp-modeler/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWriteToFile(t *testing.T) {
	m := loadedManager(t)
	root := t.TempDir()

	require.NoError(t, m.WriteToFile(context.Background(), root))

	for _, rel := range []string{
		"Fw/Cmd.fpp", "Fw/CmdResponse.fpp",
		"Ref/SignalGen.fpp", "Ref/CmdDispatcher.fpp", "Ref/Health.fpp",
		"Ref/System.fpp",
	} {
		assert.FileExists(t, filepath.Join(root, filepath.FromSlash(rel)))
	}
	assert.NoFileExists(t, filepath.Join(root, "Fw", "System.fpp"))

	t.Run("port type", func(t *testing.T) {
		want := `namespace Fw

porttype Cmd {
    arg opCode:U32
    arg cmdSeq:U32
    arg args:CmdArgBuffer {
        pass_by = ref
    }
}
`
		assert.Equal(t, want, readFile(t, filepath.Join(root, "Fw", "Cmd.fpp")))
	})

	t.Run("component", func(t *testing.T) {
		want := `namespace Ref

component Health {
    kind = queued
    port pingIn:Svc.Ping {
        direction = input
        kind = async_input
    }
}
`
		assert.Equal(t, want, readFile(t, filepath.Join(root, "Ref", "Health.fpp")))
	})

	t.Run("system", func(t *testing.T) {
		want := `namespace Ref

system {
    instance cmdDisp:Ref.CmdDispatcher {
        base_id = 0x0500
        queue_size = 20
        stack_size = 65536
        priority = 101
    }
    instance SG1:Ref.SignalGen {
        base_id = 0x2100
        queue_size = 10
    }
    instance SG2:Ref.SignalGen {
        base_id = 0x2200
    }
    instance health:Ref.Health {
        base_id = 0x2300
    }
    topology Command {
        cmdDisp.compCmdSend -> SG1.cmdIn
        cmdDisp.compCmdSend -> SG2.cmdIn
        SG1.cmdResponseOut -> cmdDisp.compCmdStat
    }
    topology Health {
    }
}
`
		assert.Equal(t, want, readFile(t, filepath.Join(root, "Ref", "System.fpp")))
	})
}

func TestRenderComponentWithTwoPorts(t *testing.T) {
	m := NewManager(nil, logging.Discard())
	require.True(t, m.AddNewPortType("Svc.Ping", []models.Argument{{Name: "key", Type: "U32"}}))
	require.True(t, m.AddNewPortType("Svc.Sched", nil))
	require.True(t, m.AddNewComponent("Svc.Watchdog", "active"))
	require.True(t, m.AddPortToComponent("Svc.Watchdog", "Svc.Ping"))
	require.True(t, m.AddPortToComponent("Svc.Watchdog", "Svc.Sched"))

	var content string
	for _, f := range m.Render() {
		if f.Path == "Svc/Watchdog.fpp" {
			content = f.Content
		}
	}
	require.NotEmpty(t, content)

	var ports []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "port ") {
			ports = append(ports, trimmed)
		}
		assert.False(t, strings.HasPrefix(trimmed, "type ="), line)
		assert.False(t, strings.HasPrefix(trimmed, "name ="), line)
	}
	assert.Equal(t, []string{"port ping:Svc.Ping", "port sched:Svc.Sched"}, ports)
}

func TestRenderSystemCrossNamespace(t *testing.T) {
	a := &models.Instance{Name: "Ref.a", Namespace: "Ref", Type: "Ref.A"}
	topo := &models.Topology{
		Name:      "Ref.T",
		Namespace: "Ref",
		Connections: []models.Connection{
			{From: ep("Ref.a", "out"), To: &models.Endpoint{Instance: "Svc.b", Port: "in"}},
			{From: models.Endpoint{Instance: "Ref.a"}},
		},
	}

	out := RenderSystem("Ref", []*models.Instance{a}, []*models.Topology{topo})
	assert.Contains(t, out, "    instance a:Ref.A\n")
	assert.Contains(t, out, "        a.out -> Svc.b.in\n")
	assert.Equal(t, 1, strings.Count(out, "->"), "half connections are skipped")
}

func TestWriteToFileReportsEveryFailure(t *testing.T) {
	m := loadedManager(t)

	// A regular file where the output root should be makes every write fail.
	root := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0644))

	err := m.WriteToFile(context.Background(), root)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrFileWriteFailure)

	var writeErr *models.FileWriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, 6, strings.Count(err.Error(), "writing "), "one entry per file")
}
