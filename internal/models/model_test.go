package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProps(t *testing.T) {
	t.Run("set keeps first insertion order", func(t *testing.T) {
		var p Props
		p.Set("direction", "input")
		p.Set("kind", "sync_input")
		p.Set("direction", "output")

		assert.Equal(t, []string{"direction", "kind"}, p.Keys())
		assert.Equal(t, "output", p.Value("direction"))
	})

	t.Run("delete", func(t *testing.T) {
		p := Props{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}
		assert.True(t, p.Delete("a"))
		assert.False(t, p.Delete("a"))
		assert.Equal(t, []string{"b"}, p.Keys())
	})

	t.Run("clone is independent", func(t *testing.T) {
		p := Props{{Key: "a", Value: "1"}}
		c := p.Clone()
		c.Set("a", "2")
		assert.Equal(t, "1", p.Value("a"))
	})

	t.Run("json keeps order", func(t *testing.T) {
		p := Props{{Key: "z", Value: "1"}, {Key: "a", Value: "2"}}
		data, err := json.Marshal(p)
		require.NoError(t, err)
		assert.Equal(t, `{"z":"1","a":"2"}`, string(data))

		var back Props
		require.NoError(t, json.Unmarshal([]byte(`{"z":"1","a":2,"m":true}`), &back))
		assert.Equal(t, []string{"z", "a", "m"}, back.Keys())
		assert.Equal(t, "2", back.Value("a"))
		assert.Equal(t, "true", back.Value("m"))
	})
}

func TestCollection(t *testing.T) {
	c := NewCollection(func(i *Instance) string { return i.Name })

	require.True(t, c.Add(&Instance{Name: "Ref.a"}))
	require.True(t, c.Add(&Instance{Name: "Ref.b"}))
	require.True(t, c.Add(&Instance{Name: "Ref.c"}))
	assert.False(t, c.Add(&Instance{Name: "Ref.b"}), "duplicate names are rejected")

	assert.True(t, c.Remove("Ref.a"))
	assert.False(t, c.Remove("Ref.a"))
	assert.Equal(t, []string{"Ref.b", "Ref.c"}, c.Names())

	inst, ok := c.Get("Ref.c")
	require.True(t, ok)
	assert.Equal(t, "Ref.c", inst.Name)
	assert.Equal(t, 2, c.Len())
}

func TestParseTypeReference(t *testing.T) {
	tests := []struct {
		ref    string
		ns     string
		local  string
		wantOK bool
	}{
		{"Ref.SignalGen", "Ref", "SignalGen", true},
		{"SignalGen", "", "", false},
		{"Ref.Sub.SignalGen", "", "", false},
		{".SignalGen", "", "", false},
		{"Ref.", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			ns, local, ok := ParseTypeReference(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.ns, ns)
			assert.Equal(t, tt.local, local)
		})
	}
}

func TestSplitQualified(t *testing.T) {
	ns, local := SplitQualified("Ref.Sub.x")
	assert.Equal(t, "Ref", ns)
	assert.Equal(t, "Sub.x", local)

	ns, local = SplitQualified("x")
	assert.Equal(t, "", ns)
	assert.Equal(t, "x", local)
}

func TestConnectionKey(t *testing.T) {
	half := Connection{From: Endpoint{Instance: "Ref.a"}}
	full := Connection{
		From: Endpoint{Instance: "Ref.a", Port: "out"},
		To:   &Endpoint{Instance: "Ref.b", Port: "in"},
	}

	assert.True(t, half.IsHalf())
	assert.False(t, full.IsHalf())
	assert.True(t, full.Touches("Ref.b"))
	assert.False(t, half.Touches("Ref.b"))
	assert.Equal(t, ConnectionKey{"Ref.a", "out", "Ref.b", "in"}, full.Key())
}

func TestErrorsMatchSentinels(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", &MalformedTypeReferenceError{Value: "Bad"})
	assert.True(t, errors.Is(wrapped, ErrMalformedTypeReference))
	assert.Contains(t, wrapped.Error(), `"Bad"`)

	assert.True(t, errors.Is(&PortResolutionError{Instance: "Ref.a", Port: "p"}, ErrPortResolution))

	procErr := &ExternalProcessError{Name: "fpp-to-xml", Stderr: "boom", Err: errors.New("exit status 1")}
	assert.True(t, errors.Is(procErr, ErrExternalProcessFailure))
	assert.Contains(t, procErr.Error(), "boom")

	writeErr := errors.Join(&FileWriteError{Path: "a.fpp", Err: errors.New("denied")})
	assert.True(t, errors.Is(writeErr, ErrFileWriteFailure))
}

func TestModelResolveEndpoint(t *testing.T) {
	m := NewModel()
	m.Instances.Add(&Instance{Name: "Ref.a", Ports: []Port{{Name: "out", Type: "Fw.Cmd"}}})

	inst, port, err := m.ResolveEndpoint(Endpoint{Instance: "Ref.a", Port: "out"})
	require.NoError(t, err)
	assert.Equal(t, "Ref.a", inst.Name)
	assert.Equal(t, "Fw.Cmd", port.Type)

	_, _, err = m.ResolveEndpoint(Endpoint{Instance: "Ref.a", Port: "missing"})
	assert.ErrorIs(t, err, ErrPortResolution)

	_, _, err = m.ResolveEndpoint(Endpoint{Instance: "Ref.nope", Port: "out"})
	assert.ErrorIs(t, err, ErrPortResolution)
}
