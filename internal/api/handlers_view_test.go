// handlers_view_test.go - Tests for view, style and layout handlers
package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/fpp-modeler/backend/internal/models"
	"github.com/fpp-modeler/backend/internal/view"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func findElement(elements []view.Element, id string) (view.Element, bool) {
	for _, el := range elements {
		if el.Data.ID == id {
			return el, true
		}
	}
	return view.Element{}, false
}

func TestViewHandler_GetView(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/views/Ref.Command", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	r := decode[view.Rendered](t, rec)
	assert.Equal(t, "Ref.Command", r.View)
	assert.Equal(t, models.FunctionView, r.Kind)
	assert.True(t, r.NeedLayout)
	require.NotNil(t, r.Layout)
	assert.Equal(t, "dagre", r.Layout.Name)
	assert.Len(t, r.Cytoscape.Elements.Nodes, 8)
	assert.Len(t, r.Cytoscape.Elements.Edges, 3)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantErr  string
	}{
		{"component view", "/api/views/Ref.SignalGen?type=component", http.StatusOK, ""},
		{"instance view", "/api/views/Ref.SG1?type=instance", http.StatusOK, ""},
		{"named layout", "/api/views/Ref.Command?layout=cose", http.StatusOK, ""},
		{"unknown layout", "/api/views/Ref.Command?layout=nope", http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown view", "/api/views/Ref.Nope", http.StatusNotFound, "VIEW_NOT_FOUND"},
		{"bad type", "/api/views/Ref.Command?type=graph", http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decode[APIError](t, rec).Code)
			}
		})
	}
}

func TestViewHandler_GetViewMsgpack(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/views/Ref.Command/msgpack?filterPorts=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MIMEApplicationMsgpack, rec.Header().Get(echo.HeaderContentType))

	var r view.Rendered
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &r))
	assert.Equal(t, "Ref.Command", r.View)
	assert.Len(t, r.Cytoscape.Elements.Nodes, 3+9, "filterPorts keeps every port")
	assert.Len(t, r.Cytoscape.Elements.Edges, 3)
}

func TestViewHandler_SaveStyle(t *testing.T) {
	env := newTestEnv(t)

	doc := view.CytoscapeJSON{
		Style: []view.StyleRule{
			{Selector: "#Ref.SG1", Style: map[string]any{"background-color": "red"}},
			{Selector: "node", Style: map[string]any{"shape": "round-rectangle"}},
		},
		Elements: view.Elements{
			Nodes: []view.Element{{Data: view.ElementData{ID: "Ref.SG1"}, Position: &view.Position{X: 10, Y: 20}}},
		},
	}

	// Render first so the save has a cached descriptor to invalidate.
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/views/Ref.Command", nil).Code)

	rec := env.do(t, http.MethodPut, "/api/views/Ref.Command/style?type=function", doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	info := decode[models.StyleFileInfo](t, rec)
	assert.Equal(t, "function_Ref.Command", info.View)

	rec = env.do(t, http.MethodGet, "/api/views/Ref.Command", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	r := decode[view.Rendered](t, rec)

	el, ok := findElement(r.Cytoscape.Elements.Nodes, "Ref.SG1")
	require.True(t, ok)
	require.NotNil(t, el.Position)
	assert.Equal(t, 10.0, el.Position.X)
	assert.Equal(t, 20.0, el.Position.Y)
	require.Len(t, r.Cytoscape.Style, 1, "class selectors are not per-view styles")
	assert.Equal(t, "#Ref.SG1", r.Cytoscape.Style[0].Selector)

	rec = env.do(t, http.MethodGet, "/api/styles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	infos := decode[[]models.StyleFileInfo](t, rec)
	require.Len(t, infos, 1)
	assert.Equal(t, info.ID, infos[0].ID)

	t.Run("store failure", func(t *testing.T) {
		env.styles.SaveErr = errors.New("disk full")
		rec := env.do(t, http.MethodPut, "/api/views/Ref.Command/style", doc)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/styles?limit=x", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestViewHandler_Layouts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/layouts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	layouts := decode[[]view.Layout](t, rec)
	require.Len(t, layouts, 2)
	assert.Equal(t, "dagre", layouts[0].Name)

	rec = env.do(t, http.MethodGet, "/api/styles/default", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[[]view.StyleRule](t, rec))
}

func TestViewCacheFollowsModelEdits(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/views/Ref.Command", nil)
	require.Len(t, decode[view.Rendered](t, rec).Cytoscape.Elements.Edges, 3)

	require.True(t, env.model.DeleteInstance("Ref.SG2"))

	rec = env.do(t, http.MethodGet, "/api/views/Ref.Command", nil)
	assert.Len(t, decode[view.Rendered](t, rec).Cytoscape.Elements.Edges, 2)
}
