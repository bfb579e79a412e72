package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/fpp-modeler/backend/internal/compiler"
	"github.com/fpp-modeler/backend/internal/config"
	"github.com/fpp-modeler/backend/internal/logging"
	"github.com/fpp-modeler/backend/internal/modeler"
	"github.com/fpp-modeler/backend/internal/session"
	"github.com/fpp-modeler/backend/internal/testutil"
	"github.com/fpp-modeler/backend/internal/view"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const (
	testCompiler = "fpp-to-xml"
	testAnalyzer = "fpp-check"
)

type testEnv struct {
	e      *echo.Echo
	model  *modeler.Manager
	loads  *session.Manager
	runner *compiler.MockRunner
	styles *testutil.MockStyleStore
	hub    *EventHub
	outDir string
}

// newTestEnv wires the full stack behind an echo instance, with the compiler
// replaced by a mock runner that prints the reference model.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logging.Discard()

	runner := compiler.NewMockRunner()
	runner.AddResponse(testCompiler, compiler.MockResponse{Stdout: []byte(testutil.RefXML)})

	cfg := config.DefaultConfig().Model
	cfg.FPPCompilerPath = testCompiler
	cfg.FPPCompilerParameters = ""
	cfg.FPPCompilerOutputPath = ""
	cfg.Analyzers = []config.AnalyzerConfig{{Name: "ids", Path: testAnalyzer, Type: "text"}}

	model := modeler.NewManager(compiler.NewInvoker(cfg, runner, 0, logger), logger)
	_, err := model.LoadModel(context.Background())
	require.NoError(t, err)

	styles := testutil.NewMockStyleStore()
	views := view.NewManager(model, styles, view.NewLayoutGenerator(cfg.AutoLayout), "", logger)
	hub := NewEventHub(logger)
	model.Subscribe(func(modeler.Event) { views.InvalidateAll() })
	model.Subscribe(hub.Publish)

	loads := session.NewManager(model, logger)
	t.Cleanup(loads.Wait)

	env := &testEnv{
		e:      echo.New(),
		model:  model,
		loads:  loads,
		runner: runner,
		styles: styles,
		hub:    hub,
		outDir: t.TempDir(),
	}

	SetupMiddleware(env.e, MiddlewareOptions{})
	handlers := NewHandlers(&Dependencies{
		Model:     model,
		Loads:     loads,
		Views:     views,
		Styles:    styles,
		Hub:       hub,
		OutputDir: env.outDir,
		Version:   "test",
	})
	RegisterRoutes(env.e, handlers)
	RegisterWebSocketRoutes(env.e, handlers)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
