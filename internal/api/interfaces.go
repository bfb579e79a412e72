// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/fpp-modeler/backend/internal/compiler"
	"github.com/fpp-modeler/backend/internal/models"
	"github.com/fpp-modeler/backend/internal/view"
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ModelHandler handles model load, query, edit and write operations
type ModelHandler interface {
	HandleLoadModel(c echo.Context) error
	HandleLoadStatus(c echo.Context) error
	HandleViewList(c echo.Context) error
	HandleQuery(c echo.Context) error
	HandleAddPortType(c echo.Context) error
	HandleAddComponent(c echo.Context) error
	HandleAddInstance(c echo.Context) error
	HandleAddTopology(c echo.Context) error
	HandleDeletePortType(c echo.Context) error
	HandleDeleteComponent(c echo.Context) error
	HandleDeleteInstance(c echo.Context) error
	HandleDeleteTopology(c echo.Context) error
	HandleAddPort(c echo.Context) error
	HandleAddInstanceToTopology(c echo.Context) error
	HandleAddConnection(c echo.Context) error
	HandleUpdateAttributes(c echo.Context) error
	HandleWriteModel(c echo.Context) error
	HandleRunAnalyzer(c echo.Context) error
}

// ViewHandler handles rendered views, styles and layouts
type ViewHandler interface {
	HandleGetView(c echo.Context) error
	HandleGetViewMsgpack(c echo.Context) error
	HandleSaveStyle(c echo.Context) error
	HandleListStyles(c echo.Context) error
	HandleGetLayouts(c echo.Context) error
	HandleGetDefaultStyle(c echo.Context) error
}

// ModelService is the model manager as seen by the handlers.
// This allows mocking in tests
type ModelService interface {
	LoadModel(ctx context.Context) (*models.ViewList, error)
	ViewList() *models.ViewList
	Query(viewName string, kind models.ViewKind, filterPorts bool) *models.QueryResult

	AddNewPortType(name string, args []models.Argument) bool
	AddNewComponent(name, kind string) bool
	AddNewInstance(name, component string) (bool, error)
	AddNewFunctionView(name string) bool
	DeletePortType(name string) bool
	DeleteComponent(name string) bool
	DeleteInstance(name string) bool
	DeleteTopology(name string) bool
	AddPortToComponent(component, portType string) bool
	AddInstanceToTopo(topology, instance string) bool
	AddConnection(topology string, from, to models.Endpoint) bool
	UpdateAttributes(entity models.EntityKind, name string, attrs map[string]string) bool

	WriteToFile(ctx context.Context, root string) error
	RunAnalyzer(ctx context.Context, name string) (*compiler.Analysis, error)
}

// LoadTracker runs model loads one at a time, in the background or in the
// caller's goroutine.
type LoadTracker interface {
	Load(ctx context.Context) (*models.ViewList, error)
	StartLoad() *models.LoadSession
	GetSession(id string) (*models.LoadSession, bool)
}

// ViewService renders views and persists their styles.
type ViewService interface {
	Render(kind models.ViewKind, name string, filterPorts bool, layoutName string) (*view.Rendered, error)
	SaveStyle(kind models.ViewKind, name string, doc view.CytoscapeJSON) (*models.StyleFileInfo, error)
	Layouts() []view.Layout
	DefaultStyle() []view.StyleRule
}
