// handlers_model.go - Model load, query, edit and write handlers
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/fpp-modeler/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// ModelHandlerImpl implements the ModelHandler interface
type ModelHandlerImpl struct {
	model     ModelService
	loads     LoadTracker
	outputDir string
}

// NewModelHandler creates a new model handler. outputDir is where the model
// is written when a write request names no root. loads may be nil, in which
// case asynchronous loads are rejected.
func NewModelHandler(model ModelService, loads LoadTracker, outputDir string) ModelHandler {
	return &ModelHandlerImpl{
		model:     model,
		loads:     loads,
		outputDir: outputDir,
	}
}

type addPortTypeRequest struct {
	Name      string            `json:"name"`
	Arguments []models.Argument `json:"arguments"`
}

type addComponentRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type addInstanceRequest struct {
	Name      string `json:"name"`
	Component string `json:"component"`
}

type addTopologyRequest struct {
	Name string `json:"name"`
}

type addPortRequest struct {
	PortType string `json:"portType"`
}

type placeInstanceRequest struct {
	Instance string `json:"instance"`
}

type addConnectionRequest struct {
	From models.Endpoint `json:"from"`
	To   models.Endpoint `json:"to"`
}

type updateAttributesRequest struct {
	Entity     models.EntityKind `json:"entity"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
}

type writeModelRequest struct {
	Root string `json:"root"`
}

// HandleLoadModel recompiles and reloads the model. With ?async=true the load
// runs in the background and a session is returned for polling.
func (h *ModelHandlerImpl) HandleLoadModel(c echo.Context) error {
	if async, _ := strconv.ParseBool(c.QueryParam("async")); async {
		if h.loads == nil {
			return NewBadRequestError("background loads are not available", nil)
		}
		return c.JSON(http.StatusAccepted, h.loads.StartLoad())
	}

	load := h.model.LoadModel
	if h.loads != nil {
		load = h.loads.Load
	}
	views, err := load(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// HandleLoadStatus returns the state of a background load
func (h *ModelHandlerImpl) HandleLoadStatus(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}
	if h.loads == nil {
		return NewNotFoundError("load session", id)
	}

	sess, ok := h.loads.GetSession(id)
	if !ok {
		return NewNotFoundError("load session", id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleViewList returns the names of every view the model offers
func (h *ModelHandlerImpl) HandleViewList(c echo.Context) error {
	return c.JSON(http.StatusOK, h.model.ViewList())
}

// HandleQuery returns the raw model slice behind a view
func (h *ModelHandlerImpl) HandleQuery(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return NewValidationError("name")
	}
	kind, filterPorts, err := viewParams(c)
	if err != nil {
		return err
	}

	res := h.model.Query(name, kind, filterPorts)
	if res == nil {
		return NewNotFoundError(string(kind)+" view", name)
	}
	return c.JSON(http.StatusOK, res)
}

// HandleAddPortType creates a port type
func (h *ModelHandlerImpl) HandleAddPortType(c echo.Context) error {
	var req addPortTypeRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if !isQualified(req.Name) {
		return NewValidationError("name")
	}
	if !h.model.AddNewPortType(req.Name, req.Arguments) {
		return NewConflictError(fmt.Sprintf("port type %s already exists or has duplicate arguments", req.Name))
	}
	return c.JSON(http.StatusCreated, map[string]string{"name": req.Name})
}

// HandleAddComponent creates a component with no ports
func (h *ModelHandlerImpl) HandleAddComponent(c echo.Context) error {
	var req addComponentRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if !isQualified(req.Name) {
		return NewValidationError("name")
	}
	if !h.model.AddNewComponent(req.Name, req.Kind) {
		return NewConflictError(fmt.Sprintf("component %s already exists", req.Name))
	}
	return c.JSON(http.StatusCreated, map[string]string{"name": req.Name})
}

// HandleAddInstance instantiates a component. An unqualified instance name
// takes the component's namespace.
func (h *ModelHandlerImpl) HandleAddInstance(c echo.Context) error {
	var req addInstanceRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}

	ok, err := h.model.AddNewInstance(req.Name, req.Component)
	if err != nil {
		return err
	}
	if !ok {
		return NewConflictError(fmt.Sprintf("instance %s could not be created from %s", req.Name, req.Component))
	}
	return c.JSON(http.StatusCreated, map[string]string{"name": req.Name})
}

// HandleAddTopology creates an empty function view
func (h *ModelHandlerImpl) HandleAddTopology(c echo.Context) error {
	var req addTopologyRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if !isQualified(req.Name) {
		return NewValidationError("name")
	}
	if !h.model.AddNewFunctionView(req.Name) {
		return NewConflictError(fmt.Sprintf("topology %s already exists", req.Name))
	}
	return c.JSON(http.StatusCreated, map[string]string{"name": req.Name})
}

// HandleDeletePortType removes a port type and every port and connection using it
func (h *ModelHandlerImpl) HandleDeletePortType(c echo.Context) error {
	return h.deleteEntity(c, "port type", h.model.DeletePortType)
}

// HandleDeleteComponent removes a component and its instances
func (h *ModelHandlerImpl) HandleDeleteComponent(c echo.Context) error {
	return h.deleteEntity(c, "component", h.model.DeleteComponent)
}

// HandleDeleteInstance removes an instance and its connections
func (h *ModelHandlerImpl) HandleDeleteInstance(c echo.Context) error {
	return h.deleteEntity(c, "instance", h.model.DeleteInstance)
}

// HandleDeleteTopology removes a topology
func (h *ModelHandlerImpl) HandleDeleteTopology(c echo.Context) error {
	return h.deleteEntity(c, "topology", h.model.DeleteTopology)
}

func (h *ModelHandlerImpl) deleteEntity(c echo.Context, resource string, del func(string) bool) error {
	name := c.Param("name")
	if name == "" {
		return NewValidationError("name")
	}
	if !del(name) {
		return NewNotFoundError(resource, name)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleAddPort adds a port of the given type to a component
func (h *ModelHandlerImpl) HandleAddPort(c echo.Context) error {
	component := c.Param("name")
	var req addPortRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.PortType == "" {
		return NewValidationError("portType")
	}
	if !h.model.AddPortToComponent(component, req.PortType) {
		return NewConflictError(fmt.Sprintf("cannot add %s port to %s", req.PortType, component))
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleAddInstanceToTopology places an unwired instance in a topology
func (h *ModelHandlerImpl) HandleAddInstanceToTopology(c echo.Context) error {
	topology := c.Param("name")
	var req placeInstanceRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Instance == "" {
		return NewValidationError("instance")
	}
	if !h.model.AddInstanceToTopo(topology, req.Instance) {
		return NewConflictError(fmt.Sprintf("cannot place %s in %s", req.Instance, topology))
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleAddConnection wires two instance ports within a topology
func (h *ModelHandlerImpl) HandleAddConnection(c echo.Context) error {
	topology := c.Param("name")
	var req addConnectionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.From.Instance == "" || req.From.Port == "" {
		return NewValidationError("from")
	}
	if req.To.Instance == "" || req.To.Port == "" {
		return NewValidationError("to")
	}
	if !h.model.AddConnection(topology, req.From, req.To) {
		return NewConflictError(fmt.Sprintf("cannot connect %s.%s to %s.%s in %s",
			req.From.Instance, req.From.Port, req.To.Instance, req.To.Port, topology))
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleUpdateAttributes edits the free-form attributes of a component or
// instance. An empty value removes the attribute.
func (h *ModelHandlerImpl) HandleUpdateAttributes(c echo.Context) error {
	var req updateAttributesRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	switch req.Entity {
	case models.EntityComponent, models.EntityInstance:
	default:
		return NewValidationError("entity")
	}
	if req.Name == "" {
		return NewValidationError("name")
	}
	if !h.model.UpdateAttributes(req.Entity, req.Name, req.Attributes) {
		return NewNotFoundError(string(req.Entity), req.Name)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleWriteModel writes the model back out as .fpp sources
func (h *ModelHandlerImpl) HandleWriteModel(c echo.Context) error {
	var req writeModelRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return NewBadRequestError("invalid request body", err)
		}
	}
	root := req.Root
	if root == "" {
		root = h.outputDir
	}
	if root == "" {
		return NewValidationError("root")
	}

	if err := h.model.WriteToFile(c.Request().Context(), root); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "written", "root": root})
}

// HandleRunAnalyzer runs a configured analyzer against the last compiler output
func (h *ModelHandlerImpl) HandleRunAnalyzer(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return NewValidationError("name")
	}

	res, err := h.model.RunAnalyzer(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// viewParams reads the type and filterPorts query parameters shared by the
// query and view endpoints.
func viewParams(c echo.Context) (models.ViewKind, bool, error) {
	kind := models.ParseViewKind(c.QueryParam("type"))
	if c.QueryParam("type") == "" {
		kind = models.FunctionView
	}
	switch kind {
	case models.FunctionView, models.ComponentView, models.InstanceCentricView:
	default:
		return "", false, NewValidationError("type")
	}

	var filterPorts bool
	if raw := c.QueryParam("filterPorts"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return "", false, NewValidationError("filterPorts")
		}
		filterPorts = v
	}
	return kind, filterPorts, nil
}

func isQualified(name string) bool {
	ns, local := models.SplitQualified(name)
	return ns != "" && local != ""
}
