// handlers_view.go - Rendered view, style and layout handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/fpp-modeler/backend/internal/storage"
	"github.com/fpp-modeler/backend/internal/view"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEApplicationMsgpack is the content type of binary view responses.
const MIMEApplicationMsgpack = "application/msgpack"

// ViewHandlerImpl implements the ViewHandler interface
type ViewHandlerImpl struct {
	views  ViewService
	styles storage.StyleStore
}

// NewViewHandler creates a new view handler. styles may be nil, in which case
// the style listing is always empty.
func NewViewHandler(views ViewService, styles storage.StyleStore) ViewHandler {
	return &ViewHandlerImpl{
		views:  views,
		styles: styles,
	}
}

// HandleGetView returns a view as a styled graph document ready to draw
func (h *ViewHandlerImpl) HandleGetView(c echo.Context) error {
	rendered, err := h.render(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rendered)
}

// HandleGetViewMsgpack returns the same document as HandleGetView encoded
// with MessagePack
func (h *ViewHandlerImpl) HandleGetViewMsgpack(c echo.Context) error {
	rendered, err := h.render(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(rendered)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, MIMEApplicationMsgpack, data)
}

func (h *ViewHandlerImpl) render(c echo.Context) (*view.Rendered, error) {
	name := c.Param("name")
	if name == "" {
		return nil, NewValidationError("name")
	}
	kind, filterPorts, err := viewParams(c)
	if err != nil {
		return nil, err
	}
	return h.views.Render(kind, name, filterPorts, c.QueryParam("layout"))
}

// HandleSaveStyle stores the per-element styles and positions of a view
func (h *ViewHandlerImpl) HandleSaveStyle(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return NewValidationError("name")
	}
	kind, _, err := viewParams(c)
	if err != nil {
		return err
	}

	var doc view.CytoscapeJSON
	if err := c.Bind(&doc); err != nil {
		return NewBadRequestError("invalid style document", err)
	}

	info, err := h.views.SaveStyle(kind, name, doc)
	if err != nil {
		return NewInternalError("failed to save style", err)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleListStyles returns the saved view styles, newest first
func (h *ViewHandlerImpl) HandleListStyles(c echo.Context) error {
	if h.styles == nil {
		return c.JSON(http.StatusOK, []interface{}{})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	infos, err := h.styles.List(limit)
	if err != nil {
		return NewInternalError("failed to list styles", err)
	}
	return c.JSON(http.StatusOK, infos)
}

// HandleGetLayouts returns the configured auto-layouts
func (h *ViewHandlerImpl) HandleGetLayouts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.views.Layouts())
}

// HandleGetDefaultStyle returns the class-wide stylesheet
func (h *ViewHandlerImpl) HandleGetDefaultStyle(c echo.Context) error {
	return c.JSON(http.StatusOK, h.views.DefaultStyle())
}
