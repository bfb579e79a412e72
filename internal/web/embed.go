// Package web serves the front end bundled into the binary for air-gapped
// deployment. The build copies the front end into dist/ before compiling.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

//go:embed dist/*
var staticFiles embed.FS

// FileSystem returns the embedded filesystem with the dist folder as root.
func FileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "dist")
}

// HasEmbeddedFiles returns true if the front end has been built and embedded.
func HasEmbeddedFiles() bool {
	_, err := fs.Stat(staticFiles, "dist/index.html")
	return err == nil
}

// RegisterStaticRoutes serves the embedded front end. Register the API routes
// first; /api paths never fall through to the front end.
func RegisterStaticRoutes(e *echo.Echo) error {
	fsys, err := FileSystem()
	if err != nil {
		return err
	}
	registerFS(e, fsys)
	return nil
}

// registerFS serves fsys for every non-API path. Paths with no matching file
// get index.html so the front end router can resolve them.
func registerFS(e *echo.Echo, fsys fs.FS) {
	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Root:       ".",
		Index:      "index.html",
		HTML5:      true,
		Filesystem: http.FS(fsys),
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api/")
		},
	}))
}
