// Package router registers the HTTP surface on an Echo instance:
// the health check, the public reservation routes and the
// performance-scoped admin routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-ticket-reservation/internal/handler"
)

// RegisterRoutes registers routes that carry no middleware. Currently
// that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
