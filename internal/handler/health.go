// Package handler contains the HTTP handlers: the public reservation
// surface (browse, admit, confirm, cancel) and the performance-scoped
// administrative surface. Handlers translate between HTTP and the
// booking engine; business rules live in internal/booking.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by load balancers and
// monitoring. It returns "ok" with a 200 status.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
