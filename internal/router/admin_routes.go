package router

import (
	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-ticket-reservation/internal/handler"
	"github.com/stagedoor/theatre-ticket-reservation/internal/middleware"
)

// RegisterAdmin registers the administrative surface under /v1/admin.
// Login is open; everything else requires a session token scoped to
// the performance being administered.
func RegisterAdmin(
	e *echo.Echo,
	auth *handler.AuthHandler,
	performances *handler.AdminPerformanceHandler,
	schedules *handler.AdminScheduleHandler,
	checkin *handler.AdminCheckinHandler,
	jwtSecret string,
) {
	e.POST("/v1/admin/login", auth.Login)

	g := e.Group("/v1/admin", middleware.AdminAuth(jwtSecret))
	g.PATCH("/performances/:id", performances.Update)
	g.PATCH("/schedules/:id", schedules.Update)
	g.GET("/schedules/:id/reservations", schedules.Roster)
	g.PATCH("/attendees/:id/checkin", checkin.Checkin)
}
