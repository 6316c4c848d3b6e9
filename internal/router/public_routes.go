package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/stagedoor/theatre-ticket-reservation/internal/config"
	"github.com/stagedoor/theatre-ticket-reservation/internal/handler"
	"github.com/stagedoor/theatre-ticket-reservation/internal/middleware"
)

// RegisterPublic registers the unauthenticated reservation surface
// under /v1. Browse routes sit behind the short-TTL response cache;
// the mutation and link routes sit behind the rate limiter only,
// since their responses must never be replayed from cache.
func RegisterPublic(
	e *echo.Echo,
	browse *handler.BrowseHandler,
	reservations *handler.ReservationHandler,
	rdb *redis.Client,
) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	g := e.Group("/v1", limiter)

	g.GET("/performances/:id/schedules", browse.ListSchedules, cache)

	g.POST("/performances/:id/schedules/:sid/reservations", reservations.Create)
	g.GET("/reservations/confirm", reservations.Confirm)
	g.GET("/reservations/cancel", reservations.Cancel)
}
