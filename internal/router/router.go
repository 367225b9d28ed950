// Package router registers the HTTP routes and their middleware.
package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/handler"
	"github.com/iliyamo/wedding-seating/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, gatherer prometheus.Gatherer) {
	e.GET("/healthz", handler.Health)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// AdminOptions carries what the admin group's middleware needs.  A nil
// Redis client turns caching off.
type AdminOptions struct {
	Auth   config.AuthConfig
	Cache  config.CacheConfig
	Redis  *redis.Client
	Logger *slog.Logger
}

// RegisterAdmin mounts the planner API under /v1/admin.  Every route needs
// a valid token with the admin role; reads are cached and any successful
// write drops the cache.
func RegisterAdmin(e *echo.Echo, s *handler.SeatingHandler, gh *handler.GuestHandler, x *handler.ExportHandler, opts AdminOptions) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(opts.Auth.JWTSecret))
	g.Use(middleware.RequireRole(opts.Auth.AdminRole))
	g.Use(middleware.InvalidateCache(opts.Cache, opts.Redis, opts.Logger))

	cached := middleware.NewRedisCache(opts.Cache, opts.Redis)

	g.GET("/guests", s.ListGuests, cached)
	g.GET("/guests/unassigned", s.UnassignedGuests, cached)
	g.GET("/guests/by-table", s.GuestsByTable, cached)
	g.POST("/guests/refresh", s.RefreshGuests)
	g.DELETE("/guests/:id/seats", s.RemoveBundle)
	g.POST("/guests", gh.Create)
	g.GET("/guests/:id", gh.Get, cached)
	g.PATCH("/guests/:id", gh.Update)
	g.DELETE("/guests/:id", gh.Delete)

	g.GET("/tables", s.ListTables, cached)
	g.GET("/tables/next-number", s.NextTableNumber, cached)
	g.POST("/tables", s.CreateTable)
	g.PATCH("/tables/:id", s.UpdateTable)
	g.DELETE("/tables/:id", s.DeleteTable)

	g.GET("/seating", s.SeatMap, cached)
	g.GET("/seating/:table", s.TableSeats, cached)
	g.POST("/seating/place", s.Place)
	g.POST("/seating/drop", s.Drop)
	g.DELETE("/seating/:table/:seat", s.RemoveOccupant)
	g.PATCH("/seating/:table/:seat", s.RenameCompanion)
	g.GET("/orphans", s.Orphans, cached)

	// Downloads are rendered from live state and are not cached.
	g.GET("/export/layout.json", x.LayoutJSON)
	g.GET("/export/roster.csv", x.RosterCSV)
	g.GET("/export/roster.xlsx", x.RosterXLSX)
	g.GET("/export/plan.png", x.PlanPNG)
	g.POST("/import/layout", x.ImportLayout)
	g.POST("/snapshots", x.PublishSnapshot)
}

// PublicOptions carries what the invitation group's middleware needs.
type PublicOptions struct {
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Logger    *slog.Logger
}

// RegisterPublic mounts the invitation endpoints, rate limited per client.
// An answer changes guest rows, so it drops the admin read cache too.
func RegisterPublic(e *echo.Echo, r *handler.RSVPHandler, opts PublicOptions) {
	g := e.Group("/v1/rsvp",
		middleware.NewTokenBucket(opts.RateLimit, opts.Redis, opts.Logger),
		middleware.InvalidateCache(opts.Cache, opts.Redis, opts.Logger),
	)
	g.GET("/:token", r.Get)
	g.POST("/:token", r.Respond)
}
