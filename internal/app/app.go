// Package app assembles the seating service from configuration.  Both the
// HTTP server and seatctl build their dependencies here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/wedding-seating/internal/blob"
	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/database"
	"github.com/iliyamo/wedding-seating/internal/export"
	"github.com/iliyamo/wedding-seating/internal/handler"
	"github.com/iliyamo/wedding-seating/internal/invite"
	"github.com/iliyamo/wedding-seating/internal/layoutstore"
	"github.com/iliyamo/wedding-seating/internal/metrics"
	"github.com/iliyamo/wedding-seating/internal/middleware"
	"github.com/iliyamo/wedding-seating/internal/queue"
	"github.com/iliyamo/wedding-seating/internal/repository"
	"github.com/iliyamo/wedding-seating/internal/router"
	"github.com/iliyamo/wedding-seating/internal/seating"
	"github.com/iliyamo/wedding-seating/internal/service"
)

// Layout is an opened layout store and the resources behind it.
type Layout struct {
	Store  *seating.Store
	closer io.Closer
}

func (l *Layout) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// OpenLayout loads the layout from the configured backend.  A missing or
// corrupt layout loads as empty.
func OpenLayout(ctx context.Context, cfg config.LayoutConfig, rdb *redis.Client, logger *slog.Logger) (*Layout, error) {
	p, closer, err := layoutstore.New(cfg, rdb)
	if err != nil {
		return nil, fmt.Errorf("open layout store: %w", err)
	}
	store, err := seating.LoadStore(ctx, p, logger)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("load layout: %w", err)
	}
	return &Layout{Store: store, closer: closer}, nil
}

// Server holds every long-lived dependency of the HTTP service.
type Server struct {
	Echo     *echo.Echo
	Engine   *seating.Engine
	Registry *prometheus.Registry
	Logger   *slog.Logger

	queue  config.QueueConfig
	db     *sql.DB
	rdb    *redis.Client
	layout *Layout
}

// NewServer connects to the guest directory, Redis, the layout store and
// the blob store, primes the guest cache and registers the routes.
func NewServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{Logger: logger, queue: config.LoadQueueConfig()}

	db, err := database.OpenDirectory(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("connect guest directory: %w", err)
	}
	s.db = db

	s.rdb = config.NewRedisClient()
	if s.rdb == nil {
		logger.Warn("redis unreachable; response cache and rate limiting disabled")
	}

	layoutCfg := config.LoadLayoutConfig()
	s.layout, err = OpenLayout(ctx, layoutCfg, s.rdb, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Registry = prometheus.NewRegistry()
	s.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewSeating(s.Registry)
	events := service.NewPublisher(s.queue, logger)

	dialect := repository.DialectMySQL
	if cfg.Directory.Driver == config.DriverPostgres {
		dialect = repository.DialectPostgres
	}
	guests := repository.NewGuestRepo(db, dialect)

	s.Engine = seating.NewEngine(s.layout.Store, guests,
		seating.WithPublisher(events),
		seating.WithMetrics(m),
		seating.WithLogger(logger),
		seating.WithRotationAwareHitTest(layoutCfg.RotationAwareHitTest),
	)
	if err := s.Engine.RefreshGuests(ctx); err != nil {
		// The cache can be refreshed later from the admin API.
		logger.Warn("initial guest load failed", "error", err)
	}

	var uploader *export.Uploader
	blobCfg := config.LoadBlobConfig()
	if store, err := blob.NewFromConfig(ctx, blobCfg); err != nil {
		logger.Warn("blob store unavailable; snapshot publishing disabled", "backend", blobCfg.Backend, "error", err)
	} else {
		uploader = export.NewUploader(store, blobCfg.Prefix, events, m, logger)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))

	router.RegisterRoutes(e, s.Registry)
	cacheCfg := config.LoadCacheConfig()
	router.RegisterAdmin(e,
		handler.NewSeatingHandler(s.Engine),
		handler.NewGuestHandler(guests, s.Engine, invite.NewBuilder(config.LoadInviteConfig())),
		handler.NewExportHandler(s.layout.Store, uploader),
		router.AdminOptions{Auth: cfg.Auth, Cache: cacheCfg, Redis: s.rdb, Logger: logger},
	)
	router.RegisterPublic(e,
		&handler.RSVPHandler{Guests: guests, OnAnswer: s.Engine.RefreshGuests},
		router.PublicOptions{RateLimit: config.LoadRateLimitConfig(), Cache: cacheCfg, Redis: s.rdb, Logger: logger},
	)
	s.Echo = e
	return s, nil
}

// RunConsumer drains the seating events queue into the audit log until
// ctx ends.  It returns immediately when the queue is disabled.
func (s *Server) RunConsumer(ctx context.Context) {
	if !s.queue.Enabled {
		return
	}
	c := &queue.Consumer{URL: s.queue.URL, Queue: s.queue.Queue, LogDir: s.queue.LogDir, Logger: s.Logger}
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.Logger.Error("seating consumer stopped", "error", err)
	}
}

// Close releases the database, Redis and layout store.
func (s *Server) Close() error {
	var errs []error
	if s.layout != nil {
		errs = append(errs, s.layout.Close())
	}
	if s.rdb != nil {
		errs = append(errs, s.rdb.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
