package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikkim/littlelemon-backend/config"
	"github.com/ikkim/littlelemon-backend/internal/app/controller"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/app/service"
	"github.com/ikkim/littlelemon-backend/internal/db"
	"github.com/ikkim/littlelemon-backend/internal/middleware"
	"github.com/ikkim/littlelemon-backend/internal/router"
	"github.com/ikkim/littlelemon-backend/internal/scheduler"
	"github.com/ikkim/littlelemon-backend/internal/storage"
	ws "github.com/ikkim/littlelemon-backend/internal/websocket"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/metrics"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"github.com/ikkim/littlelemon-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.IsDevelopment() {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Little Lemon API", logger.Fields{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("Server exited with error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped successfully")
}

func run(ctx context.Context, cfg *config.Config) (err error) {
	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	// Optional backends
	var (
		redisClient *redis.Client
		revoker     service.TokenRevoker
		counter     middleware.Counter
	)
	checks := map[string]controller.Pinger{"database": dbPinger{}}
	if cfg.Redis.Enabled {
		redisClient, err = redis.New(&cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		revoker = redisClient
		counter = redisClient
		checks["redis"] = redisClient
	} else {
		logger.Warn("Redis disabled: throttling and logout are unavailable")
	}

	var objectStorage service.ObjectStorage
	if cfg.S3.Enabled() {
		s3, err := storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return err
		}
		objectStorage = s3
	} else {
		logger.Warn("S3 bucket not configured: menu item image upload is unavailable")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)
	orderMetrics := metrics.NewOrderMetrics(registry)
	jobMetrics := metrics.NewJobMetrics(registry)

	// Initialize repositories
	gdb := db.GetDB()
	userRepo := repository.NewUserRepository(gdb)
	groupRepo := repository.NewGroupRepository(gdb)
	categoryRepo := repository.NewCategoryRepository(gdb)
	menuItemRepo := repository.NewMenuItemRepository(gdb)
	cartRepo := repository.NewCartRepository(gdb)
	orderRepo := repository.NewOrderRepository(gdb)

	hub := ws.NewHub()

	// Initialize services
	authService := service.NewAuthService(userRepo, revoker, cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	userService := service.NewUserService(userRepo, groupRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	menuItemService := service.NewMenuItemService(menuItemRepo, categoryRepo)
	imageService := service.NewImageService(objectStorage, menuItemRepo)
	cartService := service.NewCartService(cartRepo, menuItemRepo)
	orderService := service.NewOrderService(gdb, orderRepo, cartRepo, userRepo, menuItemRepo, hub)
	reportService := service.NewReportService(orderRepo)

	// Initialize controllers
	bounds := pagination.Bounds{Default: cfg.Pagination.DefaultLimit, Max: cfg.Pagination.MaxLimit}
	controllers := router.Controllers{
		Auth:        controller.NewAuthController(authService),
		Users:       controller.NewUserController(userService, bounds),
		Categories:  controller.NewCategoryController(categoryService, bounds),
		MenuItems:   controller.NewMenuItemController(menuItemService, imageService, bounds),
		Cart:        controller.NewCartController(cartService),
		Orders:      controller.NewOrderController(orderService, reportService, bounds),
		OrderEvents: controller.NewOrderEventsController(hub, cfg.CORS.AllowedOrigins),
		Diagnostics: controller.NewDiagnosticsController(checks),
	}

	engine := router.NewRouter(
		controllers,
		middleware.NewAuthMiddleware(authService),
		middleware.NewThrottle(counter, cfg.Throttle.Window),
		httpMetrics,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		cfg,
	).Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	jobs := scheduler.NewOrderMetricsScheduler(cfg.Scheduler.OrderMetricsSpec, orderRepo, orderMetrics, jobMetrics)
	if err := jobs.Start(); err != nil {
		return err
	}
	defer jobs.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("Server started successfully", logger.Fields{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type dbPinger struct{}

func (dbPinger) Ping(ctx context.Context) error {
	sqlDB, err := db.GetDB().DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
