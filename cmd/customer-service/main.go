package main

import (
	"github.com/brianlane/bizblasts-sub001/internal/customer"
	"github.com/brianlane/bizblasts-sub001/internal/handler"
	"github.com/brianlane/bizblasts-sub001/internal/middleware"
	"github.com/brianlane/bizblasts-sub001/internal/phone"
	"github.com/brianlane/bizblasts-sub001/pkg/config"
	"github.com/brianlane/bizblasts-sub001/pkg/database"
	"github.com/brianlane/bizblasts-sub001/pkg/jwtutil"
	"github.com/brianlane/bizblasts-sub001/pkg/logger"
	"github.com/brianlane/bizblasts-sub001/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const serviceName = "customer-service"

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()
	log.Info("Starting customer service...", cfg.LogConfig()...)

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	normalizer := phone.NewNormalizer(cfg.Identity.PhoneCountryCodes)
	repo := customer.NewGormRepository(db, normalizer)
	linker := customer.NewLinker(
		repo,
		customer.NewConflictDetector(normalizer),
		customer.NewMerger(customer.DefaultDependents),
		normalizer,
		cfg.Identity.EligibleRoles,
	)

	jwtUtil := jwtutil.NewJWTUtil(&cfg.JWT)
	httpMetrics := metrics.NewHTTPMetrics(cfg.Metrics.Prefix)

	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware(log))
	e.Use(httpMetrics.Middleware())

	e.GET("/health", handler.NewHealthHandler(serviceName, db).HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	handler.NewCustomerHandler(linker, cfg.Identity.LookupRoles).RegisterRoutes(e, middleware.JWTAuthMiddleware(jwtUtil))

	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
