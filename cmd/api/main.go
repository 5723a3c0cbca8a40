package main

import (
	"context"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"memoir/internal/config"
	"memoir/internal/gallery"
	handlers "memoir/internal/http/handler"
	"memoir/internal/http/middleware"
	"memoir/internal/index"
	"memoir/internal/otel"
	"memoir/internal/storage"
	"memoir/internal/telemetry"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	if !cfg.Blob.Complete() {
		logger.Fatal("incomplete blob storage configuration; set MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET")
	}

	// Tracing is optional: a missing collector degrades to no-op.
	shutdownTracing, err := otel.Init(context.Background(), logger)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}
	if shutdownTracing != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(ctx)
		}()
	}

	objStore, err := storage.NewMinIO(cfg.Blob)
	if err != nil {
		logger.Fatal("failed to initialize object storage", zap.Error(err))
	}

	idx := index.NewBlobStore(objStore)
	svc := gallery.New(idx, objStore, gallery.Config{
		CacheTTL:      time.Duration(cfg.CacheTTLSeconds) * time.Second,
		PublicBaseURL: cfg.PublicBaseURL,
		PresignExpiry: time.Duration(cfg.PresignExpirySec) * time.Second,
	})
	tracker := telemetry.NewTracker(logger, telemetry.NewGeoResolver(logger))

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, idx, svc, tracker)

	addr := ":" + cfg.Port
	logger.Info("starting api", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
