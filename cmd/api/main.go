package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"recordapi/internal/attachment"
	"recordapi/internal/config"
	"recordapi/internal/database"
	"recordapi/internal/database/migration"
	handlers "recordapi/internal/http/handler"
	"recordapi/internal/http/middleware"
	"recordapi/internal/imaging"
	"recordapi/internal/logger"
	"recordapi/internal/otel"
	"recordapi/internal/repository"
	"recordapi/internal/repository/postgres"
	"recordapi/internal/schema"
	"recordapi/internal/service"
	"recordapi/internal/storage"
)

// @title Record API
// @version 1.0
// @description Case records with photo and audio attachments and a change history.
// @BasePath /
func main() {
	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		loc = time.UTC
	}
	logger.Init(cfg.LogLevel, loc)
	log := logger.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.WithError(err).Warn("tracer shutdown")
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize object storage")
	}

	forms, err := loadSchema(cfg.Records)
	if err != nil {
		log.WithError(err).Fatal("failed to load form schema")
	}

	variantSizes := make([]service.VariantSize, 0, len(cfg.Attachments.PhotoVariantSizes))
	for _, v := range cfg.Attachments.PhotoVariantSizes {
		size, err := service.ParseVariantSize(v)
		if err != nil {
			log.WithError(err).Fatal("invalid PHOTO_VARIANT_SIZES")
		}
		variantSizes = append(variantSizes, size)
	}

	recordRepo := repository.NewCachedRecordRepository(
		postgres.NewRecordPostgres(db),
		cfg.Records.CacheSize,
		time.Duration(cfg.Records.CacheTTLSec)*time.Second,
	)
	recordSvc := service.NewRecordService(recordRepo, objStore, service.Options{
		Schema: forms,
		Images: imaging.New(),
		Policy: attachment.Policy{
			MaxBytes:   cfg.Attachments.MaxBytes,
			PhotoTypes: cfg.Attachments.PhotoContentTypes,
			AudioTypes: cfg.Attachments.AudioContentTypes,
		},
		VariantSizes:         variantSizes,
		FormName:             cfg.Records.FormName,
		DefaultOrganisation:  cfg.Records.DefaultOrganisation,
		PurgeSupersededAudio: cfg.Attachments.AudioPurgeOnReplace,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Room for several attachments in one multipart request.
		BodyLimit: int(cfg.Attachments.MaxBytes) * 4,
	})

	metrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.WithError(err).Fatal("failed to register http metrics")
	}

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.CurrentUser(cfg.Records.HistorySuppressionOrgs...))
	app.Use(middleware.Logger())
	app.Use(metrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	handlers.RegisterRoutes(app, db, recordSvc)

	handlers.RegisterDocs(app)

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Warn("server shutdown")
		}
	}()

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"event": "server_start", "addr": addr}).Info()
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}

func loadSchema(cfg config.RecordConfig) (schema.Provider, error) {
	if cfg.FormSchemaPath == "" {
		return schema.StaticProvider(nil), nil
	}
	return schema.LoadFile(cfg.FormSchemaPath)
}
