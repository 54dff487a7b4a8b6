package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/psuflow/psuflow-api/api/swagger"
	"github.com/psuflow/psuflow-api/internal/repository"
	"github.com/psuflow/psuflow-api/internal/service"
	"github.com/psuflow/psuflow-api/pkg/config"
	"github.com/psuflow/psuflow-api/pkg/database"
	"github.com/psuflow/psuflow-api/pkg/export"
	"github.com/psuflow/psuflow-api/pkg/jobs"
	"github.com/psuflow/psuflow-api/pkg/logger"
	"github.com/psuflow/psuflow-api/pkg/pubsub"
	"github.com/psuflow/psuflow-api/pkg/storage"
)

// @title PSUFlow API
// @version 1.0.0
// @description Campus appointment booking: slots, decisions, notes, queues and staff reporting.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	appointmentRepo := repository.NewAppointmentRepository(db)
	blockRepo := repository.NewBlockedSlotRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	userRepo := repository.NewUserRepository(db)

	var publisher *pubsub.RedisPublisher
	if cfg.Notifications.PublishEnabled {
		client, err := pubsub.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, notifications will not be published", zap.Error(err))
		} else {
			defer client.Close()
			publisher = pubsub.NewRedisPublisher(client, cfg.Notifications.Channel)
		}
	}
	worker := service.NewNotificationWorker(notificationRepo, nil, metricsSvc, logr.Named("notifications"))
	if publisher != nil {
		// a typed nil publisher must not reach the worker
		worker = service.NewNotificationWorker(notificationRepo, publisher, metricsSvc, logr.Named("notifications"))
	}
	notificationQueue := jobs.NewQueue("notifications", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		OnGiveUp: func(job jobs.Job, err error) {
			metricsSvc.RecordNotification("abandoned")
		},
		Logger: logr,
	})
	notificationQueue.Start(ctx)
	defer notificationQueue.Stop()
	notificationSvc := service.NewNotificationService(notificationRepo, notificationQueue, metricsSvc, logr)

	attachmentStore, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare attachment storage", zap.Error(err))
	}
	attachmentSvc := service.NewAttachmentService(
		attachmentStore,
		appointmentRepo,
		storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.SignedURLTTL),
		service.AttachmentConfig{
			MaxFileSize:  cfg.Attachments.MaxFileSizeBytes,
			AllowedMIMEs: cfg.Attachments.AllowedMIMEs,
			APIPrefix:    cfg.APIPrefix,
		},
		logr,
	)

	appointmentSvc := service.NewAppointmentService(appointmentRepo, notificationSvc, metricsSvc, service.AppointmentConfig{
		Capacity: cfg.Scheduling.SlotCapacity,
		Catalog:  cfg.Scheduling.SlotCatalog,
	}, validate, logr)
	querySvc := service.NewQueryService(appointmentRepo, attachmentSvc, service.QueryConfig{
		AcademicCategories: cfg.Scheduling.AcademicCategories,
		SlotLengthMinutes:  cfg.Scheduling.SlotLengthMinutes,
	}, logr)
	blockSvc := service.NewBlockService(blockRepo, appointmentSvc.Catalog(), validate, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	exportSvc := service.NewExportService(
		querySvc,
		exportStore,
		storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
		logr,
		export.NewCSVExporter().WithBOM(),
		export.NewPDFExporter("L"),
	)
	exportSvc.StartCleanup(ctx, cfg.Exports.CleanupInterval)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	announcementSvc := service.NewAnnouncementService(announcementRepo, logr)

	router := newRouter(cfg, logr, routeDeps{
		auth:          authSvc,
		appointments:  appointmentSvc,
		queries:       querySvc,
		blocks:        blockSvc,
		notifications: notificationSvc,
		attachments:   attachmentSvc,
		exports:       exportSvc,
		announcements: announcementSvc,
		metrics:       metricsSvc,
		db:            db,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
