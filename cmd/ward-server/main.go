package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/oncoward/ward-api/api/swagger"
	"github.com/oncoward/ward-api/internal/handler"
	"github.com/oncoward/ward-api/internal/middleware"
	"github.com/oncoward/ward-api/internal/repository"
	"github.com/oncoward/ward-api/internal/service"
	"github.com/oncoward/ward-api/pkg/cache"
	"github.com/oncoward/ward-api/pkg/config"
	"github.com/oncoward/ward-api/pkg/database"
	"github.com/oncoward/ward-api/pkg/logger"
	corsmiddleware "github.com/oncoward/ward-api/pkg/middleware/cors"
	reqidmiddleware "github.com/oncoward/ward-api/pkg/middleware/requestid"
	"github.com/oncoward/ward-api/pkg/storage"
)

// @title Ward Admission API
// @version 1.0.0
// @description Offline-first patient admission tracker for a hospital ward
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Remote document store: HTTP service or embedded Postgres.
	var remote repository.DocumentStore
	switch cfg.Remote.Driver {
	case config.RemoteDriverPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
		}
		defer db.Close() //nolint:errcheck
		remote = repository.NewPostgresDocumentStore(db)
	default:
		remote = repository.NewHTTPDocumentStore(cfg.Remote, logr)
	}

	offlineState, err := repository.NewOfflineStateRepository(cfg.Offline.StateDir, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init offline state storage", "error", err)
	}

	var cacheRepo *repository.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
			cacheRepo = repository.NewCacheRepository(nil, logr)
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	} else {
		cacheRepo = repository.NewCacheRepository(nil, logr)
	}
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetrics()
	syncStatus := service.NewSyncStatusTracker(cfg.Sync.SuccessClearDelay, logr)
	defer syncStatus.Close()

	connectivity := service.NewConnectivityMonitor(remote, cfg.Remote.ProbeInterval, logr)
	offlineSvc := service.NewOfflineService(offlineState, metrics, logr)
	patientSvc := service.NewPatientService(remote, offlineSvc, syncStatus, connectivity, cacheRepo, cfg.Sync.ListCacheTTL, metrics, logr)
	exportSvc := service.NewExportService(logr)
	authSvc := service.NewAuthService(cfg.Auth, logr)

	connectivity.Subscribe(func(online bool) {
		metrics.SetRemoteOnline(online)
		if online && cfg.Offline.DrainOnReconnect {
			go patientSvc.SyncPendingChanges(context.Background())
		}
	})
	connectivity.Start(ctx)
	defer connectivity.Stop()

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	reportSvc := service.NewReportService(patientSvc, exportSvc, reportStore, signer, service.ReportServiceConfig{
		WorkerConcurrency: cfg.Reports.WorkerConcurrency,
		WorkerRetries:     cfg.Reports.WorkerRetries,
		CleanupInterval:   cfg.Reports.CleanupInterval,
	}, logr)
	reportSvc.Start(ctx)
	defer reportSvc.Stop()

	// Warm the collection; offline start is fine, the snapshot covers it.
	warmCtx, cancelWarm := context.WithTimeout(ctx, 30*time.Second)
	if _, err := patientSvc.Refresh(warmCtx); err != nil {
		logr.Warn("initial fetch failed, starting with empty collection", zap.Error(err))
	}
	cancelWarm()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
			"online": connectivity.Online(),
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	patientHandler := handler.NewPatientHandler(patientSvc)
	syncHandler := handler.NewSyncHandler(patientSvc, offlineSvc, connectivity)
	dataHandler := handler.NewDataHandler(patientSvc, exportSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	authHandler := handler.NewAuthHandler(authSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/reports/download/:token", reportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/patients", patientHandler.List)
		protected.POST("/patients", patientHandler.Create)
		protected.GET("/patients/:id", patientHandler.Get)
		protected.PUT("/patients/:id", patientHandler.Update)
		protected.DELETE("/patients/:id", patientHandler.Delete)

		protected.GET("/sync/status", syncHandler.Status)
		protected.GET("/sync/pending", syncHandler.Pending)
		protected.POST("/sync/drain", syncHandler.Drain)

		protected.GET("/export/csv", dataHandler.ExportCSV)
		protected.GET("/export/json", dataHandler.ExportJSON)
		protected.GET("/backup", dataHandler.Backup)
		protected.POST("/restore", dataHandler.Restore)
		protected.POST("/import", dataHandler.Import)

		protected.POST("/reports", reportHandler.Create)
		protected.GET("/reports/:id", reportHandler.Get)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "remoteDriver", cfg.Remote.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
