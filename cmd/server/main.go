package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"buyerradar/server/config"
	"buyerradar/server/internal/api"
	"buyerradar/server/internal/cache"
	"buyerradar/server/internal/database"
	"buyerradar/server/internal/dataset"
	"buyerradar/server/internal/geocoding"
	"buyerradar/server/internal/processor"
	"buyerradar/server/internal/queue"
	"buyerradar/server/internal/scheduler"
	"buyerradar/server/internal/search"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := cfg.NewLogger()

	if cfg.MarketsPath != "" {
		if err := config.LoadMarkets(cfg.MarketsPath); err != nil {
			logger.WithError(err).Fatal("Failed to load market presets")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var geocoder *geocoding.Geocoder
	if cfg.Geocoder.Enabled {
		geocoder = geocoding.NewGeocoder(geocoding.Options{
			CacheDir: cfg.Geocoder.CacheDir,
			Country:  cfg.Geocoder.Country,
		}, logger)
	}

	source, db := openSource(ctx, cfg, geocoder, logger)
	if db != nil {
		defer database.Close(db)
	}

	store := dataset.NewStore()

	var resultCache search.ResultCache
	client, err := cache.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	switch {
	case err != nil:
		logger.WithError(err).Warn("Redis unavailable, serving queries without a result cache")
	case client != nil:
		defer client.Close()
		resultCache = cache.NewRedisCache(client, cfg.CacheTTL(), logger)
		logger.WithField("addr", cfg.Redis.Addr).Info("Result cache enabled")
	}
	service := search.NewService(store, resultCache, logger)

	reloads := queue.NewReloadQueue(cfg.Reload.QueueSize, logger)
	reloader := processor.NewReloadProcessor(source, store, reloads, cfg, logger)
	reloader.Start()
	reloads.Start()

	if _, err := reloader.Reload(ctx, queue.ReasonStartup); err != nil {
		logger.WithError(err).Error("Initial load failed, queries return 503 until a reload succeeds")
	}

	ticker := scheduler.NewScheduler(reloads, cfg.ReloadInterval(), logger)
	ticker.Start()

	if cfg.Data.Source == "json" && cfg.Data.Watch {
		watcher := dataset.NewWatcher(cfg.Data.Path, logger, func() {
			if err := reloads.Push(queue.NewReloadRequest(queue.ReasonFileChange)); err != nil {
				logger.WithError(err).Debug("Reload already pending")
			}
		})
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.WithError(err).Error("Dataset watcher stopped")
			}
		}()
	}

	// The handler only takes a geocoder when one is configured; a typed nil
	// would pass the interface check.
	var addressLookup api.Geocoder
	if geocoder != nil {
		addressLookup = geocoder
	}

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(service, store, reloads, addressLookup, cfg.BoundarySegments, logger)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	ticker.Stop()
	reloader.Stop()
	if err := reloads.Close(); err != nil {
		logger.WithError(err).Error("Failed to close reload queue")
	}
}

// openSource picks the reference data source. The SQLite database is
// migrated and, when a geocoder is available, missing coordinates are
// backfilled before the first load.
func openSource(ctx context.Context, cfg *config.Config, geocoder *geocoding.Geocoder, logger *logrus.Logger) (dataset.Source, *gorm.DB) {
	if cfg.Data.Source != "sqlite" {
		logger.WithField("path", cfg.Data.Path).Info("Using JSON reference data")
		return dataset.NewFileSource(cfg.Data.Path), nil
	}

	logger.Infof("Using database at: %s", cfg.Data.DBPath)
	db, err := database.NewDatabase(cfg.Data.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	logger.Info("Running database migrations...")
	if err := database.MigrateSchema(db); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	if geocoder != nil {
		logger.Info("Geocoding properties without coordinates...")
		stats, err := database.UpdateMissingCoordinates(ctx, db, geocoder, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to update coordinates")
		} else if stats.Total > 0 {
			logger.WithFields(logrus.Fields{
				"total":     stats.Total,
				"processed": stats.Processed,
				"failed":    stats.Failed,
			}).Info("Coordinate backfill finished")
		}
	}

	return database.NewSource(db, cfg.Data.DBPath, logger), db
}
