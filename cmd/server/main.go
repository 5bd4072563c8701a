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
	"github.com/secdesk/backend/internal/config"
	"github.com/secdesk/backend/internal/db"
	"github.com/secdesk/backend/internal/jobs"
	"github.com/secdesk/backend/internal/logger"
	"github.com/secdesk/backend/internal/middleware"
	"github.com/secdesk/backend/internal/routes"
	"github.com/secdesk/backend/internal/seed"
	"github.com/secdesk/backend/internal/services"
	"github.com/secdesk/backend/internal/storage"
	"github.com/secdesk/backend/internal/store"
	"gorm.io/gorm"
)

func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		// Handle preflight request
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", map[string]interface{}{"error": err.Error()})
	}

	logger.Initialize(cfg.LogLevel, cfg.LogDir)

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	if err := db.Migrate(startupCtx, gdb); err != nil {
		logger.Fatal("Failed to run migrations", map[string]interface{}{"error": err.Error()})
	}

	recordStore := store.NewGormStore(gdb)

	// Seed database with initial data if in development
	if cfg.IsDevelopment() {
		if err := seedDatabase(startupCtx, recordStore, cfg.SeedFile); err != nil {
			logger.Warn("Failed to seed database", map[string]interface{}{"error": err.Error()})
		}
	}
	cancelStartup()

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	r.Use(middleware.CustomLoggerMiddleware())
	r.Use(CORSMiddleware(cfg.CORSOrigin))
	r.Use(gin.Recovery())

	routes.SetupRoutes(r, routes.Dependencies{
		Config:   cfg,
		Store:    recordStore,
		Evidence: storage.NewLocalEvidenceStore(cfg.UploadDir, cfg.PublicBaseURL, cfg.MaxUploadBytes),
		HealthCheck: func(ctx context.Context) error {
			return db.Ping(ctx, gdb)
		},
	})

	var digest *jobs.DigestJob
	if cfg.DigestSchedule != "" {
		digest, err = jobs.NewDigestJob(cfg.DigestSchedule, services.NewIncidentService(recordStore, nil))
		if err != nil {
			logger.Fatal("Failed to create summary digest job", map[string]interface{}{"error": err.Error()})
		}
		if err := digest.Start(); err != nil {
			logger.Fatal("Failed to start summary digest job", map[string]interface{}{"error": err.Error()})
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting SecDesk backend server", map[string]interface{}{
		"port":     cfg.Port,
		"gin_mode": gin.Mode(),
		"env":      cfg.Env,
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	logger.Info("Shutting down server gracefully...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if digest != nil {
		if err := digest.Stop(ctx); err != nil {
			logger.Warn("Summary digest did not stop in time", map[string]interface{}{"error": err.Error()})
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		logger.Info("Server exited gracefully", nil)
	}

	closeDB(gdb)
}

func seedDatabase(ctx context.Context, s store.Store, path string) error {
	logger.Info("Seeding database with initial data", map[string]interface{}{"file": path})
	f, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	res, err := seed.Users(ctx, s, f.Users)
	if err != nil {
		return err
	}
	logger.Info("Database seeding completed", map[string]interface{}{
		"created": res.Created,
		"skipped": res.Skipped,
	})
	return nil
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
