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
	"go.uber.org/zap"

	"github.com/shiftdesk/workforce-api/internal/config"
	"github.com/shiftdesk/workforce-api/pkg/auth"
	"github.com/shiftdesk/workforce-api/pkg/database"
	"github.com/shiftdesk/workforce-api/pkg/handlers"
	"github.com/shiftdesk/workforce-api/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		logging.New("").Fatal("Invalid configuration", zap.Error(err))
	}

	logger := logging.New(cfg.Env)
	defer func() { _ = logger.Sync() }()

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	db, err := database.InitDB(database.Options{
		DatabaseURL: cfg.DatabaseURL,
		DataPath:    cfg.DataPath,
		Debug:       !cfg.IsProduction() && gin.Mode() == gin.DebugMode,
	})
	if err != nil {
		logger.Fatal("Database unavailable", zap.Error(err))
	}
	if err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminOrgID, logger); err != nil {
		logger.Fatal("Could not bootstrap admin user", zap.Error(err))
	}

	if dev := cfg.DevSecrets(); len(dev) > 0 {
		logger.Warn("Using development secrets, credentials can be forged", zap.Strings("unset", dev))
	}
	h := handlers.New(db, auth.New(cfg.JWTSecret, cfg.APIMasterSecret), cfg.Location(), logger)
	router := handlers.NewRouter(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("timezone", cfg.Timezone))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server stopped")
}
