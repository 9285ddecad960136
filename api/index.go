package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shiftdesk/workforce-api/internal/config"
	"github.com/shiftdesk/workforce-api/pkg/auth"
	"github.com/shiftdesk/workforce-api/pkg/database"
	"github.com/shiftdesk/workforce-api/pkg/handlers"
	"github.com/shiftdesk/workforce-api/pkg/logging"
)

var r http.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("").Fatal("Invalid configuration", zap.Error(err))
	}
	logger := logging.New(cfg.Env).With(zap.String("runtime", "serverless"))

	db, err := database.InitDB(database.Options{DatabaseURL: cfg.DatabaseURL, DataPath: cfg.DataPath})
	if err != nil {
		logger.Fatal("Database unavailable", zap.Error(err))
	}
	if err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminOrgID, logger); err != nil {
		logger.Error("Could not bootstrap admin user", zap.Error(err))
	}

	if dev := cfg.DevSecrets(); len(dev) > 0 {
		logger.Warn("Using development secrets, credentials can be forged", zap.Strings("unset", dev))
	}

	gin.SetMode(gin.ReleaseMode)
	h := handlers.New(db, auth.New(cfg.JWTSecret, cfg.APIMasterSecret), cfg.Location(), logger)
	r = handlers.NewRouter(h)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
