package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"volunteer_backend/internal/handlers"
	"volunteer_backend/internal/logger"
	"volunteer_backend/internal/metrics"
	"volunteer_backend/internal/middleware"
)

// Deps - всё, что нужно роутеру. Metrics может быть nil.
type Deps struct {
	DB          *gorm.DB
	Handlers    *handlers.AppHandlers
	Metrics     *metrics.Metrics
	MetricsPath string
}

// SetupRouter собирает gin.Engine: middleware, API маршруты, /health и /metrics
func SetupRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}
	router.Use(middleware.DBMiddleware(deps.DB))

	router.GET("/health", healthHandler(deps.DB))

	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(deps.Metrics.Handler()))
		logger.Info("Metrics route registered", "path", path)
	}

	deps.Handlers.RegisterRoutes(router.Group(""))

	return router
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok"}

		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "health check: database unavailable", "error", err.Error())
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unavailable"})
			return
		}

		status["database"] = "ok"
		c.JSON(http.StatusOK, status)
	}
}
