package api

import (
	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/webchat/internal/api/middleware"
	"github.com/liliang-cn/webchat/internal/api/website"
	"github.com/liliang-cn/webchat/internal/service"
	"go.uber.org/zap"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router for the development backend
func SetupRouter(websiteService *service.WebsiteService, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger.Named("http")))

	// CORS middleware
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	websiteHandler := website.NewHandler(websiteService)
	websiteHandler.RegisterRoutes(r.Group("/api/websites"))

	return r
}
