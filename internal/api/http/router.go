package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhijeet1275/image-matcher/internal/api/http/handler"
	"github.com/abhijeet1275/image-matcher/internal/api/http/middleware"
	"github.com/abhijeet1275/image-matcher/internal/logger"
)

// RouterConfig carries the handlers and surface-level settings the router
// needs.
type RouterConfig struct {
	Auth           *handler.Auth
	Match          *handler.Match
	Health         *handler.Health
	Logger         *logger.Logger
	CORSOrigins    []string
	MaxUploadBytes int64
}

// NewRouter builds the gin engine with all API routes registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.BodyLimit(cfg.MaxUploadBytes))

	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")
	{
		api.GET("/health", cfg.Health.Check)

		api.POST("/auth/login", cfg.Auth.Login)
		api.GET("/auth/check/:login_id", cfg.Auth.Check)

		api.POST("/match", cfg.Match.MatchOnly)
		api.POST("/explain", cfg.Match.Explain)
		api.POST("/explain/batch", cfg.Match.ExplainBatch)

		api.GET("/history/:user_id", cfg.Match.GetHistory)
		api.GET("/history/match/:match_id", cfg.Match.GetMatch)
		api.DELETE("/history/match/:match_id", cfg.Match.DeleteMatch)

		api.GET("/image/:stored_filename", cfg.Match.GetImage)
	}

	return r
}
