package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/japaniel/lector/pkg/logger"
)

type RouterConfig struct {
	Handler        *Handler
	AllowedOrigins []string
	Logger         *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLog(cfg.Logger))
	r.Use(CORS(cfg.AllowedOrigins))

	r.GET("/healthcheck", cfg.Handler.HealthCheck)
	r.POST("/article/fetch", cfg.Handler.FetchArticle)
	r.POST("/word/lookup", cfg.Handler.LookupWords)
	r.POST("/mindmap", cfg.Handler.GetMindmap)
	return r
}

// CORS allows origins, or the local frontend when none are configured.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func requestLog(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
