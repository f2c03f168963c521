package api

import (
	"slices"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/platform/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 创建gin引擎，挂载CORS中间件与全部路由。
func NewRouter(cfg config.HTTPConfig, h *Handler) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	SetupRoutes(r, h)
	return r
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", signatureHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	// 未配置来源或配置为 "*" 时允许任意来源
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = origins
	cc.AllowCredentials = true
	return cc
}

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, h *Handler) {
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/users", h.Register)
		api.GET("/rankings/:city", h.GetRanking)

		// 订阅相关的路由
		subs := api.Group("/subscriptions")
		{
			subs.GET("", h.Subscribe)
			subs.DELETE("/:handle", h.Unsubscribe)
		}
	}
}
