package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"propsearch/internal/config"
	"propsearch/internal/handler"
	"propsearch/internal/observability"
)

// newRouter wires middleware and routes; reg may be nil to disable /metrics
func newRouter(cfg config.ServerConfig, logger zerolog.Logger, search *handler.SearchHandler, reg *prometheus.Registry) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		handler.RequestID(),
		handler.Metrics(),
		handler.Logger(logger),
		handler.Timeout(time.Duration(cfg.RequestTimeout)*time.Second),
	)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(cfg.AllowedOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "propsearch",
			"version": Version,
		})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	if reg != nil {
		router.GET("/metrics", gin.WrapH(observability.MetricsHandler(reg)))
	}

	search.Register(router.Group("/api/v1"))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
