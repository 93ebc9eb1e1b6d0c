package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"propsearch/internal/cache"
	"propsearch/internal/config"
	"propsearch/internal/handler"
	"propsearch/internal/observability"
	"propsearch/internal/repository"
	"propsearch/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info().Str("version", Version).Str("build_time", BuildTime).Str("git_commit", GitCommit).
		Msg("starting property search")

	gin.SetMode(cfg.Server.GinMode)

	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queryCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Cache.Backend).Msg("failed to open query cache")
	}
	defer queryCache.Close()

	var ai service.AIClient
	if cfg.OpenAI.Enabled {
		ai = service.NewOpenAIClient(&cfg.OpenAI)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set; low-confidence queries use the heuristic parse")
	}

	parser := service.NewQueryParser(queryCache, ai, cfg.Parser, time.Duration(cfg.Cache.TTL)*time.Second)
	searchService := service.NewSearchService(
		repo,
		service.NewCorrector(cfg.Parser),
		parser,
		service.NewRanker(cfg.Search.DistanceTieRange),
		cfg.Search,
	)
	searchHandler := handler.NewSearchHandler(searchService, service.NewSuggester(repo), cfg.Search.DefaultLimit, cfg.Search.MaxLimit)

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = observability.InitRegistry()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           newRouter(cfg.Server, logger, searchHandler, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
