package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/manager"
	"github.com/modelmux/modelmux/internal/platform/logger"
	"github.com/modelmux/modelmux/internal/platform/otel"
	"github.com/modelmux/modelmux/internal/server"
	"github.com/modelmux/modelmux/internal/store"
	"github.com/modelmux/modelmux/internal/store/cache"
	"github.com/modelmux/modelmux/internal/store/sqlite"
	"go.uber.org/zap"

	// Import adapters to trigger init() registration
	_ "github.com/modelmux/modelmux/internal/llm/anthropic"
	_ "github.com/modelmux/modelmux/internal/llm/deepseek"
	_ "github.com/modelmux/modelmux/internal/llm/google"
	_ "github.com/modelmux/modelmux/internal/llm/mistral"
	_ "github.com/modelmux/modelmux/internal/llm/openai"
	_ "github.com/modelmux/modelmux/internal/llm/qwen"
)

func main() {
	logger.Initialize(logger.DefaultConfig())
	defer logger.Sync()
	log := logger.Get()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	shutdownTracer, err := otel.InitTracer("modelmux", log, os.Stdout)
	if err != nil {
		log.Fatal("failed to initialize tracer", zap.Error(err))
	}

	var repo store.Repository
	if cfg.Database.Enabled {
		repo, err = sqlite.NewSQLiteStorage(cfg.Database.DSN)
		if err != nil {
			log.Fatal("failed to open settings database", zap.Error(err))
		}
		defer repo.Close()
		mergeStoredProviders(cfg, repo, log)
	}

	var cacheSvc cache.CacheService
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisCache.Close()
		cacheSvc = redisCache
	} else {
		cacheSvc = cache.NewMemoryCache()
	}

	mgr := manager.New(
		manager.WithLogger(log),
		manager.WithRegions(cfg.Regions),
	)

	for _, pc := range cfg.Providers {
		if pc.APIKey == "" {
			log.Debug("skipping provider without api key", zap.String("provider", pc.Name))
			continue
		}
		p, err := llm.New(pc)
		if err != nil {
			log.Warn("failed to create provider",
				zap.String("provider", pc.Name),
				zap.String("type", pc.Type),
				zap.Error(err),
			)
			continue
		}
		mgr.AddProvider(pc.Name, p)
		log.Info("registered provider", zap.String("provider", pc.Name), zap.String("type", pc.Type))
	}

	srv := server.New(cfg, log, mgr, repo, cacheSvc)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Handler(),
	}

	go func() {
		log.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	if err := shutdownTracer(ctx); err != nil {
		log.Error("tracer shutdown failed", zap.Error(err))
	}
}

// mergeStoredProviders overlays enabled database rows onto the configured
// provider list. A stored row wins over a static entry with the same name.
func mergeStoredProviders(cfg *config.Config, repo store.Repository, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	settings, err := repo.Providers().ListEnabled(ctx)
	if err != nil {
		log.Warn("failed to load stored provider settings", zap.Error(err))
		return
	}

	byName := make(map[string]int, len(cfg.Providers))
	for i, pc := range cfg.Providers {
		byName[pc.Name] = i
	}

	for _, s := range settings {
		pc := config.ProviderConfig{
			Name:    s.Name,
			Type:    s.Type,
			Label:   s.Label,
			APIKey:  os.Getenv(s.APIKeyEnv),
			BaseURL: s.BaseURL,
			Region:  s.Region,
		}
		if i, ok := byName[s.Name]; ok {
			cfg.Providers[i] = pc
		} else {
			cfg.Providers = append(cfg.Providers, pc)
		}
	}
}
