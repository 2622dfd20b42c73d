package server

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/manager"
	"github.com/modelmux/modelmux/internal/server/validator"
	"github.com/modelmux/modelmux/internal/store"
	"github.com/modelmux/modelmux/internal/store/cache"
	"go.uber.org/zap"
)

type Server struct {
	router  *gin.Engine
	config  *config.Config
	logger  *zap.Logger
	manager *manager.Manager
	repo    store.Repository
	cache   cache.CacheService
}

func New(cfg *config.Config, logger *zap.Logger, m *manager.Manager, repo store.Repository, c cache.CacheService) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	validator.Init()

	engine := gin.New()
	engine.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	engine.Use(ginzap.RecoveryWithZap(logger, true))

	s := &Server{
		router:  engine,
		config:  cfg,
		logger:  logger,
		manager: m,
		repo:    repo,
		cache:   c,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
