package server

import (
	"github.com/modelmux/modelmux/internal/server/middleware"
	v1 "github.com/modelmux/modelmux/internal/server/v1"
)

const serviceName = "modelmux"

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.Tracing(serviceName))
	s.router.Use(middleware.ErrorHandler(s.logger))

	handler := v1.NewHandler(s.manager, s.repo, s.cache, s.logger)

	s.router.GET("/health", handler.HandleHealth)

	api := s.router.Group("/api/v1")
	limiter := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)
	api.Use(limiter.Middleware())
	{
		api.POST("/chat/completions", handler.HandleChatCompletion)
		api.POST("/generate", handler.HandleGenerate)
		api.POST("/embeddings", handler.HandleEmbeddings)
		api.POST("/fallback", handler.HandleFallback)

		api.GET("/models", handler.HandleListModels)
		api.GET("/model", handler.HandleModelInfo)
		api.GET("/models/:provider", handler.HandleListProviderModels)
		api.GET("/providers", handler.HandleListProviders)
		api.GET("/capabilities", handler.HandleListCapabilities)
		api.GET("/requests", handler.HandleRecentRequests)
	}
}
