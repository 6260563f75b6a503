// Package api provides the HTTP REST surface of the Buddy service
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/buddylabs/buddy/pkg/chat"
	"github.com/buddylabs/buddy/pkg/config"
	"github.com/buddylabs/buddy/pkg/logger"
	"github.com/buddylabs/buddy/pkg/store"
	"github.com/buddylabs/buddy/pkg/users"
)

// Server is the API server instance
type Server struct {
	config   *config.Config
	logger   logger.Logger
	repo     *store.Repository
	accounts *users.Manager
	auth     *users.AuthService
	chat     *chat.Service
	router   *gin.Engine
	server   *http.Server
}

// NewServer creates the API server and wires its routes
func NewServer(cfg *config.Config, log logger.Logger, repo *store.Repository, accounts *users.Manager, auth *users.AuthService, chatSvc *chat.Service) *Server {
	if cfg.LogLevel == "error" || cfg.LogLevel == "warn" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	s := &Server{
		config:   cfg,
		logger:   log,
		repo:     repo,
		accounts: accounts,
		auth:     auth,
		chat:     chatSvc,
		router:   gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the global middleware chain
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = s.config.Server.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
	}
	s.router.Use(cors.New(corsConfig))

	s.router.Use(s.requestIDMiddleware())
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	auth := s.router.Group("/auth")
	{
		auth.POST("/signup", s.signup)
		auth.POST("/login", s.login)
	}

	protected := s.router.Group("/api")
	protected.Use(s.jwtAuthMiddleware())
	{
		protected.POST("/chat", s.submitMessage)
		protected.GET("/messages", s.listMessages)
		protected.DELETE("/messages", s.resetConversation)
		protected.GET("/messages/export", s.exportTranscript)
		protected.POST("/feedback", s.recordFeedback)
		protected.GET("/profile", s.getProfile)

		admin := protected.Group("/admin")
		admin.Use(s.adminMiddleware())
		{
			admin.GET("/users", s.listAccounts)
		}
	}
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting api server", map[string]interface{}{
		"addr": s.server.Addr,
		"mode": gin.Mode(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Stop gracefully stops the server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}
