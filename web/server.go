package web

import (
	"context"
	"net/http"

	"geoscan/config"
	"geoscan/database"
	"geoscan/quota"
	"geoscan/scanner"
	"geoscan/web/handlers"
	"geoscan/web/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router       *gin.Engine
	orchestrator *scanner.Orchestrator
	quota        *quota.Manager
	reports      *scanner.ReportBuilder
	store        *database.PostgresStore
	logger       *zap.Logger
	config       *config.Config
}

func NewServer(orch *scanner.Orchestrator, quotaMgr *quota.Manager, reports *scanner.ReportBuilder, store *database.PostgresStore, logger *zap.Logger, config *config.Config) *Server {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		// Add logger to context
		c.Set("logger", logger)
		c.Next()
	})
	router.Use(middleware.SessionMiddleware())

	server := &Server{
		router:       router,
		orchestrator: orch,
		quota:        quotaMgr,
		reports:      reports,
		store:        store,
		logger:       logger,
		config:       config,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	scanHandler := handlers.NewScanHandler(s.orchestrator, s.quota, s.reports, s.store, s.logger)
	authHandler := handlers.NewAuthHandler(s.store, s.logger)

	api := s.router.Group("/api")
	api.POST("/scan", scanHandler.Scan)
	api.POST("/scan/:id/rescan", scanHandler.Rescan)
	api.GET("/scan/quota", scanHandler.Quota)
	api.GET("/scan/:id/report", scanHandler.Report)
	api.GET("/scans", scanHandler.History)
	api.POST("/auth/claim-session", authHandler.ClaimSession)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	s.logger.Info("Shutting down web server")
	return srv.Shutdown(context.Background())
}
