// Package api exposes the sync engine over the polling JSON API clients
// talk to. Handlers stay thin: resolve the identity key, forward to the
// engine, wrap the result in the response envelope.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dpetrovs/localsync/internal/logging"
	"github.com/dpetrovs/localsync/internal/server/config"
	"github.com/dpetrovs/localsync/internal/server/services"
	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	sync   *services.SyncService
	blob   *services.BlobService
	logger logging.Logger
}

func NewServer(cfg *config.Config, l logging.Logger, ss *services.SyncService, bs *services.BlobService) *Server {
	return &Server{
		config: cfg,
		sync:   ss,
		blob:   bs,
		logger: l.With("module", "http_server"),
	}
}

// RegisterRoutes mounts all endpoints on the router. Admin endpoints sit
// behind the bearer-token middleware; everything else is open to the local
// network by design.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", s.health)

	api := router.Group("/api")
	api.GET("/sync", s.getSync)
	api.POST("/sync", s.postSync)
	api.POST("/upload", s.upload)
	api.GET("/download", s.download)
	api.DELETE("/delete-file", s.deleteFile)

	admin := api.Group("")
	admin.Use(s.adminAuthMiddleware())
	admin.POST("/cleanup", s.cleanup)
	admin.GET("/cleanup", s.cleanupInfo)
	admin.POST("/debug", s.debug)
}

// Run starts the HTTP server and shuts it down gracefully when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    s.config.EndpointAddr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.config.EndpointAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
