// Package server exposes the tutor over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aniketthapawork/ai-tutor/internal/activity"
	"github.com/aniketthapawork/ai-tutor/internal/attempt"
	"github.com/aniketthapawork/ai-tutor/internal/catalog"
	"github.com/aniketthapawork/ai-tutor/internal/dashboard"
	"github.com/aniketthapawork/ai-tutor/internal/metrics"
	"github.com/aniketthapawork/ai-tutor/internal/store"
)

// Deps are the services behind the HTTP surface.
type Deps struct {
	Store     *store.Store
	Catalog   *catalog.Service
	Attempts  *attempt.Service
	Dashboard *dashboard.Service
	Recorder  *activity.Recorder
	Metrics   *metrics.Metrics
	Auth      *Authenticator
	Logger    *zap.Logger
}

// Server is the HTTP server.
type Server struct {
	deps   Deps
	log    *zap.Logger
	engine *gin.Engine
}

// New builds the router.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &Server{deps: deps, log: deps.Logger, engine: gin.New()}
	s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.Use(recovery(s.log), requestLogger(s.log, s.deps.Metrics))

	r.GET("/healthz", s.health)
	if s.deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	api := r.Group("/api", s.deps.Auth.Middleware())
	api.GET("/auth/user", s.currentUser)
	api.GET("/dashboard", s.dashboard)

	api.GET("/modules", s.listModules)
	api.GET("/modules/:level", s.listModulesByLevel)
	api.POST("/progress/modules/:id", s.updateModuleProgress)

	api.GET("/tests", s.listTests)
	api.GET("/tests/type/:type", s.listTestsByType)
	api.GET("/tests/level/:level", s.listTestsByLevel)
	api.GET("/tests/:id", s.getTest)
	api.POST("/tests/generate", s.generateTest)
	api.POST("/tests/:id/submit", s.submitTest)

	api.GET("/test-attempts", s.listAttempts)
	api.GET("/test-attempts/:id/feedback", s.attemptFeedback)

	api.GET("/leaderboard", s.leaderboard)
	api.GET("/progress", s.progress)
	api.POST("/activity", s.recordActivity)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return <-errCh
}
