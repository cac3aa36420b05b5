// Package server exposes the meal plan store as a small local JSON API.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chasemp/mealplanner/internal/logging"
	"github.com/chasemp/mealplanner/internal/service"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	DB     *sql.DB
	Logger *zap.Logger
	// Planner holds the defaults for plan requests that omit a field.
	// Stored app_config values take precedence over it.
	Planner service.PlannerSettings
	// Now returns the default plan start date. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	db      *sql.DB
	log     *zap.Logger
	planner service.PlannerSettings
	now     func() time.Time
	engine  *gin.Engine
}

func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		db:      opts.DB,
		log:     logging.OrNop(opts.Logger),
		planner: opts.Planner,
		now:     opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	r := gin.New()
	r.Use(requestLogger(s.log), recovery(s.log))
	r.GET("/healthz", s.health)

	api := r.Group("/api")
	{
		api.GET("/recipes", s.listRecipes)
		api.GET("/meals", s.listMeals)
		api.POST("/plan", s.generatePlan)
		api.GET("/grocery", s.groceryList)
		api.GET("/pantry", s.listPantry)
	}
	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve handles requests on ln until ctx is cancelled, then drains in-flight
// requests before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
