// Package server exposes the assistant over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/assistant"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/audit"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/learning"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/memory"
)

// UserHeader carries the authenticated caller id, set by the upstream
// gateway.
const UserHeader = "X-User-ID"

// Opts holds the collaborators used by the HTTP handlers.
type Opts struct {
	DB        *gorm.DB // health checks
	Assistant *assistant.Orchestrator
	Memory    *memory.Manager
	Audit     *audit.Log
	Learning  *learning.Store
	Port      int
	Out       io.Writer
}

func (o Opts) validate() error {
	switch {
	case o.DB == nil:
		return fmt.Errorf("server: db is required")
	case o.Assistant == nil:
		return fmt.Errorf("server: assistant is required")
	case o.Memory == nil:
		return fmt.Errorf("server: memory is required")
	case o.Audit == nil:
		return fmt.Errorf("server: audit log is required")
	case o.Learning == nil:
		return fmt.Errorf("server: learning store is required")
	}
	return nil
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts Opts) (*gin.Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	registerRoutes(router, opts)
	return router, nil
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts Opts) error {
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "CRM assistant API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// requestLogger logs one line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("user", c.GetString(userKey)).
			Msg("http_request")
	}
}

var metricsHandler = promhttp.Handler()
