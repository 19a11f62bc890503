// Package server exposes classification and the session history over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/colsense/colsense/internal/classify"
	"github.com/colsense/colsense/internal/dataset"
	"github.com/colsense/colsense/internal/metrics"
	"github.com/colsense/colsense/internal/session"
	"github.com/colsense/colsense/internal/taxonomy"
)

// Config wires the server to the rest of the process.
type Config struct {
	Classifier *classify.Classifier
	Session    *session.Session
	// APIKey returns the credential used for each classification.
	APIKey   func() string
	Extract  dataset.Options
	Guidance taxonomy.Guidance
	// Timeout bounds one classification, retries included. Zero means no
	// bound beyond the request context.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Server is the gin-backed HTTP API.
type Server struct {
	cfg    Config
	engine *gin.Engine
	log    *slog.Logger
	srv    *http.Server
}

// New builds the router.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Session == nil {
		cfg.Session = session.New(session.DefaultLimit, session.WithLogger(cfg.Logger))
	}
	if cfg.Classifier == nil {
		cfg.Classifier = classify.New(classify.WithLogger(cfg.Logger))
	}
	if cfg.APIKey == nil {
		cfg.APIKey = func() string { return "" }
	}
	if cfg.Guidance == nil {
		cfg.Guidance = taxonomy.Default()
	}

	s := &Server{cfg: cfg, log: cfg.Logger}
	e := gin.New()
	e.Use(gin.Recovery(), s.observe())

	e.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := e.Group("/api/v1")
	v1.POST("/classify", s.handleClassify)
	v1.GET("/levels", s.handleLevels)
	v1.GET("/history", s.handleHistory)
	v1.DELETE("/history", s.handleClearHistory)
	v1.GET("/history/:id", s.handleEntry)
	v1.GET("/history/:id/export", s.handleExport)

	s.engine = e
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	return s.srv.Shutdown(shutdownCtx)
}

// observe logs each request and counts it by route template.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		s.log.Debug("http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start))
	}
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
