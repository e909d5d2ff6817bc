// Package server provides the inbound HTTP surface: a catch-all GET
// route feeding the dispatcher, plus health and metrics endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/federationstudio/blob-direct/pkg/resolver"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blobdirect_requests_total",
		Help: "Total redirect requests by outcome",
	}, []string{"outcome"}) // "redirect", "not_found"

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blobdirect_request_duration_seconds",
		Help:    "Redirect request duration in seconds",
		Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})
)

// Config holds the HTTP server configuration.
type Config struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wraps echo with the redirect pipeline.
type Server struct {
	echo       *echo.Echo
	dispatcher *resolver.Dispatcher
	config     Config
	logger     zerolog.Logger
}

// New creates the HTTP server and registers all routes.
func New(cfg Config, dispatcher *resolver.Dispatcher) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:       e,
		dispatcher: dispatcher,
		config:     cfg,
		logger:     log.With().Str("component", "server").Logger(),
	}

	e.Use(middleware.Recover())
	e.Use(s.requestLogger)

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/", s.redirect)
	e.GET("/*", s.redirect)

	return s
}

// redirect runs one request through the dispatcher and writes the
// terminal response: a 302 with Location or a 404 with a short body.
func (s *Server) redirect(c echo.Context) error {
	start := time.Now()

	// EscapedPath keeps percent-encoding intact; the parser owns decoding.
	result := s.dispatcher.Dispatch(c.Request().Context(), c.Request().URL.EscapedPath())

	requestDuration.Observe(time.Since(start).Seconds())

	if result.Status == http.StatusFound {
		requestsTotal.WithLabelValues("redirect").Inc()
		return c.Redirect(http.StatusFound, result.Location)
	}

	requestsTotal.WithLabelValues("not_found").Inc()
	return c.String(http.StatusNotFound, result.Message)
}

func (s *Server) health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// requestLogger logs one line per request with zerolog.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		s.logger.Info().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", c.Response().Status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")

		return err
	}
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	s.echo.Server.ReadTimeout = s.config.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.WriteTimeout
	return s.echo.Start(s.config.Host + ":" + s.config.Port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying echo instance (for testing).
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
