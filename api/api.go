// Package api provides the HTTP API for coordgeom.
package api

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/TFMV/coordgeom/pkg/config"
	"github.com/TFMV/coordgeom/pkg/eval"
	"github.com/TFMV/coordgeom/pkg/metrics"
)

// Server holds the Fiber app instance
type Server struct {
	app     *fiber.App
	log     *zap.Logger
	opts    ServerOptions
	eval    *eval.Evaluator
	metrics *metrics.Collector
}

// ServerOptions defines the configuration for the server.
type ServerOptions struct {
	Host            string
	Port            int
	Prefork         bool
	EnableMetrics   bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// MaxBatchSize caps the number of operations in one batch request
	MaxBatchSize int
}

// OptionsFromConfig converts the server section of the configuration.
func OptionsFromConfig(cfg config.ServerConfig) ServerOptions {
	return ServerOptions{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Prefork:         cfg.Prefork,
		EnableMetrics:   cfg.EnableMetrics,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
}

// NewServer initializes a new Fiber instance serving the geometry operations.
// The collector may be nil, in which case /metrics is not registered.
func NewServer(opts ServerOptions, ev *eval.Evaluator, collector *metrics.Collector, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Port == 0 {
		opts.Port = 8080
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.MaxBatchSize == 0 {
		opts.MaxBatchSize = 1000
	}

	app := fiber.New(fiber.Config{
		IdleTimeout:           10 * time.Second,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		Prefork:               opts.Prefork,
		ErrorHandler:          customErrorHandler(logger),
		CaseSensitive:         true,
		StrictRouting:         true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(compress.New())
	app.Use(customLoggingMiddleware(logger))

	server := &Server{
		app:     app,
		log:     logger,
		opts:    opts,
		eval:    ev,
		metrics: collector,
	}

	// Routes
	app.Get("/health", healthCheckHandler(logger))
	app.Get("/health/live", livenessHandler)
	app.Get("/health/ready", readinessHandler)
	if opts.EnableMetrics && collector != nil && collector.GetRegistry() != nil {
		app.Get("/metrics", metricsHandler(collector))
	}

	v1 := app.Group("/api").Group("/v1")
	v1.Post("/lines/parallel-distance", operationHandler(ev, eval.ParallelDistance, "distance", logger))
	v1.Post("/lines/intersect", operationHandler(ev, eval.LinesIntersect3D, "intersect", logger))
	v1.Post("/vectors/distance", operationHandler(ev, eval.VectorDistance, "distance", logger))
	v1.Post("/vectors/orthogonal", operationHandler(ev, eval.VectorsOrthogonal, "orthogonal", logger))
	v1.Post("/batch", batchHandler(ev, opts.MaxBatchSize, logger))

	return server
}

// customErrorHandler provides structured error handling
func customErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}

		log.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": message,
		})
	}
}

// healthCheckHandler returns a simple health check response
func healthCheckHandler(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log.Debug("Health check requested")
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// Liveness probe for Kubernetes
func livenessHandler(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

// Readiness probe for Kubernetes. The server has no dependencies to wait on.
func readinessHandler(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

// customLoggingMiddleware logs requests in a structured format
func customLoggingMiddleware(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.IP()),
		}

		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		log.Info("Request handled", fields...)
		return err
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
}

// Start runs the Fiber server and handles graceful shutdown on SIGINT or SIGTERM.
func (s *Server) Start() error {
	addr := s.Addr()
	s.log.Info("Starting server", zap.String("address", addr))

	idleConnsClosed := make(chan error, 1)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		s.log.Info("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			idleConnsClosed <- fmt.Errorf("server shutdown error: %w", err)
			return
		}
		idleConnsClosed <- nil
	}()

	serverErr := make(chan error, 1)
	go func() {
		if err := s.app.Listen(addr); err != nil {
			serverErr <- fmt.Errorf("server startup error: %w", err)
		}
	}()

	select {
	case err := <-idleConnsClosed:
		if err != nil {
			s.log.Error("Shutdown error", zap.Error(err))
			return err
		}
	case err := <-serverErr:
		s.log.Error("Startup error", zap.Error(err))
		return err
	}

	s.log.Info("Server stopped")
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Warn("Server is shutting down...")
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		s.log.Error("Fiber shutdown error", zap.Error(err))
		return fmt.Errorf("fiber shutdown error: %w", err)
	}
	return nil
}

// GetApp returns the underlying Fiber app
func (s *Server) GetApp() *fiber.App {
	return s.app
}
