// Package api exposes the file catalog over HTTP.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	recoverer "github.com/gofiber/fiber/v2/middleware/recover"

	"filedrop/internal/catalog"
	"filedrop/internal/logger"
)

// Config defines the HTTP server settings.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
	CORSOrigin   string
}

// Server is the HTTP front end of the service.
type Server struct {
	app     *fiber.App
	catalog *catalog.Catalog
	log     logger.Logger
	addr    string
}

// NewServer builds the Fiber application with its middleware and routes.
func NewServer(cfg Config, cat *catalog.Catalog, log logger.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:     app,
		catalog: cat,
		log:     log.Named("api"),
		addr:    cfg.Address,
	}

	app.Use(recoverer.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigin,
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(s.requestLogger())

	api := app.Group("/api")
	api.Post("/upload", s.handleUpload)
	api.Get("/files", s.handleList)
	api.Get("/download/:id", s.handleDownload)
	api.Get("/health", s.handleHealth)

	return s
}

// Listen starts serving on the configured address. Blocks until Shutdown.
func (s *Server) Listen() error {
	return s.app.Listen(s.addr)
}

// Shutdown gracefully stops the server, letting in-flight requests finish.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		s.log.With(
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start).String(),
		).Info("request handled")

		return err
	}
}
