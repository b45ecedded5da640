// Package httpapi exposes the ingestion and question-answering
// pipeline over HTTP.
package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/core/ports/driven"
	"github.com/grounded-labs/grounder/internal/core/ports/driving"
	"github.com/grounded-labs/grounder/internal/logger"
)

// Config holds the HTTP server settings.
type Config struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string

	// APIKey, when non-empty, is required in the X-API-Key header of
	// every request under /api.
	APIKey string
}

// Server wires the driving ports to HTTP routes.
type Server struct {
	app      *fiber.App
	addr     string
	ingestor driving.Ingestor
	answerer driving.Answerer
	store    driven.VectorStore
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(cfg Config, ingestor driving.Ingestor, answerer driving.Answerer, store driven.VectorStore) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "grounder",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // ingestion of large batches is slow
		BodyLimit:    50 << 20,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	s := &Server{
		app:      app,
		addr:     cfg.Addr,
		ingestor: ingestor,
		answerer: answerer,
		store:    store,
	}

	app.Get("/healthz", s.handleHealth)

	api := app.Group("/api", apiKeyMiddleware(cfg.APIKey))
	api.Post("/ingest", s.handleIngest)
	api.Post("/ask", s.handleAsk)
	api.Get("/sources", s.handleSources)
	api.Post("/session/new", s.handleNewSession)
	api.Delete("/session", s.handleClearSession)

	return s
}

// Listen blocks serving HTTP until the server shuts down.
func (s *Server) Listen() error {
	logger.Info("http: listening on %s", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// apiKeyMiddleware rejects requests missing the configured key. With
// no key configured the API is open, which suits local single-user
// deployments.
func apiKeyMiddleware(key string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if key != "" && c.Get("X-API-Key") != key {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or missing API key"})
		}
		return c.Next()
	}
}

// errorResponse maps domain errors to HTTP statuses.
func errorResponse(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, domain.ErrUnsupportedType):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrLLMUnavailable):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
