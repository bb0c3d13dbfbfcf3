// Package server exposes the conversation pipeline and the task list over
// HTTP.
package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/solacehq/solace/internal/chat"
	"github.com/solacehq/solace/internal/task"
)

// Server wires the HTTP routes to the orchestrator and task store.
type Server struct {
	app          *fiber.App
	orchestrator *chat.Orchestrator
	tasks        *task.Store
}

// New creates the Fiber app with all routes registered.
func New(orchestrator *chat.Orchestrator, tasks *task.Store) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "solace",
		DisableStartupMessage: true,
	})

	s := &Server{app: app, orchestrator: orchestrator, tasks: tasks}

	app.Use(requestID)

	app.Get("/health", s.handleHealth)
	app.Get("/ready", s.handleReady)

	api := app.Group("/api/v1")
	api.Post("/chat", s.handleChat)
	api.Get("/conversations/:userId", s.handleHistory)
	api.Delete("/conversations/:userId", s.handleReset)

	api.Get("/tasks", s.handleListTasks)
	api.Post("/tasks", s.handleCreateTask)
	api.Get("/tasks/:id", s.handleGetTask)
	api.Patch("/tasks/:id", s.handleUpdateTask)
	api.Delete("/tasks/:id", s.handleDeleteTask)

	return s
}

// App exposes the Fiber app, primarily for tests via app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves the API on addr until the process exits.
func (s *Server) Listen(addr string) error {
	slog.Info("http api listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// requestID tags every request with an ID for log correlation.
func requestID(c *fiber.Ctx) error {
	id := c.Get("X-Request-ID")
	if id == "" {
		id = uuid.New().String()
	}
	c.Locals("request_id", id)
	c.Set("X-Request-ID", id)
	return c.Next()
}

// fieldError renders a validation failure with field-level detail.
func fieldError(c *fiber.Ctx, field, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "validation failed",
		"fields": fiber.Map{field: msg},
	})
}
