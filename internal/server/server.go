// Package server is a development implementation of the remote task store:
// the /todos HTTP contract the client talks to, persisted in sqlite.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"taskdeck/internal/config"
)

// Server serves the task collection under /todos.
type Server struct {
	app  *fiber.App
	repo *Repository
	log  *slog.Logger
}

type writeRequest struct {
	Title     string  `json:"title"`
	Deadline  *string `json:"deadline"`
	Completed *bool   `json:"completed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(repo *Repository, log *slog.Logger) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
		}),
		repo: repo,
		log:  log,
	}
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "${status} ${latency} ${method} ${path}\n",
		Output: logWriter{log: log},
	}))
	s.setupRoutes()
	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.health)

	todos := s.app.Group(config.CollectionPath)
	todos.Get("/", s.listTodos)
	todos.Post("/", s.createTodo)
	todos.Put("/:id", s.updateTodo)
	todos.Delete("/:id", s.deleteTodo)
}

func (s *Server) Listen(addr string) error {
	s.log.Info("task server listening", "addr", addr, "path", config.CollectionPath)
	return s.app.Listen(addr)
}

// Shutdown waits for in-flight requests up to ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) health(c *fiber.Ctx) error {
	if err := s.repo.Ping(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "healthy"})
}

// listTodos handles GET /todos.
func (s *Server) listTodos(c *fiber.Ctx) error {
	tasks, err := s.repo.List(c.UserContext())
	if err != nil {
		return s.fail(c, fiber.StatusInternalServerError, "failed to load todos", err)
	}
	return c.JSON(tasks)
}

// createTodo handles POST /todos.
func (s *Server) createTodo(c *fiber.Ctx) error {
	var req writeRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "invalid request body", err)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "title is required"})
	}
	created, err := s.repo.Create(c.UserContext(), title, req.Deadline)
	if err != nil {
		return s.fail(c, fiber.StatusInternalServerError, "failed to create todo", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// updateTodo handles PUT /todos/:id.
func (s *Server) updateTodo(c *fiber.Ctx) error {
	id := c.Params("id")
	var req writeRequest
	if err := c.BodyParser(&req); err != nil {
		return s.fail(c, fiber.StatusBadRequest, "invalid request body", err)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "title is required"})
	}
	updated, err := s.repo.Update(c.UserContext(), id, title, req.Deadline, req.Completed)
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: ErrNotFound.Error()})
	}
	if err != nil {
		return s.fail(c, fiber.StatusInternalServerError, "failed to update todo", err)
	}
	return c.JSON(updated)
}

// deleteTodo handles DELETE /todos/:id.
func (s *Server) deleteTodo(c *fiber.Ctx) error {
	id := c.Params("id")
	err := s.repo.Delete(c.UserContext(), id)
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: ErrNotFound.Error()})
	}
	if err != nil {
		return s.fail(c, fiber.StatusInternalServerError, "failed to delete todo", err)
	}
	return c.JSON(fiber.Map{"message": "todo deleted"})
}

func (s *Server) fail(c *fiber.Ctx, status int, msg string, err error) error {
	s.log.Error(msg, "path", c.Path(), "error", err)
	return c.Status(status).JSON(errorResponse{Error: msg})
}

// logWriter forwards fiber's access log lines to slog.
type logWriter struct {
	log *slog.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	w.log.Info("request", "line", strings.TrimSpace(string(p)))
	return len(p), nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}
