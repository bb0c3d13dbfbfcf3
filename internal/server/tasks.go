package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/solacehq/solace/internal/task"
)

type taskRequest struct {
	UserID      string     `json:"userId"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Status      *string    `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// handleListTasks returns the user's tasks with optional filters.
// GET /api/v1/tasks?userId=u1&status=pending&category=work&priority=high
func (s *Server) handleListTasks(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return fieldError(c, "userId", "userId is required")
	}

	filter := task.Filter{
		Status:   task.Status(c.Query("status")),
		Category: c.Query("category"),
		Priority: task.Priority(c.Query("priority")),
	}
	if filter.Status != "" && !task.ValidStatus(filter.Status) {
		return fieldError(c, "status", "unknown status")
	}
	if filter.Priority != "" && !task.ValidPriority(filter.Priority) {
		return fieldError(c, "priority", "unknown priority")
	}

	tasks, err := s.tasks.List(userID, filter)
	if err != nil {
		slog.Error("task list failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list tasks",
		})
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return c.JSON(fiber.Map{"tasks": tasks})
}

// handleCreateTask creates a task.
// POST /api/v1/tasks
func (s *Server) handleCreateTask(c *fiber.Ctx) error {
	var req taskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.UserID == "" {
		return fieldError(c, "userId", "userId is required")
	}
	if req.Title == nil || *req.Title == "" {
		return fieldError(c, "title", "title is required")
	}

	t := task.Task{
		UserID:  req.UserID,
		Title:   *req.Title,
		DueDate: req.DueDate,
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Category != nil {
		t.Category = *req.Category
	}
	if req.Priority != nil {
		t.Priority = task.Priority(*req.Priority)
		if !task.ValidPriority(t.Priority) {
			return fieldError(c, "priority", "unknown priority")
		}
	}

	created, err := s.tasks.Create(t)
	if err != nil {
		slog.Error("task create failed", "user_id", req.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create task",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// handleGetTask returns one task.
// GET /api/v1/tasks/:id?userId=u1
func (s *Server) handleGetTask(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return fieldError(c, "userId", "userId is required")
	}

	t, err := s.tasks.Get(userID, c.Params("id"))
	if errors.Is(err, task.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "task not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read task",
		})
	}
	return c.JSON(t)
}

// handleUpdateTask applies a partial update. Setting status to completed
// stamps completedAt; any other status clears it.
// PATCH /api/v1/tasks/:id
func (s *Server) handleUpdateTask(c *fiber.Ctx) error {
	var req taskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.UserID == "" {
		return fieldError(c, "userId", "userId is required")
	}

	update := task.Update{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		DueDate:     req.DueDate,
	}
	if req.Priority != nil {
		p := task.Priority(*req.Priority)
		if !task.ValidPriority(p) {
			return fieldError(c, "priority", "unknown priority")
		}
		update.Priority = &p
	}
	if req.Status != nil {
		st := task.Status(*req.Status)
		if !task.ValidStatus(st) {
			return fieldError(c, "status", "unknown status")
		}
		update.Status = &st
	}

	t, err := s.tasks.Apply(req.UserID, c.Params("id"), update)
	if errors.Is(err, task.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "task not found"})
	}
	if err != nil {
		slog.Error("task update failed", "user_id", req.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update task",
		})
	}
	return c.JSON(t)
}

// handleDeleteTask removes a task.
// DELETE /api/v1/tasks/:id?userId=u1
func (s *Server) handleDeleteTask(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return fieldError(c, "userId", "userId is required")
	}

	err := s.tasks.Delete(userID, c.Params("id"))
	if errors.Is(err, task.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "task not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete task",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
