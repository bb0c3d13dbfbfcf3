package server

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/solacehq/solace/internal/logging"
	"github.com/solacehq/solace/internal/template"
)

// MaxMessageLength bounds the chat message body.
const MaxMessageLength = 2000

type chatRequest struct {
	UserID    string             `json:"userId"`
	Message   string             `json:"message"`
	Overrides *template.Override `json:"overrides,omitempty"`
	Debug     bool               `json:"debug,omitempty"`
}

// handleChat runs one conversation turn.
// POST /api/v1/chat
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.UserID == "" {
		return fieldError(c, "userId", "userId is required")
	}
	if req.Message == "" {
		return fieldError(c, "message", "message is required")
	}
	if len(req.Message) > MaxMessageLength {
		return fieldError(c, "message", "message must be at most 2000 characters")
	}

	if readiness := s.orchestrator.Ready(c.Context()); !readiness.Ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":  "not ready",
			"issues": readiness.Issues,
		})
	}

	var debugView string
	if req.Debug {
		view, err := s.orchestrator.DebugView(req.UserID, req.Message, req.Overrides)
		if err != nil {
			slog.Warn("debug view failed", "user_id", req.UserID, "error", err)
		} else {
			debugView = view
		}
	}

	result := s.orchestrator.ProcessMessage(c.Context(), req.UserID, req.Message, req.Overrides)
	if result.Degraded {
		logging.WithRequest(result.Metadata.RequestID, req.UserID).
			Warn("served degraded response", "error", result.Err)
	}

	resp := fiber.Map{
		"response": result.Response,
		"context":  result.Context,
		"metadata": fiber.Map{
			"requestId":      result.Metadata.RequestID,
			"promptTokens":   result.Metadata.PromptTokens,
			"responseTimeMs": result.Metadata.ResponseTime.Milliseconds(),
			"model":          result.Metadata.Model,
			"usage":          result.Metadata.Usage,
		},
	}
	if debugView != "" {
		resp["debugView"] = debugView
	}
	return c.JSON(resp)
}

// handleHistory returns the user's recent messages, newest first.
// GET /api/v1/conversations/:userId?limit=20
func (s *Server) handleHistory(c *fiber.Ctx) error {
	userID := c.Params("userId")
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 200 {
		limit = 20
	}

	messages, err := s.orchestrator.History(userID, limit)
	if err != nil {
		slog.Error("history read failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read history",
		})
	}

	out := make([]fiber.Map, 0, len(messages))
	for _, m := range messages {
		out = append(out, fiber.Map{
			"id":        m.ID,
			"content":   m.Content,
			"role":      m.Role(),
			"timestamp": m.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"messages": out})
}

// handleReset wipes the user's conversation state.
// DELETE /api/v1/conversations/:userId
func (s *Server) handleReset(c *fiber.Ctx) error {
	userID := c.Params("userId")
	return c.JSON(fiber.Map{
		"reset": s.orchestrator.ResetConversation(userID),
	})
}

// handleHealth is a bare liveness probe.
// GET /health
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleReady reports pipeline readiness with per-dependency issues.
// GET /ready
func (s *Server) handleReady(c *fiber.Ctx) error {
	readiness := s.orchestrator.Ready(c.Context())
	status := fiber.StatusOK
	if !readiness.Ready {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(readiness)
}
