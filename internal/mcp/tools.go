package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/solacehq/solace/internal/memory"
	"github.com/solacehq/solace/internal/task"
)

func (s *Server) handleChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	message, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	result := s.orchestrator.ProcessMessage(ctx, userID, message, nil)
	if result.Degraded {
		return mcp.NewToolResultError(fmt.Sprintf("companion degraded: %v", result.Err)), nil
	}
	return mcp.NewToolResultText(result.Response), nil
}

func (s *Server) handleRemember(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: key"), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: value"), nil
	}
	typ := req.GetString("type", memory.TypePreference)

	m, upsertErr := s.memories.UpsertMemory(userID, key, value, typ, nil)
	if upsertErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store memory: %v", upsertErr)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Remembered %s as %s (id: %s)", m.Key, m.Type, m.ID)), nil
}

func (s *Server) handleListTasks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}

	filter := task.Filter{Status: task.Status(req.GetString("status", ""))}
	if filter.Status != "" && !task.ValidStatus(filter.Status) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid status %q", filter.Status)), nil
	}

	tasks, listErr := s.tasks.List(userID, filter)
	if listErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tasks: %v", listErr)), nil
	}
	if len(tasks) == 0 {
		return mcp.NewToolResultText("No tasks found."), nil
	}

	var sb strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&sb, "[%s/%s] %s", t.Priority, t.Status, t.Title)
		if t.DueDate != nil {
			fmt.Fprintf(&sb, " (due %s)", t.DueDate.Format("2006-01-02"))
		}
		fmt.Fprintf(&sb, "\n  id: %s\n", t.ID)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleCreateTask(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: title"), nil
	}

	t := task.Task{
		UserID:   userID,
		Title:    title,
		Category: req.GetString("category", ""),
		Priority: task.Priority(req.GetString("priority", "")),
	}
	if t.Priority != "" && !task.ValidPriority(t.Priority) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid priority %q", t.Priority)), nil
	}

	created, createErr := s.tasks.Create(t)
	if createErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create task: %v", createErr)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task created (id: %s)", created.ID)), nil
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	readiness := s.orchestrator.Ready(ctx)

	var sb strings.Builder
	if readiness.Ready {
		sb.WriteString("Companion: ready\n")
	} else {
		sb.WriteString("Companion: not ready\n")
		for _, issue := range readiness.Issues {
			fmt.Fprintf(&sb, "  - %s\n", issue)
		}
	}

	if userID := req.GetString("user_id", ""); userID != "" {
		mems, _ := s.memories.CountMemories(userID)
		msgs, _ := s.memories.CountMessages(userID)
		tasks, _ := s.tasks.Count(userID)
		fmt.Fprintf(&sb, "User %s: %d memories, %d messages, %d tasks\n", userID, mems, msgs, tasks)
	}

	return mcp.NewToolResultText(sb.String()), nil
}
