// Package mcp exposes the companion as MCP tools over stdio so coding
// agents and other MCP clients can chat with it and manage tasks.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/solacehq/solace/internal/chat"
	"github.com/solacehq/solace/internal/memory"
	"github.com/solacehq/solace/internal/task"
)

// Server bundles the orchestrator and stores behind MCP tool handlers.
type Server struct {
	orchestrator *chat.Orchestrator
	memories     *memory.Store
	tasks        *task.Store
	version      string
}

// NewServer creates the MCP tool server.
func NewServer(orchestrator *chat.Orchestrator, memories *memory.Store, tasks *task.Store, version string) *Server {
	return &Server{
		orchestrator: orchestrator,
		memories:     memories,
		tasks:        tasks,
		version:      version,
	}
}

// ServeStdio registers the tools and serves MCP over stdin/stdout until the
// client disconnects.
func (s *Server) ServeStdio() error {
	srv := server.NewMCPServer("solace", s.version)

	srv.AddTool(mcp.NewTool("chat",
		mcp.WithDescription("Send a message to the companion and get its reply. Conversation context persists across calls."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Stable identifier for the user")),
		mcp.WithString("message", mcp.Required(), mcp.Description("The message to send")),
	), s.handleChat)

	srv.AddTool(mcp.NewTool("remember",
		mcp.WithDescription("Store a fact about the user as a typed key/value memory."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Stable identifier for the user")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Memory key, e.g. favourite_food")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Memory value")),
		mcp.WithString("type", mcp.Description("Memory type tag (default: preference)")),
	), s.handleRemember)

	srv.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the user's tasks, optionally filtered by status."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Stable identifier for the user")),
		mcp.WithString("status", mcp.Description("Filter: pending, in_progress, completed, cancelled")),
	), s.handleListTasks)

	srv.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a task on the user's list."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Stable identifier for the user")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("priority", mcp.Description("low, medium, or high (default: medium)")),
		mcp.WithString("category", mcp.Description("Free-form category")),
	), s.handleCreateTask)

	srv.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Report companion readiness and per-user storage counts."),
		mcp.WithString("user_id", mcp.Description("Optional user to report counts for")),
	), s.handleStatus)

	return server.ServeStdio(srv)
}
