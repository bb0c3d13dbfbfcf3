// Package chat is the conversation entry point: it pulls context and
// memories, assembles the prompt, invokes the model backend, folds the
// exchange back into persisted context, and returns the reply.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solacehq/solace/internal/gateway"
	"github.com/solacehq/solace/internal/heuristic"
	"github.com/solacehq/solace/internal/memory"
	"github.com/solacehq/solace/internal/prompt"
	"github.com/solacehq/solace/internal/template"
)

// FallbackResponse is returned in place of a reply when any pipeline step
// fails. The failure is carried on the Result for logging, never surfaced to
// the end user.
const FallbackResponse = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."

// DefaultMemoryLimit caps how many memories feed the prompt digest.
const DefaultMemoryLimit = 10

// Metadata describes one processed exchange.
type Metadata struct {
	RequestID    string         `json:"request_id"`
	PromptTokens int            `json:"prompt_tokens"`
	ResponseTime time.Duration  `json:"response_time"`
	Model        string         `json:"model,omitempty"`
	Usage        *gateway.Usage `json:"usage,omitempty"`
}

// Result is the outcome of ProcessMessage. Degraded marks a recovered
// failure: Response holds the fallback text and Err the original error.
type Result struct {
	Response string         `json:"response"`
	Context  memory.Context `json:"context"`
	Metadata Metadata       `json:"metadata"`
	Degraded bool           `json:"-"`
	Err      error          `json:"-"`
}

// Orchestrator wires the stores, assembler, extractor, and backend together.
// All dependencies are passed in explicitly; there is no ambient state.
type Orchestrator struct {
	store     *memory.Store
	templates *template.Store
	assembler *prompt.Assembler
	backend   gateway.Backend
	extractor *heuristic.Extractor
	tokenizer *prompt.Tokenizer
}

// NewOrchestrator creates an Orchestrator. tokenizer may be nil, in which
// case prompt length metadata falls back to a character count.
func NewOrchestrator(
	store *memory.Store,
	templates *template.Store,
	assembler *prompt.Assembler,
	backend gateway.Backend,
	extractor *heuristic.Extractor,
	tokenizer *prompt.Tokenizer,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		templates: templates,
		assembler: assembler,
		backend:   backend,
		extractor: extractor,
		tokenizer: tokenizer,
	}
}

// ProcessMessage runs one conversation turn. It never returns an error: any
// failure degrades to the fallback response with an empty context and the
// original error attached for logging. ResponseTime is populated either way.
func (o *Orchestrator) ProcessMessage(ctx context.Context, userID, message string, override *template.Override) Result {
	start := time.Now()
	requestID := uuid.New().String()

	res, err := o.process(ctx, userID, message, override, requestID)
	res.Metadata.RequestID = requestID
	res.Metadata.ResponseTime = time.Since(start)

	if err != nil {
		slog.Error("message pipeline failed, degrading to fallback",
			"request_id", requestID, "user_id", userID, "error", err)
		return Result{
			Response: FallbackResponse,
			Context:  memory.NewContext(userID),
			Metadata: Metadata{RequestID: requestID, ResponseTime: time.Since(start)},
			Degraded: true,
			Err:      err,
		}
	}
	return res
}

// process is the fallible pipeline; ProcessMessage owns the degrade policy.
func (o *Orchestrator) process(ctx context.Context, userID, message string, override *template.Override, requestID string) (Result, error) {
	// 1. Context: absent state means a fresh context keyed to the user.
	conv, err := o.store.Context(userID)
	if err != nil {
		return Result{}, fmt.Errorf("read context: %w", err)
	}

	// 2. Memories.
	mems, err := o.store.RelevantMemories(userID, conv, DefaultMemoryLimit)
	if err != nil {
		return Result{}, fmt.Errorf("read memories: %w", err)
	}
	digest := FormatDigest(mems)

	// 3. Prompt.
	p, err := o.assembler.Build(message, conv, digest, override)
	if err != nil {
		return Result{}, fmt.Errorf("assemble prompt: %w", err)
	}

	// 4. Completion.
	completion, err := o.backend.Complete(ctx, p)
	if err != nil {
		return Result{}, fmt.Errorf("complete: %w", err)
	}

	// 5. Heuristic context update from both sides of the exchange.
	updated := o.extractor.Apply(conv, message, completion.Content)

	// 6. Persist the exchange and the updated context.
	if _, err := o.store.AppendMessage(userID, message, map[string]any{
		"role":       "user",
		"request_id": requestID,
	}); err != nil {
		return Result{}, fmt.Errorf("append user message: %w", err)
	}

	replyMeta := map[string]any{
		"role":       "assistant",
		"request_id": requestID,
	}
	if completion.Usage != nil {
		replyMeta["total_tokens"] = completion.Usage.TotalTokens
	}
	if _, err := o.store.AppendMessage(userID, completion.Content, replyMeta); err != nil {
		return Result{}, fmt.Errorf("append reply: %w", err)
	}

	if err := o.store.StoreContext(updated); err != nil {
		return Result{}, fmt.Errorf("store context: %w", err)
	}

	return Result{
		Response: completion.Content,
		Context:  updated,
		Metadata: Metadata{
			PromptTokens: o.promptLength(p),
			Model:        completion.Model,
			Usage:        completion.Usage,
		},
	}, nil
}

func (o *Orchestrator) promptLength(p prompt.Prompt) int {
	text := p.Text()
	if o.tokenizer != nil {
		return o.tokenizer.Count(text)
	}
	return len(text)
}

// FormatDigest renders memories as "key: value (date)" entries joined by
// "; " for inclusion in the prompt.
func FormatDigest(mems []memory.Memory) string {
	if len(mems) == 0 {
		return ""
	}
	parts := make([]string, 0, len(mems))
	for _, m := range mems {
		parts = append(parts, fmt.Sprintf("%s: %s (%s)", m.Key, m.Value, m.UpdatedAt.Format("2006-01-02")))
	}
	return strings.Join(parts, "; ")
}

// Readiness is the structured result of Ready. Issues is empty when ready.
type Readiness struct {
	Ready  bool     `json:"ready"`
	Issues []string `json:"issues,omitempty"`
}

// Ready aggregates a backend liveness probe and a template presence check.
// It always returns a structured result.
func (o *Orchestrator) Ready(ctx context.Context) Readiness {
	var issues []string
	if !o.backend.IsAvailable(ctx) {
		issues = append(issues, "model backend unreachable")
	}
	if o.templates.Empty() {
		issues = append(issues, "no prompt templates loaded")
	}
	return Readiness{Ready: len(issues) == 0, Issues: issues}
}

// History returns the user's recent messages, newest first.
func (o *Orchestrator) History(userID string, limit int) ([]memory.Message, error) {
	return o.store.RecentMessages(userID, limit)
}

// DebugView renders the prompt that ProcessMessage would assemble, without
// calling the backend or touching stored state.
func (o *Orchestrator) DebugView(userID, message string, override *template.Override) (string, error) {
	conv, err := o.store.Context(userID)
	if err != nil {
		return "", err
	}
	mems, err := o.store.RelevantMemories(userID, conv, DefaultMemoryLimit)
	if err != nil {
		return "", err
	}
	return o.assembler.DebugView(message, conv, FormatDigest(mems), override)
}

// ResetConversation deletes the user's message log and conversation-typed
// memories. Errors are swallowed to false.
func (o *Orchestrator) ResetConversation(userID string) bool {
	if _, err := o.store.DeleteMessages(userID); err != nil {
		slog.Error("reset: delete messages failed", "user_id", userID, "error", err)
		return false
	}
	if _, err := o.store.DeleteMemoriesByType(userID, memory.TypeConversation); err != nil {
		slog.Error("reset: delete memories failed", "user_id", userID, "error", err)
		return false
	}
	return true
}
