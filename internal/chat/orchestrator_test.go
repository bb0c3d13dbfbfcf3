package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/solacehq/solace/internal/db"
	"github.com/solacehq/solace/internal/gateway"
	"github.com/solacehq/solace/internal/heuristic"
	"github.com/solacehq/solace/internal/memory"
	"github.com/solacehq/solace/internal/prompt"
	"github.com/solacehq/solace/internal/template"
)

// fakeBackend is a scriptable gateway.Backend for pipeline tests.
type fakeBackend struct {
	reply     string
	err       error
	available bool
	lastInput prompt.Prompt
}

func (f *fakeBackend) Complete(_ context.Context, p prompt.Prompt) (gateway.Completion, error) {
	f.lastInput = p
	if f.err != nil {
		return gateway.Completion{}, f.err
	}
	return gateway.Completion{
		Content: f.reply,
		Model:   "fake",
		Usage:   &gateway.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (f *fakeBackend) IsAvailable(context.Context) bool { return f.available }

func (f *fakeBackend) ListModels(context.Context) []string { return []string{"fake"} }

func setupOrchestrator(t *testing.T, backend gateway.Backend) (*Orchestrator, *memory.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := memory.NewStore(database)
	templates := template.NewStore()
	assembler := prompt.NewAssembler(templates)
	extractor := heuristic.NewExtractor(heuristic.DefaultTables())

	return NewOrchestrator(store, templates, assembler, backend, extractor, nil), store
}

func TestProcessMessage_HappyPath(t *testing.T) {
	backend := &fakeBackend{reply: "Good luck with the report!", available: true}
	o, store := setupOrchestrator(t, backend)

	res := o.ProcessMessage(context.Background(), "u1", "I need to finish my report today.", nil)

	if res.Degraded {
		t.Fatalf("unexpected degraded result: %v", res.Err)
	}
	if res.Response != "Good luck with the report!" {
		t.Errorf("response: got %q", res.Response)
	}
	if res.Context.CurrentTask == "" {
		t.Error("expected task captured into context")
	}
	if res.Metadata.RequestID == "" {
		t.Error("expected a request ID")
	}
	if res.Metadata.Model != "fake" {
		t.Errorf("model: got %q", res.Metadata.Model)
	}
	if res.Metadata.Usage == nil || res.Metadata.Usage.TotalTokens != 15 {
		t.Errorf("usage: got %+v", res.Metadata.Usage)
	}

	// Both sides of the exchange are logged.
	msgs, err := store.RecentMessages("u1", 10)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 logged messages, got %d", len(msgs))
	}
	if msgs[0].Role() != "assistant" || msgs[1].Role() != "user" {
		t.Errorf("roles: got %q, %q", msgs[0].Role(), msgs[1].Role())
	}
	if msgs[0].Metadata["request_id"] != res.Metadata.RequestID {
		t.Error("reply should carry the turn's request ID")
	}

	// Context is persisted for the next turn.
	saved, err := store.Context("u1")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if saved.CurrentTask != res.Context.CurrentTask {
		t.Errorf("persisted task: got %q, want %q", saved.CurrentTask, res.Context.CurrentTask)
	}
}

func TestProcessMessage_BackendFailureDegrades(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused"), available: false}
	o, store := setupOrchestrator(t, backend)

	res := o.ProcessMessage(context.Background(), "u1", "hello", nil)

	if !res.Degraded {
		t.Fatal("expected degraded result")
	}
	if res.Response != FallbackResponse {
		t.Errorf("response: got %q", res.Response)
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "connection refused") {
		t.Errorf("err: got %v", res.Err)
	}
	if res.Metadata.RequestID == "" {
		t.Error("degraded result should still carry a request ID")
	}
	if res.Metadata.ResponseTime <= 0 {
		t.Error("degraded result should still carry response time")
	}

	// A failed turn logs nothing.
	if n, _ := store.CountMessages("u1"); n != 0 {
		t.Errorf("expected no logged messages, got %d", n)
	}
}

func TestProcessMessage_SecondTurnSeesContext(t *testing.T) {
	backend := &fakeBackend{reply: "Noted.", available: true}
	o, _ := setupOrchestrator(t, backend)

	o.ProcessMessage(context.Background(), "u1", "Please remind me to water the plants today.", nil)
	res := o.ProcessMessage(context.Background(), "u1", "how's it going?", nil)

	if res.Context.CurrentTask == "" {
		t.Error("second turn should carry over the stored task")
	}

	// The stored task surfaces in the assembled prompt via the memory digest.
	if !strings.Contains(backend.lastInput.SystemText(), "water the plants") {
		t.Error("prompt should include the remembered task")
	}
}

func TestProcessMessage_OverrideReachesPrompt(t *testing.T) {
	backend := &fakeBackend{reply: "Arr.", available: true}
	o, _ := setupOrchestrator(t, backend)

	override := &template.Override{SystemPrompt: "You are a pirate."}
	res := o.ProcessMessage(context.Background(), "u1", "hello", override)

	if res.Degraded {
		t.Fatalf("unexpected degraded result: %v", res.Err)
	}
	if !strings.Contains(backend.lastInput.SystemText(), "You are a pirate.") {
		t.Error("override should reach the assembled prompt")
	}
}

func TestFormatDigest(t *testing.T) {
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mems := []memory.Memory{
		{Key: "favourite_food", Value: "ramen", UpdatedAt: when},
		{Key: "current_task", Value: "write tests", UpdatedAt: when},
	}

	got := FormatDigest(mems)
	want := "favourite_food: ramen (2026-03-01); current_task: write tests (2026-03-01)"
	if got != want {
		t.Errorf("digest:\n got %q\nwant %q", got, want)
	}

	if FormatDigest(nil) != "" {
		t.Error("empty digest should be empty string")
	}
}

func TestReady(t *testing.T) {
	backend := &fakeBackend{available: true}
	o, _ := setupOrchestrator(t, backend)

	r := o.Ready(context.Background())
	if !r.Ready || len(r.Issues) != 0 {
		t.Errorf("expected ready, got %+v", r)
	}

	backend.available = false
	r = o.Ready(context.Background())
	if r.Ready {
		t.Error("expected not ready with unavailable backend")
	}
	if len(r.Issues) != 1 || !strings.Contains(r.Issues[0], "backend") {
		t.Errorf("issues: got %v", r.Issues)
	}
}

func TestResetConversation(t *testing.T) {
	backend := &fakeBackend{reply: "ok", available: true}
	o, store := setupOrchestrator(t, backend)

	o.ProcessMessage(context.Background(), "u1", "I'm happy and I need to pack for the trip.", nil)
	store.UpsertMemory("u1", "favourite_food", "ramen", memory.TypePreference, nil)

	if !o.ResetConversation("u1") {
		t.Fatal("reset should succeed")
	}

	if n, _ := store.CountMessages("u1"); n != 0 {
		t.Errorf("messages after reset: got %d", n)
	}
	// Preferences survive; conversation state does not.
	if _, ok, _ := store.GetMemory("u1", "favourite_food", memory.TypePreference); !ok {
		t.Error("preference memory should survive reset")
	}
	ctx, _ := store.Context("u1")
	if ctx.CurrentTask != "" || ctx.Mood != "" {
		t.Errorf("context after reset: %+v", ctx)
	}
}

func TestDebugView_DoesNotTouchState(t *testing.T) {
	backend := &fakeBackend{available: true}
	o, store := setupOrchestrator(t, backend)

	view, err := o.DebugView("u1", "hello", nil)
	if err != nil {
		t.Fatalf("DebugView: %v", err)
	}
	if !strings.Contains(view, "=== Assembled Prompt ===") {
		t.Errorf("view: got %q", view)
	}
	if n, _ := store.CountMessages("u1"); n != 0 {
		t.Error("debug view should not log messages")
	}
}
