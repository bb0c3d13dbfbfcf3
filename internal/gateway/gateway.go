// Package gateway talks to a locally hosted completion backend and
// normalizes the two supported wire shapes to one result contract.
package gateway

import (
	"context"
	"fmt"

	"github.com/solacehq/solace/internal/prompt"
)

// Backend kind constants.
const (
	KindOllama = "ollama"
	KindOpenAI = "openai"
)

// Usage holds token accounting reported by the backend, when available.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the normalized result of a completion call.
type Completion struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
	Usage   *Usage `json:"usage,omitempty"`
}

// Backend is the contract both local completion services are adapted to.
type Backend interface {
	// Complete sends an assembled prompt and returns the generated text.
	Complete(ctx context.Context, p prompt.Prompt) (Completion, error)

	// IsAvailable probes the backend. It never returns an error; any
	// failure is reported as false.
	IsAvailable(ctx context.Context) bool

	// ListModels returns the model names the backend serves. Empty on any
	// failure; never errors.
	ListModels(ctx context.Context) []string
}

// ServiceError reports a backend that is unreachable or returned a
// non-success status. Status is 0 when the backend could not be reached.
type ServiceError struct {
	Backend string
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("gateway: %s unreachable: %s", e.Backend, e.Message)
	}
	return fmt.Sprintf("gateway: %s returned status %d: %s", e.Backend, e.Status, e.Message)
}

// Options configure a backend.
type Options struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// New constructs the Backend for the named kind.
func New(kind string, opts Options) (Backend, error) {
	switch kind {
	case KindOllama:
		return NewOllama(opts), nil
	case KindOpenAI:
		return NewOpenAI(opts), nil
	default:
		return nil, fmt.Errorf("gateway: unknown backend kind %q; valid kinds: ollama, openai", kind)
	}
}
