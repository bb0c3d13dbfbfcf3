package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/solacehq/solace/internal/prompt"
)

// openaiBackend adapts any local OpenAI-compatible completion server
// (llama.cpp, LM Studio, vLLM) via its chat API:
// request {model, messages:[{role, content}], temperature, max_tokens}.
type openaiBackend struct {
	client      *openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAI creates a backend for an OpenAI-compatible local server.
func NewOpenAI(opts Options) Backend {
	base := opts.BaseURL
	if base == "" {
		base = "http://localhost:8080"
	}
	cfg := openai.DefaultConfig("")
	cfg.BaseURL = strings.TrimRight(base, "/") + "/v1"

	model := opts.Model
	if model == "" {
		model = "default"
	}

	return &openaiBackend{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}
}

func (o *openaiBackend) Complete(ctx context.Context, p prompt.Prompt) (Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		role := openai.ChatMessageRoleUser
		if b.Role == prompt.RoleSystem {
			role = openai.ChatMessageRoleSystem
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: b.Content})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   o.maxTokens,
		Temperature: float32(o.temperature),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return Completion{}, &ServiceError{
				Backend: KindOpenAI,
				Status:  apiErr.HTTPStatusCode,
				Message: apiErr.Message,
			}
		}
		return Completion{}, &ServiceError{Backend: KindOpenAI, Message: err.Error()}
	}

	if len(resp.Choices) == 0 {
		return Completion{}, &ServiceError{Backend: KindOpenAI, Message: "empty choices in response"}
	}

	return Completion{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (o *openaiBackend) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := o.client.ListModels(ctx)
	return err == nil
}

func (o *openaiBackend) ListModels(ctx context.Context) []string {
	resp, err := o.client.ListModels(ctx)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.ID)
	}
	return names
}
