package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// GenerationParams carries optional sampling parameters. Nil fields use the
// backend's defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend.
// The tutor only needs single-prompt completion; backend selection is a
// construction concern, see NewClientFromEnv.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// NewClientFromEnv builds the LLM client named by LLM_BACKEND_TYPE.
// Valid values: "ollama" (default), "openai", "anthropic"/"claude".
func NewClientFromEnv() (LLMClient, error) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_BACKEND_TYPE")))
	if backend == "" {
		backend = "ollama"
	}
	slog.Info("Selecting LLM backend", "backend", backend)

	switch backend {
	case "ollama":
		return NewOllamaClient()
	case "openai":
		return NewOpenAIClient()
	case "anthropic", "claude":
		return NewAnthropicClient()
	default:
		return nil, fmt.Errorf("unknown LLM_BACKEND_TYPE %q", backend)
	}
}
