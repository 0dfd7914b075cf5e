package ai

import "context"

// Provider is the single-call inference interface. Implementations own
// their transport concerns (retries, circuit breaking, timeouts);
// callers issue exactly one Infer per screening run.
type Provider interface {
	Infer(ctx context.Context, prompt string) (string, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// InferenceResult is the raw transport-level outcome of one model call.
type InferenceResult struct {
	Text  string
	Usage *TokenUsage
}
