package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"resumescreen/internal/config"
	appErrors "resumescreen/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// defaultGroqBaseURL is Groq's OpenAI-compatible endpoint root.
const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider implements Provider over Groq's OpenAI-compatible
// chat completions API.
type GroqProvider struct {
	baseURL        string
	httpClient     *http.Client
	config         *config.AIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *appErrors.Logger
}

var _ Provider = (*GroqProvider)(nil)

// NewGroqProvider creates a new Groq provider instance
func NewGroqProvider(cfg *config.AIConfig, logger *appErrors.Logger) (*GroqProvider, error) {
	if cfg.APIKey == "" {
		return nil, appErrors.NewConfigError(appErrors.ErrCodeMissingAPIKey,
			"Groq API key is not set (set RESUMESCREEN_AI_APIKEY or GROQ_API_KEY)", nil)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}

	return &GroqProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config:         cfg,
		circuitBreaker: NewAICircuitBreaker("groq", cfg, logger),
		modelBreaker:   NewModelCircuitBreaker("groq", cfg, logger),
		logger:         logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// httpStatusError carries the HTTP status of a failed API call so the
// retry classifier can distinguish throttling from hard failures.
type httpStatusError struct {
	StatusCode int
	Message    string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("groq api status %d: %s", e.StatusCode, e.Message)
}

// Infer sends the composed prompt as a single user message and returns
// the raw model output.
func (p *GroqProvider) Infer(ctx context.Context, prompt string) (string, *TokenUsage, error) {
	tracer := otel.Tracer("resumescreen.ai.groq")
	ctx, span := tracer.Start(ctx, "groq.screen_candidates")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "groq"),
		attribute.String("ai.model", p.config.Model),
		attribute.Float64("ai.temperature", float64(p.config.Temperature)),
		attribute.Int("input.prompt_length", len(prompt)),
	)

	result, err := p.circuitBreaker.Execute(func() (*InferenceResult, error) {
		return executeWithRetry(ctx, p.logger, p.config.MaxRetries, "screen_candidates", isRetryableGroqError,
			func() (*InferenceResult, error) {
				return p.chatCompletion(ctx, prompt)
			})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		if isGroqAuthError(err) {
			return "", nil, appErrors.NewAIError(appErrors.ErrCodeMissingAPIKey,
				"Groq rejected the configured API key", err)
		}
		return "", nil, appErrors.NewAIError(appErrors.ErrCodeProviderUnavailable,
			"Groq inference failed", err)
	}

	if result.Text == "" {
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, appErrors.NewAIError(appErrors.ErrCodeUnexpectedResponse,
			"Groq returned a response with no content", nil)
	}

	if result.Usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.Usage.InputTokens),
			attribute.Int64("ai.tokens.output", result.Usage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.Usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))

	return result.Text, result.Usage, nil
}

// chatCompletion performs one chat completions request
func (p *GroqProvider) chatCompletion(ctx context.Context, prompt string) (*InferenceResult, error) {
	reqBody := chatRequest{
		Model: p.config.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature:    &p.config.Temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &httpStatusError{StatusCode: resp.StatusCode, Message: string(body)}
		}
		return nil, fmt.Errorf("groq response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, &httpStatusError{StatusCode: resp.StatusCode,
			Message: fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Type)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("groq response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	return &InferenceResult{
		Text:  content,
		Usage: extractGroqTokenUsage(&parsed),
	}, nil
}

// GetModelInfo checks model availability via the models endpoint
func (p *GroqProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	info, err := p.modelBreaker.ExecuteModel(func() (*ModelInfo, error) {
		req, err := http.NewRequestWithContext(checkCtx, http.MethodGet,
			p.baseURL+"/models/"+p.config.Model, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return nil, &httpStatusError{StatusCode: resp.StatusCode, Message: string(body)}
		}

		var model struct {
			ID      string `json:"id"`
			OwnedBy string `json:"owned_by"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&model); err != nil {
			return nil, fmt.Errorf("groq model info parse: %w", err)
		}
		return &ModelInfo{
			Name:        p.config.Model,
			DisplayName: model.ID,
			Available:   true,
		}, nil
	})
	if err != nil {
		p.logger.Warn("Model availability check failed",
			"model", p.config.Model,
			"provider", "groq",
			"error", err.Error())
		return &ModelInfo{
			Name:      p.config.Model,
			Available: false,
			Error:     fmt.Sprintf("Failed to get model info: %v", err),
		}
	}
	return info
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (p *GroqProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    p.circuitBreaker.GetStats(),
		"model_operations": p.modelBreaker.GetModelStats(),
	}
	stats["overall_healthy"] = p.circuitBreaker.IsHealthy() && p.modelBreaker.IsModelHealthy()
	return stats
}

// Close implements Provider
func (p *GroqProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// isRetryableGroqError determines if an error should trigger a retry
// isGroqAuthError reports whether the API rejected the credentials, as
// opposed to being unreachable. Auth failures keep their own error code
// because retrying with the same key cannot succeed.
func isGroqAuthError(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusUnauthorized ||
			statusErr.StatusCode == http.StatusForbidden
	}
	return false
}

func isRetryableGroqError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// extractGroqTokenUsage extracts token usage from a chat completions response
func extractGroqTokenUsage(resp *chatResponse) *TokenUsage {
	if resp == nil || resp.Usage == nil {
		return nil
	}
	return &TokenUsage{
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
		TotalTokens:  int64(resp.Usage.TotalTokens),
	}
}
