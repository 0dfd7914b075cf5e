package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"resumescreen/internal/config"
	appErrors "resumescreen/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         *config.AIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *appErrors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(cfg *config.AIConfig, logger *appErrors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, appErrors.NewConfigError(appErrors.ErrCodeMissingAPIKey,
			"Gemini API key is not set (set RESUMESCREEN_AI_APIKEY or GEMINI_API_KEY)", nil)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		circuitBreaker: NewAICircuitBreaker("gemini", cfg, logger),
		modelBreaker:   NewModelCircuitBreaker("gemini", cfg, logger),
		logger:         logger,
	}, nil
}

// Infer sends the composed prompt to Gemini and returns the raw model
// output. Retries and circuit breaking happen here; callers make
// exactly one Infer call per screening run.
func (g *GeminiProvider) Infer(ctx context.Context, prompt string) (string, *TokenUsage, error) {
	tracer := otel.Tracer("resumescreen.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.screen_candidates")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(g.config.Temperature)),
		attribute.Int("input.prompt_length", len(prompt)),
	)

	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if g.config.Temperature > 0 {
		genaiConfig.Temperature = &g.config.Temperature
	}

	result, err := g.circuitBreaker.Execute(func() (*InferenceResult, error) {
		return executeWithRetry(ctx, g.logger, g.config.MaxRetries, "screen_candidates", isRetryableGeminiError,
			func() (*InferenceResult, error) {
				// Groq gets its timeout from the HTTP client; here the
				// configured timeout bounds each attempt's context.
				callCtx, cancel := withCallTimeout(ctx, g.config.Timeout)
				defer cancel()

				resp, err := g.client.Models.GenerateContent(callCtx, g.config.Model, genai.Text(prompt), genaiConfig)
				if err != nil {
					return nil, err
				}
				return &InferenceResult{
					Text:  resp.Text(),
					Usage: extractGeminiTokenUsage(resp),
				}, nil
			})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		if isGeminiAuthError(err) {
			return "", nil, appErrors.NewAIError(appErrors.ErrCodeMissingAPIKey,
				"Gemini rejected the configured API key", err)
		}
		return "", nil, appErrors.NewAIError(appErrors.ErrCodeProviderUnavailable,
			"Gemini inference failed", err)
	}

	if result.Text == "" {
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, appErrors.NewAIError(appErrors.ErrCodeUnexpectedResponse,
			"Gemini returned a response with no text content", nil)
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

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	info, err := g.modelBreaker.ExecuteModel(func() (*ModelInfo, error) {
		model, err := g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
		if err != nil {
			return nil, err
		}
		return &ModelInfo{
			Name:        g.config.Model,
			DisplayName: model.DisplayName,
			Version:     model.Version,
			Available:   true,
		}, nil
	})
	if err != nil {
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", "gemini",
			"error", err.Error())
		return &ModelInfo{
			Name:      g.config.Model,
			Available: false,
			Error:     fmt.Sprintf("Failed to get model info: %v", err),
		}
	}
	return info
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}
	stats["overall_healthy"] = g.circuitBreaker.IsHealthy() && g.modelBreaker.IsModelHealthy()
	return stats
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// isGeminiAuthError reports whether the API rejected the credentials,
// as opposed to being unreachable. Auth failures keep their own error
// code because retrying with the same key cannot succeed.
func isGeminiAuthError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized ||
			apiErr.Code == http.StatusForbidden
	}
	return false
}

// isRetryableGeminiError determines if an error should trigger a retry
func isRetryableGeminiError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors (timeouts, connection issues)
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Check for Google API errors (HTTP status codes)
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
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

// extractGeminiTokenUsage extracts token usage information from a Gemini API response
func extractGeminiTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
