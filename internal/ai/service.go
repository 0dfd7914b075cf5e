package ai

import (
	"context"
	"fmt"

	"resumescreen/internal/config"
	"resumescreen/internal/errors"
)

// Service owns the configured AI provider
type Service struct {
	Provider Provider // Exported for access from server package
	config   *config.AIConfig
	logger   *errors.Logger
}

// NewService creates an AI service for the configured provider
func NewService(cfg *config.AIConfig, logger *errors.Logger) (*Service, error) {
	var provider Provider
	var err error

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries)

	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, logger)
	case "groq":
		provider, err = NewGroqProvider(cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	return &Service{
		Provider: provider,
		config:   cfg,
		logger:   logger,
	}, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// GetCircuitBreakerStats returns provider circuit breaker statistics
// when the provider exposes them.
func (s *Service) GetCircuitBreakerStats() map[string]any {
	type statser interface {
		GetCircuitBreakerStats() map[string]any
	}
	if p, ok := s.Provider.(statser); ok {
		return p.GetCircuitBreakerStats()
	}
	return map[string]any{"enabled": false}
}

// Close releases provider resources
func (s *Service) Close() error {
	return s.Provider.Close()
}
