package ai

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"resumescreen/internal/config"
	appErrors "resumescreen/internal/errors"
)

func breakerConfig(enabled bool) *config.AIConfig {
	return &config.AIConfig{
		Provider: "gemini",
		Model:    "gemini-2.0-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          enabled,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}
}

func TestCircuitBreakerNameAndInitialState(t *testing.T) {
	cb := NewAICircuitBreaker("gemini", breakerConfig(true), nil)

	stats := cb.GetStats()
	name, ok := stats["name"].(string)
	if !ok {
		t.Fatal("Circuit breaker name not found")
	}
	if name != "AI-gemini" {
		t.Errorf("Expected circuit breaker name 'AI-gemini', got '%s'", name)
	}

	state, ok := stats["state"].(string)
	if !ok {
		t.Fatal("Circuit breaker state not found")
	}
	if state != "closed" {
		t.Errorf("Expected initial state 'closed', got '%s'", state)
	}

	if !cb.IsHealthy() {
		t.Error("New circuit breaker should be healthy")
	}
}

func TestDisabledCircuitBreakerIsNil(t *testing.T) {
	cb := NewAICircuitBreaker("gemini", breakerConfig(false), nil)
	if cb != nil {
		t.Fatal("Disabled circuit breaker should be nil")
	}

	// Nil breaker executes directly and reports healthy
	result, err := cb.Execute(func() (*InferenceResult, error) {
		return &InferenceResult{Text: "ok"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "ok" {
		t.Errorf("expected passthrough result, got %q", result.Text)
	}
	if !cb.IsHealthy() {
		t.Error("Nil circuit breaker should report healthy")
	}

	stats := cb.GetStats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Error("Nil circuit breaker stats should report enabled=false")
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cfg := breakerConfig(true)
	cb := NewAICircuitBreaker("groq", cfg, appErrors.NewLogger(slog.LevelError))

	failing := func() (*InferenceResult, error) {
		return nil, errors.New("provider down")
	}

	// MinRequests failures at a 100% failure ratio trip the breaker.
	for i := 0; i < int(cfg.CircuitBreaker.MinRequests); i++ {
		if _, err := cb.Execute(failing); err == nil {
			t.Fatal("expected failure")
		}
	}

	if cb.IsHealthy() {
		t.Error("Circuit breaker should be open after consecutive failures")
	}

	// Further calls are rejected without invoking the function.
	called := false
	_, err := cb.Execute(func() (*InferenceResult, error) {
		called = true
		return &InferenceResult{Text: "ok"}, nil
	})
	if err == nil {
		t.Fatal("expected open-state rejection")
	}
	if called {
		t.Error("open breaker should not invoke the function")
	}
}

func TestModelCircuitBreakerPassthroughWhenDisabled(t *testing.T) {
	cb := NewModelCircuitBreaker("gemini", breakerConfig(false), nil)
	if cb != nil {
		t.Fatal("Disabled model circuit breaker should be nil")
	}

	info, err := cb.ExecuteModel(func() (*ModelInfo, error) {
		return &ModelInfo{Name: "gemini-2.0-flash", Available: true}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Available {
		t.Error("expected passthrough model info")
	}
	if !cb.IsModelHealthy() {
		t.Error("Nil model circuit breaker should report healthy")
	}
}
