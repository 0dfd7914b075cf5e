package ai

import (
	"log/slog"
	"testing"

	appErrors "resumescreen/internal/errors"
)

func TestNewServiceRejectsUnknownProvider(t *testing.T) {
	cfg := groqTestConfig("")
	cfg.Provider = "openai"

	_, err := NewService(cfg, appErrors.NewLogger(slog.LevelError))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if appErrors.CodeOf(err) != appErrors.ErrCodeInvalidConfig {
		t.Errorf("expected code %s, got %s", appErrors.ErrCodeInvalidConfig, appErrors.CodeOf(err))
	}
}

func TestNewServiceCreatesGroqProvider(t *testing.T) {
	svc, err := NewService(groqTestConfig(""), appErrors.NewLogger(slog.LevelError))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer svc.Close()

	if _, ok := svc.Provider.(*GroqProvider); !ok {
		t.Errorf("expected *GroqProvider, got %T", svc.Provider)
	}

	stats := svc.GetCircuitBreakerStats()
	if stats == nil {
		t.Error("expected circuit breaker stats")
	}
}
