package ai

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

func TestGeminiAuthErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "unauthorized is an auth failure",
			err:      &googleapi.Error{Code: http.StatusUnauthorized, Message: "API key not valid"},
			expected: true,
		},
		{
			name:     "forbidden is an auth failure",
			err:      &googleapi.Error{Code: http.StatusForbidden, Message: "permission denied"},
			expected: true,
		},
		{
			name:     "wrapped auth failure is still detected",
			err:      fmt.Errorf("operation failed: %w", &googleapi.Error{Code: http.StatusUnauthorized}),
			expected: true,
		},
		{
			name:     "rate limit is not an auth failure",
			err:      &googleapi.Error{Code: http.StatusTooManyRequests},
			expected: false,
		},
		{
			name:     "server error is not an auth failure",
			err:      &googleapi.Error{Code: http.StatusInternalServerError},
			expected: false,
		},
		{
			name:     "plain error is not an auth failure",
			err:      fmt.Errorf("connection refused"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isGeminiAuthError(tt.err); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestGeminiRetryableErrorExcludesAuthFailures(t *testing.T) {
	if isRetryableGeminiError(&googleapi.Error{Code: http.StatusUnauthorized}) {
		t.Error("auth failure must not be retryable")
	}
	if !isRetryableGeminiError(&googleapi.Error{Code: http.StatusServiceUnavailable}) {
		t.Error("service unavailable must be retryable")
	}
}

func TestWithCallTimeout(t *testing.T) {
	ctx := context.Background()

	callCtx, cancel := withCallTimeout(ctx, 30*time.Second)
	defer cancel()
	deadline, ok := callCtx.Deadline()
	if !ok {
		t.Fatal("expected a deadline on the call context")
	}
	if remaining := time.Until(deadline); remaining > 30*time.Second || remaining < 25*time.Second {
		t.Errorf("unexpected deadline, %v remaining", remaining)
	}

	noTimeoutCtx, cancel := withCallTimeout(ctx, 0)
	defer cancel()
	if _, ok := noTimeoutCtx.Deadline(); ok {
		t.Error("zero timeout must not add a deadline")
	}
}

func TestWithCallTimeoutKeepsEarlierDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	callCtx, cancel := withCallTimeout(parent, 1*time.Minute)
	defer cancel()

	deadline, ok := callCtx.Deadline()
	if !ok {
		t.Fatal("expected a deadline on the call context")
	}
	if time.Until(deadline) > 2*time.Second {
		t.Error("call timeout must not extend the caller's deadline")
	}
}
