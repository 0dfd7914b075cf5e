package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resumescreen/internal/config"
	"resumescreen/internal/observability"
	"resumescreen/internal/screening"
	"resumescreen/internal/types"
)

func chatCompletionReply(content string) string {
	return fmt.Sprintf(`{
		"id": "chatcmpl-1",
		"model": "openai/gpt-oss-20b",
		"choices": [{"message": {"role": "assistant", "content": %q}}],
		"usage": {"prompt_tokens": 200, "completion_tokens": 80, "total_tokens": 280}
	}`, content)
}

func screeningReply() string {
	return `{
		"role_type": "mid_senior",
		"jd_fit_summary": "One strong match for the backend role.",
		"candidates": [
			{"id": "R-001", "name": "Alice", "score_percentage": 92, "is_suitable": true,
			 "strengths": ["5 years Go"], "gaps": [], "evidence": ["Led payment service rewrite"]},
			{"id": "R-002", "name": "Bob", "score_percentage": 34, "is_suitable": false,
			 "strengths": ["Team player"], "gaps": ["No Go experience"], "evidence": ["Frontend background"]}
		],
		"ranking": ["R-002", "R-001"]
	}`
}

func newScreenTestServer(t *testing.T, providerURL string) *Server {
	t.Helper()

	s := newTestServer(t, nil)
	s.MaxFileSize = 1 << 20
	s.AppConfig.AI = config.AIConfig{
		Provider:    "groq",
		Model:       "openai/gpt-oss-20b",
		APIKey:      "test-key",
		BaseURL:     providerURL,
		Timeout:     5 * time.Second,
		MaxRetries:  1,
		Temperature: 0.3,
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled: false,
		},
	}
	s.AppConfig.Screening.ExtractParallelism = 2
	s.orchestratorOpts = []screening.Option{
		screening.WithExtractFunc(func(data []byte) (string, error) {
			return string(data), nil
		}),
	}
	return s
}

func newDisabledObservability(t *testing.T, s *Server) *observability.ObservabilityManager {
	t.Helper()

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{
		ServiceName: "resumescreen-test",
		Enabled:     false,
	}, s.AppConfig)
	if err != nil {
		t.Fatalf("Failed to create observability manager: %v", err)
	}
	return om
}

func TestScreenHandlerEndToEnd(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatCompletionReply(screeningReply()))
	}))
	defer provider.Close()

	s := newScreenTestServer(t, provider.URL)
	handler := s.createScreenHandler(newDisabledObservability(t, s))

	body, contentType := buildScreenForm(t, "Senior backend engineer, 5 years Go experience", "", map[string][]byte{
		"alice.pdf": []byte("Alice, 5 years Go, payment systems"),
		"bob.pdf":   []byte("Bob, frontend engineer"),
	})
	req := httptest.NewRequest(http.MethodPost, "/screen", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result types.ScreeningResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}

	if result.RoleTier != "mid_senior" {
		t.Errorf("Expected role tier mid_senior, got %q", result.RoleTier)
	}
	if len(result.Evaluations) != 2 {
		t.Fatalf("Expected 2 evaluations, got %d", len(result.Evaluations))
	}

	// Ranking is recomputed from scores; the model's own ranking array
	// put R-002 first and must be ignored
	if len(result.Ranking) != 2 || result.Ranking[0] != "R-001" || result.Ranking[1] != "R-002" {
		t.Errorf("Expected ranking [R-001 R-002], got %v", result.Ranking)
	}
}

func TestScreenHandlerTextReport(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatCompletionReply(screeningReply()))
	}))
	defer provider.Close()

	s := newScreenTestServer(t, provider.URL)
	handler := s.createScreenHandler(newDisabledObservability(t, s))

	body, contentType := buildScreenForm(t, "Senior backend engineer", "", map[string][]byte{
		"alice.pdf": []byte("Alice, 5 years Go"),
		"bob.pdf":   []byte("Bob, frontend engineer"),
	})
	req := httptest.NewRequest(http.MethodPost, "/screen", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain")

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text/plain content type, got %q", ct)
	}

	report := rec.Body.String()
	if !strings.Contains(report, "Alice") {
		t.Errorf("Expected report to name the candidate, got:\n%s", report)
	}
	if strings.Contains(report, "R-001") {
		t.Errorf("Report must not expose internal candidate ids, got:\n%s", report)
	}
}

func TestScreenHandlerProviderFailure(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer provider.Close()

	s := newScreenTestServer(t, provider.URL)
	handler := s.createScreenHandler(newDisabledObservability(t, s))

	body, contentType := buildScreenForm(t, "Senior backend engineer", "", map[string][]byte{
		"alice.pdf": []byte("Alice, 5 years Go"),
	})
	req := httptest.NewRequest(http.MethodPost, "/screen", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error != "Failed to screen resumes" {
		t.Errorf("Expected screening failure error, got %q", resp.Error)
	}
}
