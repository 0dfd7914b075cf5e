package screening

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"resumescreen/internal/ai"
	"resumescreen/internal/config"
	"resumescreen/internal/errors"
	"resumescreen/internal/types"
)

// stubProvider returns a canned response or error and records the
// prompts it receives.
type stubProvider struct {
	response string
	err      error
	prompts  []string
}

func (s *stubProvider) Infer(ctx context.Context, prompt string) (string, *ai.TokenUsage, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", nil, s.err
	}
	return s.response, &ai.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150}, nil
}

func (s *stubProvider) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub", Available: true}
}

func (s *stubProvider) Close() error { return nil }

func passthroughExtract(data []byte) (string, error) {
	return string(data), nil
}

func screeningConfig() config.ScreeningConfig {
	return config.ScreeningConfig{
		MaxResumes:         20,
		DefaultTier:        "auto",
		ExtractParallelism: 2,
	}
}

func request(contents ...string) types.ScreeningRequest {
	files := make([]types.NamedFile, len(contents))
	for i, c := range contents {
		files[i] = types.NamedFile{Name: fmt.Sprintf("resume_%d.pdf", i+1), Data: []byte(c)}
	}
	return types.ScreeningRequest{
		JobDescription: "Senior Go developer, 5+ years of backend experience",
		Resumes:        files,
	}
}

func TestScreenEndToEnd(t *testing.T) {
	provider := &stubProvider{
		response: fmt.Sprintf(`{"role_type":"mid_senior","candidates":[%s,%s],"ranking":["R-001","R-002"],"jd_fit_summary":"One strong match, one weak."}`,
			candidateJSON("R-001", "Alice", 92, true),
			candidateJSON("R-002", "Bob", 34, false)),
	}
	o := New(provider, screeningConfig(), errors.NewLogger(slog.LevelError), WithExtractFunc(passthroughExtract))

	result, err := o.Screen(context.Background(), request("Alice resume text", "Bob resume text"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.RoleTier != "mid_senior" {
		t.Errorf("expected mid_senior, got %q", result.RoleTier)
	}
	if got := strings.Join(result.Ranking, ","); got != "R-001,R-002" {
		t.Errorf("expected ranking R-001,R-002, got %s", got)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %d", len(result.Warnings))
	}

	// Exactly one inference call per run.
	if len(provider.prompts) != 1 {
		t.Fatalf("expected exactly 1 inference call, got %d", len(provider.prompts))
	}
	sent := provider.prompts[0]
	if !strings.Contains(sent, "Alice resume text") || !strings.Contains(sent, "Bob resume text") {
		t.Error("prompt missing resume text")
	}
	if !strings.Contains(sent, `{"id":"R-001"}`) || !strings.Contains(sent, `{"id":"R-002"}`) {
		t.Error("prompt missing candidate identifiers")
	}
	if !strings.Contains(sent, "Senior Go developer") {
		t.Error("prompt missing job description")
	}
}

func TestScreenExcludesUnreadableResume(t *testing.T) {
	provider := &stubProvider{
		response: fmt.Sprintf(`{"role_type":"fresher","candidates":[%s],"ranking":["R-001"],"jd_fit_summary":"ok"}`,
			candidateJSON("R-001", "Alice", 70, true)),
	}
	failSecond := func(data []byte) (string, error) {
		if string(data) == "corrupt" {
			return "", fmt.Errorf("bad xref table")
		}
		return string(data), nil
	}
	o := New(provider, screeningConfig(), errors.NewLogger(slog.LevelError), WithExtractFunc(failSecond))

	result, err := o.Screen(context.Background(), request("Alice resume text", "corrupt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(result.Warnings))
	}
	if result.Warnings[0].FileName != "resume_2.pdf" {
		t.Errorf("expected warning for resume_2.pdf, got %q", result.Warnings[0].FileName)
	}
	if len(result.Evaluations) != 1 || result.Evaluations[0].ID != "R-001" {
		t.Errorf("surviving resume should be R-001, got %+v", result.Evaluations)
	}
}

func TestScreenFailFastExtraction(t *testing.T) {
	cfg := screeningConfig()
	cfg.FailOnExtractionError = true
	o := New(&stubProvider{}, cfg, errors.NewLogger(slog.LevelError),
		WithExtractFunc(func(data []byte) (string, error) {
			return "", fmt.Errorf("unreadable")
		}))

	_, err := o.Screen(context.Background(), request("anything"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.CodeOf(err) != errors.ErrCodeExtractionFailed {
		t.Errorf("expected code %s, got %s", errors.ErrCodeExtractionFailed, errors.CodeOf(err))
	}
}

func TestScreenRejectsEmptyRequest(t *testing.T) {
	o := New(&stubProvider{}, screeningConfig(), errors.NewLogger(slog.LevelError), WithExtractFunc(passthroughExtract))

	_, err := o.Screen(context.Background(), types.ScreeningRequest{JobDescription: "jd"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.CodeOf(err) != errors.ErrCodeEmptyCorpus {
		t.Errorf("expected code %s, got %s", errors.ErrCodeEmptyCorpus, errors.CodeOf(err))
	}
}

func TestScreenRejectsOversizedRequest(t *testing.T) {
	cfg := screeningConfig()
	cfg.MaxResumes = 2
	o := New(&stubProvider{}, cfg, errors.NewLogger(slog.LevelError), WithExtractFunc(passthroughExtract))

	_, err := o.Screen(context.Background(), request("a", "b", "c"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.CodeOf(err) != errors.ErrCodeCorpusTooLarge {
		t.Errorf("expected code %s, got %s", errors.ErrCodeCorpusTooLarge, errors.CodeOf(err))
	}
}

func TestScreenSurfacesValidationFailure(t *testing.T) {
	// Model answers for a candidate that is not in the corpus.
	provider := &stubProvider{
		response: fmt.Sprintf(`{"role_type":"fresher","candidates":[%s],"ranking":["R-009"],"jd_fit_summary":"ok"}`,
			candidateJSON("R-009", "Ghost", 99, true)),
	}
	o := New(provider, screeningConfig(), errors.NewLogger(slog.LevelError), WithExtractFunc(passthroughExtract))

	_, err := o.Screen(context.Background(), request("Alice resume text"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.CodeOf(err) != errors.ErrCodeIDMismatch {
		t.Errorf("expected code %s, got %s", errors.ErrCodeIDMismatch, errors.CodeOf(err))
	}
	// No silent re-prompting after a validation failure.
	if len(provider.prompts) != 1 {
		t.Errorf("expected 1 inference call, got %d", len(provider.prompts))
	}
}

func TestScreenHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(&stubProvider{}, screeningConfig(), errors.NewLogger(slog.LevelError), WithExtractFunc(passthroughExtract))
	_, err := o.Screen(ctx, request("Alice resume text"))
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestScreenStateTransitions(t *testing.T) {
	provider := &stubProvider{
		response: fmt.Sprintf(`{"role_type":"fresher","candidates":[%s],"ranking":["R-001"],"jd_fit_summary":"ok"}`,
			candidateJSON("R-001", "Alice", 70, true)),
	}
	var states []State
	o := New(provider, screeningConfig(), errors.NewLogger(slog.LevelError),
		WithExtractFunc(passthroughExtract),
		WithStateFunc(func(s State) { states = append(states, s) }))

	if _, err := o.Screen(context.Background(), request("Alice resume text")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []State{StateIdle, StateCorpusBuilt, StatePromptComposed, StateAwaitingInference, StateValidated}
	if len(states) != len(want) {
		t.Fatalf("expected %d transitions, got %v", len(want), states)
	}
	for i, s := range want {
		if states[i] != s {
			t.Errorf("transition %d: expected %s, got %s", i, s, states[i])
		}
	}
}

func TestScreenFailureEndsInFailedState(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("model offline")}
	var states []State
	o := New(provider, screeningConfig(), errors.NewLogger(slog.LevelError),
		WithExtractFunc(passthroughExtract),
		WithStateFunc(func(s State) { states = append(states, s) }))

	if _, err := o.Screen(context.Background(), request("Alice resume text")); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(states) == 0 || states[len(states)-1] != StateFailed {
		t.Errorf("expected final state %s, got %v", StateFailed, states)
	}
}

func TestScreenEmptyCorpusReportsExclusionReasons(t *testing.T) {
	o := New(&stubProvider{}, screeningConfig(), errors.NewLogger(slog.LevelError),
		WithExtractFunc(func(data []byte) (string, error) {
			return "", fmt.Errorf("bad xref table")
		}))

	_, err := o.Screen(context.Background(), request("a", "b"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.CodeOf(err) != errors.ErrCodeEmptyCorpus {
		t.Fatalf("expected code %s, got %s", errors.ErrCodeEmptyCorpus, errors.CodeOf(err))
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	excluded, ok := appErr.Context["excluded_files"].([]string)
	if !ok {
		t.Fatalf("expected excluded_files context, got %v", appErr.Context)
	}
	if len(excluded) != 2 {
		t.Fatalf("expected 2 exclusion reasons, got %v", excluded)
	}
	if !strings.Contains(excluded[0], "resume_1.pdf") || !strings.Contains(excluded[0], "bad xref table") {
		t.Errorf("first exclusion should name the file and reason, got %q", excluded[0])
	}
}

func TestScreenRequestTierOverridesDefault(t *testing.T) {
	provider := &stubProvider{
		response: fmt.Sprintf(`{"role_type":"fresher","candidates":[%s],"ranking":["R-001"],"jd_fit_summary":"ok"}`,
			candidateJSON("R-001", "Alice", 70, true)),
	}
	o := New(provider, screeningConfig(), errors.NewLogger(slog.LevelError), WithExtractFunc(passthroughExtract))

	req := request("Alice resume text")
	req.Tier = "fresher"
	if _, err := o.Screen(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(provider.prompts[0], `classified by the HR operator as "fresher"`) {
		t.Error("pinned tier directive missing from prompt")
	}

	_, err := o.Screen(context.Background(), types.ScreeningRequest{
		JobDescription: "jd",
		Resumes:        request("x").Resumes,
		Tier:           "principal",
	})
	if err == nil {
		t.Fatal("expected error for unknown tier")
	}
	if errors.CodeOf(err) != errors.ErrCodePolicyNotFound {
		t.Errorf("expected code %s, got %s", errors.ErrCodePolicyNotFound, errors.CodeOf(err))
	}
}
