package prompt

import (
	"fmt"
	"strings"
	"testing"

	"resumescreen/internal/corpus"
	"resumescreen/internal/errors"
	"resumescreen/internal/policy"
)

func buildCorpus(t *testing.T, texts ...string) *corpus.Corpus {
	t.Helper()
	docs := make([]corpus.Document, len(texts))
	for i, text := range texts {
		docs[i] = corpus.Document{FileName: fmt.Sprintf("resume_%d.pdf", i+1), Text: text}
	}
	crp, err := corpus.NewBuilder(0).Build(docs)
	if err != nil {
		t.Fatalf("failed to build corpus: %v", err)
	}
	return crp
}

func TestComposeContainsEveryCandidateExactlyOnce(t *testing.T) {
	crp := buildCorpus(t, "Alice, software engineer", "Bob, data analyst", "Carol, PM")

	out, err := NewComposer().Compose(crp, "Senior Go developer, 5+ years", policy.TierAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i <= 3; i++ {
		marker := fmt.Sprintf(`===CANDIDATE_START {"id":"R-%03d"} ===`, i)
		if got := strings.Count(out, marker); got != 1 {
			t.Errorf("expected marker %q exactly once, found %d times", marker, got)
		}
	}
	if start, end := strings.Count(out, "===CANDIDATE_START"), strings.Count(out, "===CANDIDATE_END==="); start != end || start != 3 {
		t.Errorf("unbalanced candidate delimiters: %d starts, %d ends", start, end)
	}
	if !strings.Contains(out, "Bob, data analyst") {
		t.Error("resume text missing from prompt")
	}
}

func TestComposeSectionOrder(t *testing.T) {
	crp := buildCorpus(t, "resume text")

	out, err := NewComposer().Compose(crp, "job description", policy.TierAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sections := []string{
		"===SYSTEM_INSTRUCTIONS===",
		"===ROLE CLASSIFICATION & SCORING WEIGHTAGE===",
		"===OUTPUT_SCHEMA===",
		"===RESUME_CONTEXT===",
		"===HR_QUERY===",
		"===TASK===",
	}
	last := -1
	for _, section := range sections {
		idx := strings.Index(out, section)
		if idx < 0 {
			t.Fatalf("section %q missing from prompt", section)
		}
		if idx <= last {
			t.Errorf("section %q out of order", section)
		}
		last = idx
	}
}

func TestComposeAutoTierIncludesBothWeightTables(t *testing.T) {
	crp := buildCorpus(t, "resume text")

	out, err := NewComposer().Compose(crp, "jd", policy.TierAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "For FRESHER roles:") || !strings.Contains(out, "For MID-SENIOR roles:") {
		t.Error("auto tier should render both weight tables")
	}
	if !strings.Contains(out, "CLASSIFICATION RULES:") {
		t.Error("auto tier should include classification rules")
	}
	if !strings.Contains(out, "Education (degree, institution, GPA, relevant coursework): 80%") {
		t.Error("fresher education weight missing or wrong")
	}
	if !strings.Contains(out, "Location (proximity or match to job location if specified): 5%") {
		t.Error("mid_senior location weight missing or wrong")
	}
}

func TestComposePinnedTierSkipsClassification(t *testing.T) {
	crp := buildCorpus(t, "resume text")

	out, err := NewComposer().Compose(crp, "jd", policy.TierFresher)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "CLASSIFICATION RULES:") {
		t.Error("pinned tier should not include classification rules")
	}
	if strings.Contains(out, "For MID-SENIOR roles:") {
		t.Error("pinned fresher tier should not render the mid_senior table")
	}
	if !strings.Contains(out, `classified by the HR operator as "fresher"`) {
		t.Error("pinned tier directive missing")
	}
}

func TestComposeRejectsEmptyCorpus(t *testing.T) {
	_, err := NewComposer().Compose(nil, "jd", policy.TierAuto)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.CodeOf(err) != errors.ErrCodeEmptyCorpus {
		t.Errorf("expected code %s, got %s", errors.ErrCodeEmptyCorpus, errors.CodeOf(err))
	}
}

func TestComposeRejectsUnknownTier(t *testing.T) {
	crp := buildCorpus(t, "resume text")

	_, err := NewComposer().Compose(crp, "jd", policy.Tier("principal"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.CodeOf(err) != errors.ErrCodePolicyNotFound {
		t.Errorf("expected code %s, got %s", errors.ErrCodePolicyNotFound, errors.CodeOf(err))
	}
}
