package formatters

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"resumescreen/internal/policy"
	"resumescreen/internal/types"
)

func sampleResult() *types.ScreeningResult {
	return &types.ScreeningResult{
		RoleTier: "mid_senior",
		Evaluations: []types.CandidateEvaluation{
			{
				ID:         "R-001",
				Name:       "Alice Johnson",
				MatchScore: 92,
				Suitable:   true,
				Strengths:  []string{"8 years of Go backend experience (high-weight category)"},
				Gaps:       []string{"No Kubernetes exposure (high-weight category)"},
				Evidence:   []string{"led backend team of 5", "built gRPC services", "designed payment pipeline", "fourth snippet"},
			},
			{
				ID:         "R-002",
				Name:       "Bob Smith",
				MatchScore: 34,
				Suitable:   false,
				Strengths:  []string{"Strong academic record (low-weight category)"},
				Gaps:       []string{"No professional experience (high-weight category)"},
				Evidence:   []string{"graduated 2024"},
			},
		},
		Ranking:      []string{"R-001", "R-002"},
		JDFitSummary: "One strong senior match; the rest of the pool is junior.",
		Warnings: []types.ExtractionWarning{
			{FileName: "resume_3.pdf", Reason: "no extractable text"},
		},
	}
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(sampleResult(), "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded types.ScreeningResult
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.RoleTier != "mid_senior" || len(decoded.Evaluations) != 2 {
		t.Errorf("round trip lost data: %+v", decoded)
	}
	if !strings.Contains(out, `"score_percentage": 92`) {
		t.Error("JSON output should use the schema field names")
	}
}

func TestTextReportLayout(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(sampleResult(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"RESUME SCREENING ANALYSIS REPORT",
		"ROLE TYPE : MID / SENIOR",
		"Skills                  -> 50%  (high priority)",
		"OVERALL SUMMARY",
		"One strong senior match",
		"Rank #1",
		"Candidate   : Alice Johnson",
		"Match Score : 92%",
		"Status      : SUITABLE FOR ROLE",
		"Rank #2",
		"Status      : NOT SUITABLE FOR ROLE",
		"resume_3.pdf: no extractable text",
		"END OF REPORT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q", want)
		}
	}

	// Internal ids never appear in reports.
	if strings.Contains(out, "R-001") || strings.Contains(out, "R-002") {
		t.Error("text report must not expose internal candidate ids")
	}

	// Evidence is capped at three snippets.
	if strings.Contains(out, "fourth snippet") {
		t.Error("evidence should be capped at 3 entries")
	}
}

func TestTextReportFilters(t *testing.T) {
	registry := NewFormatterRegistry()

	suitable, err := registry.Format(FilteredResult{Result: sampleResult(), Filter: FilterSuitable}, "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(suitable, "[ SUITABLE CANDIDATES ONLY ]") {
		t.Error("missing filter banner")
	}
	if !strings.Contains(suitable, "Alice Johnson") || strings.Contains(suitable, "Bob Smith") {
		t.Error("suitable filter should keep Alice and drop Bob")
	}
	// Filtered reports omit the overall summary.
	if strings.Contains(suitable, "OVERALL SUMMARY") {
		t.Error("filtered report should omit the overall summary")
	}

	notSuitable, err := registry.Format(FilteredResult{Result: sampleResult(), Filter: FilterNotSuitable}, "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(notSuitable, "Alice Johnson") || !strings.Contains(notSuitable, "Bob Smith") {
		t.Error("not_suitable filter should keep Bob and drop Alice")
	}
	// Rank numbers are assigned before filtering.
	if !strings.Contains(notSuitable, "Rank #2") {
		t.Error("filtered report should keep the candidate's overall rank")
	}
}

func TestMarkdownReport(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(sampleResult(), "markdown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"# Resume Screening Report",
		"**Role Type:** Mid / Senior",
		"### Rank 1: Alice Johnson",
		"**Match Score:** 92% | **Status:** Suitable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown report missing %q", want)
		}
	}
	if strings.Contains(out, "R-001") {
		t.Error("markdown report must not expose internal candidate ids")
	}
}

func TestReportWeightagesMatchScoringPolicy(t *testing.T) {
	registry := NewFormatterRegistry()

	for _, tier := range policy.KnownTiers() {
		t.Run(string(tier), func(t *testing.T) {
			table, err := policy.ForTier(tier)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			result := sampleResult()
			result.RoleTier = string(tier)

			text, err := registry.Format(result, "text")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			md, err := registry.Format(result, "markdown")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for _, w := range table.Weights {
				label, _, _ := strings.Cut(w.Criterion, " (")
				percent := int(math.Round(w.Fraction * 100))

				if !strings.Contains(text, label) || !strings.Contains(text, fmt.Sprintf("%2d%%", percent)) {
					t.Errorf("text report missing %s at %d%%", label, percent)
				}
				if !strings.Contains(md, fmt.Sprintf("| %s | %d%% |", label, percent)) {
					t.Errorf("markdown report missing %s at %d%%", label, percent)
				}
			}
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	registry := NewFormatterRegistry()
	if _, err := registry.Format(sampleResult(), "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestRankingFallsBackToEvaluationOrder(t *testing.T) {
	result := sampleResult()
	result.Ranking = nil

	out, err := NewFormatterRegistry().Format(result, "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	aliceIdx := strings.Index(out, "Alice Johnson")
	bobIdx := strings.Index(out, "Bob Smith")
	if aliceIdx < 0 || bobIdx < 0 || aliceIdx > bobIdx {
		t.Error("candidates missing from ranking should appear in evaluation order")
	}
}
