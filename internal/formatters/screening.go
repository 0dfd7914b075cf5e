package formatters

import (
	"fmt"
	"math"
	"strings"

	"resumescreen/internal/policy"
	"resumescreen/internal/types"
)

const reportRule = 80

// weightRow is one scoring criterion as rendered in a report.
type weightRow struct {
	Label        string
	Percent      int
	HighPriority bool
}

// weightRows derives report rows from the scoring policy, so the
// rendered weightage always matches what the prompt instructed. The
// criterion's parenthesized detail is dropped from the label.
func weightRows(tier string) []weightRow {
	table, err := policy.ForTier(policy.Tier(tier))
	if err != nil {
		return nil
	}
	rows := make([]weightRow, 0, len(table.Weights))
	for _, w := range table.Weights {
		label, _, _ := strings.Cut(w.Criterion, " (")
		rows = append(rows, weightRow{
			Label:        label,
			Percent:      int(math.Round(w.Fraction * 100)),
			HighPriority: w.Fraction >= 0.40,
		})
	}
	return rows
}

func roleTypeLabel(tier string) string {
	switch tier {
	case "fresher":
		return "FRESHER"
	case "mid_senior":
		return "MID / SENIOR"
	}
	return strings.ToUpper(tier)
}

func roleTypeTitle(tier string) string {
	switch tier {
	case "fresher":
		return "Fresher"
	case "mid_senior":
		return "Mid / Senior"
	}
	return tier
}

// rankedEvaluations orders evaluations by the result's ranking and
// assigns overall rank numbers before any filter is applied, so a
// filtered report still shows each candidate's true rank.
type rankedEvaluation struct {
	Rank int
	types.CandidateEvaluation
}

func rankedEvaluations(result *types.ScreeningResult) []rankedEvaluation {
	byID := make(map[string]types.CandidateEvaluation, len(result.Evaluations))
	for _, eval := range result.Evaluations {
		byID[eval.ID] = eval
	}

	ordered := make([]rankedEvaluation, 0, len(result.Evaluations))
	seen := make(map[string]bool, len(result.Evaluations))
	for _, id := range result.Ranking {
		if eval, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			ordered = append(ordered, rankedEvaluation{Rank: len(ordered) + 1, CandidateEvaluation: eval})
		}
	}
	for _, eval := range result.Evaluations {
		if !seen[eval.ID] {
			seen[eval.ID] = true
			ordered = append(ordered, rankedEvaluation{Rank: len(ordered) + 1, CandidateEvaluation: eval})
		}
	}
	return ordered
}

func applyFilter(evals []rankedEvaluation, filter string) []rankedEvaluation {
	switch filter {
	case FilterSuitable:
		filtered := make([]rankedEvaluation, 0, len(evals))
		for _, e := range evals {
			if e.Suitable {
				filtered = append(filtered, e)
			}
		}
		return filtered
	case FilterNotSuitable:
		filtered := make([]rankedEvaluation, 0, len(evals))
		for _, e := range evals {
			if !e.Suitable {
				filtered = append(filtered, e)
			}
		}
		return filtered
	default:
		return evals
	}
}

// ScreeningTextFormatter renders the plain-text screening report.
// Internal candidate ids are never shown to the reader.
type ScreeningTextFormatter struct{}

func (stf *ScreeningTextFormatter) Format(data any) (string, error) {
	result, filter, err := normalizeResult(data)
	if err != nil {
		return "", err
	}

	var out []string
	rule := strings.Repeat("=", reportRule)
	thinRule := strings.Repeat("-", reportRule)

	out = append(out, rule, "RESUME SCREENING ANALYSIS REPORT")
	switch filter {
	case FilterSuitable:
		out = append(out, "[ SUITABLE CANDIDATES ONLY ]")
	case FilterNotSuitable:
		out = append(out, "[ NOT SUITABLE CANDIDATES ONLY ]")
	}
	out = append(out, rule, "")

	if rows := weightRows(result.RoleTier); len(rows) > 0 {
		out = append(out, "ROLE TYPE : "+roleTypeLabel(result.RoleTier), "Scoring Weightage:")
		for _, row := range rows {
			line := fmt.Sprintf("  %-24s-> %2d%%", row.Label, row.Percent)
			if row.HighPriority {
				line += "  (high priority)"
			}
			out = append(out, line)
		}
		out = append(out, "")
	}

	if filter == FilterAll && result.JDFitSummary != "" {
		out = append(out, "OVERALL SUMMARY", thinRule, result.JDFitSummary, "")
	}

	if len(result.Warnings) > 0 {
		out = append(out, "EXCLUDED FILES")
		for _, w := range result.Warnings {
			out = append(out, fmt.Sprintf("  * %s: %s", w.FileName, w.Reason))
		}
		out = append(out, "")
	}

	out = append(out, "DETAILED CANDIDATE ANALYSIS", rule, "")

	for _, candidate := range applyFilter(rankedEvaluations(result), filter) {
		status := "NOT SUITABLE FOR ROLE"
		if candidate.Suitable {
			status = "SUITABLE FOR ROLE"
		}
		name := candidate.Name
		if name == "" {
			name = "Name not found in resume"
		}

		out = append(out,
			fmt.Sprintf("Rank #%d", candidate.Rank),
			fmt.Sprintf("  Candidate   : %s", name),
			fmt.Sprintf("  Match Score : %d%%", candidate.MatchScore),
			fmt.Sprintf("  Status      : %s", status),
			"")

		if len(candidate.Strengths) > 0 {
			out = append(out, "  Key Strengths:")
			for _, s := range candidate.Strengths {
				out = append(out, fmt.Sprintf("    * %s", s))
			}
			out = append(out, "")
		}

		if len(candidate.Gaps) > 0 {
			out = append(out, "  Areas of Concern:")
			for _, g := range candidate.Gaps {
				out = append(out, fmt.Sprintf("    * %s", g))
			}
			out = append(out, "")
		}

		if len(candidate.Evidence) > 0 {
			out = append(out, "  Supporting Evidence:")
			for _, ev := range candidate.Evidence[:min(len(candidate.Evidence), 3)] {
				out = append(out, fmt.Sprintf("    * %q", ev))
			}
			out = append(out, "")
		}

		out = append(out, thinRule, "")
	}

	out = append(out, rule, "END OF REPORT", rule)
	return strings.Join(out, "\n"), nil
}

func (stf *ScreeningTextFormatter) SupportedType() string {
	return "ScreeningResult"
}

// ScreeningMarkdownFormatter renders the screening report as markdown.
type ScreeningMarkdownFormatter struct{}

func (smf *ScreeningMarkdownFormatter) Format(data any) (string, error) {
	result, filter, err := normalizeResult(data)
	if err != nil {
		return "", err
	}

	var out []string
	out = append(out, "# Resume Screening Report", "")

	switch filter {
	case FilterSuitable:
		out = append(out, "_Suitable candidates only_", "")
	case FilterNotSuitable:
		out = append(out, "_Not suitable candidates only_", "")
	}

	if rows := weightRows(result.RoleTier); len(rows) > 0 {
		out = append(out,
			fmt.Sprintf("**Role Type:** %s", roleTypeTitle(result.RoleTier)),
			"",
			"| Criterion | Weight |",
			"|-----------|--------|")
		for _, row := range rows {
			out = append(out, fmt.Sprintf("| %s | %d%% |", row.Label, row.Percent))
		}
		out = append(out, "")
	}

	if filter == FilterAll && result.JDFitSummary != "" {
		out = append(out, "## Overall Summary", "", result.JDFitSummary, "")
	}

	if len(result.Warnings) > 0 {
		out = append(out, "## Excluded Files", "")
		for _, w := range result.Warnings {
			out = append(out, fmt.Sprintf("- `%s`: %s", w.FileName, w.Reason))
		}
		out = append(out, "")
	}

	out = append(out, "## Candidates", "")

	for _, candidate := range applyFilter(rankedEvaluations(result), filter) {
		status := "Not suitable"
		if candidate.Suitable {
			status = "Suitable"
		}
		name := candidate.Name
		if name == "" {
			name = "Name not found in resume"
		}

		out = append(out,
			fmt.Sprintf("### Rank %d: %s", candidate.Rank, name),
			"",
			fmt.Sprintf("**Match Score:** %d%% | **Status:** %s", candidate.MatchScore, status),
			"")

		if len(candidate.Strengths) > 0 {
			out = append(out, "**Key Strengths:**", "")
			for _, s := range candidate.Strengths {
				out = append(out, fmt.Sprintf("- %s", s))
			}
			out = append(out, "")
		}

		if len(candidate.Gaps) > 0 {
			out = append(out, "**Areas of Concern:**", "")
			for _, g := range candidate.Gaps {
				out = append(out, fmt.Sprintf("- %s", g))
			}
			out = append(out, "")
		}

		if len(candidate.Evidence) > 0 {
			out = append(out, "**Supporting Evidence:**", "")
			for _, ev := range candidate.Evidence[:min(len(candidate.Evidence), 3)] {
				out = append(out, fmt.Sprintf("- > %s", ev))
			}
			out = append(out, "")
		}
	}

	return strings.Join(out, "\n"), nil
}

func (smf *ScreeningMarkdownFormatter) SupportedType() string {
	return "ScreeningResult"
}
