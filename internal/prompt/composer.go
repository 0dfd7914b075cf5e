// Package prompt composes the structured three-layer prompt sent to the
// AI provider: system instructions and scoring policy first, then the
// delimited resume context, then the HR query and task directive.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumescreen/internal/corpus"
	"resumescreen/internal/errors"
	"resumescreen/internal/policy"
)

// Composer renders screening prompts. It is stateless and safe for
// concurrent use.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Compose builds the full prompt for one screening run. tier selects a
// pinned weight table, or TierAuto to let the model classify the role
// from the job description.
func (c *Composer) Compose(crp *corpus.Corpus, jobDescription string, tier policy.Tier) (string, error) {
	if crp == nil || crp.Size() == 0 {
		return "", errors.NewValidationError(errors.ErrCodeEmptyCorpus,
			"Cannot compose a prompt without any candidate resumes", nil)
	}
	if err := policy.Validate(tier); err != nil {
		return "", err
	}

	scoring, err := renderScoringSection(tier)
	if err != nil {
		return "", err
	}

	task := taskInstructionsAuto
	if tier != policy.TierAuto {
		task = taskInstructionsPinned
	}

	sections := []string{
		sectionSystem,
		systemInstructions,
		scoring,
		sectionSchema,
		schemaInstructions,
		sectionContext,
		renderResumeContext(crp),
		sectionQuery,
		renderQuerySection(jobDescription),
		sectionTask,
		task,
	}
	return strings.Join(sections, sectionSeparator), nil
}

// renderResumeContext emits one delimited block per candidate, in corpus
// order. The start marker carries the tracking identifier as JSON so the
// model can echo it back verbatim.
func renderResumeContext(crp *corpus.Corpus) string {
	blocks := make([]string, 0, crp.Size())
	for _, record := range crp.Records() {
		marker, _ := json.Marshal(struct {
			ID string `json:"id"`
		}{ID: record.ID})
		blocks = append(blocks, fmt.Sprintf("%s %s ===%s%s%s%s",
			candidateStart, marker, candidateTextIndent, record.RawText, candidateTextIndent, candidateEnd))
	}
	return strings.Join(blocks, sectionSeparator)
}

func renderQuerySection(jobDescription string) string {
	trimmed := strings.TrimSpace(jobDescription)
	return fmt.Sprintf("HR Query / Job Description:\n%s\n", trimmed)
}

// renderScoringSection builds the weightage instructions from the policy
// tables so the prompt and the scoring policy cannot drift apart.
func renderScoringSection(tier policy.Tier) (string, error) {
	var b strings.Builder
	b.WriteString(sectionScoring)
	b.WriteString("\n")

	if tier == policy.TierAuto {
		b.WriteString(classificationRules)
	} else {
		b.WriteString(fmt.Sprintf("\nThe role has already been classified by the HR operator as %q. "+
			"Do not reclassify it; set \"role_type\" to %q in the output.\n", tier, tier))
	}

	b.WriteString("\nSCORING WEIGHTAGE (apply this when computing score_percentage for each candidate):\n")
	for _, t := range tiersToRender(tier) {
		table, err := policy.ForTier(t)
		if err != nil {
			return "", err
		}
		b.WriteString(fmt.Sprintf("\n  For %s roles:\n", tierHeading(t)))
		for _, w := range table.Weights {
			b.WriteString(fmt.Sprintf("    - %s: %d%%\n", w.Criterion, int(w.Fraction*100+0.5)))
		}
	}

	b.WriteString(scoringFootnotes)
	return b.String(), nil
}

func tiersToRender(tier policy.Tier) []policy.Tier {
	if tier == policy.TierAuto {
		return policy.KnownTiers()
	}
	return []policy.Tier{tier}
}

func tierHeading(tier policy.Tier) string {
	switch tier {
	case policy.TierFresher:
		return "FRESHER"
	case policy.TierMidSenior:
		return "MID-SENIOR"
	default:
		return strings.ToUpper(string(tier))
	}
}
