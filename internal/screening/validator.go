package screening

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"resumescreen/internal/corpus"
	"resumescreen/internal/errors"
	"resumescreen/internal/policy"
	"resumescreen/internal/types"
)

// rawExcerptLimit caps how much model output is attached to validation
// errors for diagnostics.
const rawExcerptLimit = 200

var (
	fenceOpenRegex  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceCloseRegex = regexp.MustCompile("\\s*```$")
)

// Pointer fields distinguish absent keys from zero values during the
// schema check.
type rawCandidate struct {
	ID        *string  `json:"id"`
	Name      *string  `json:"name"`
	Score     *float64 `json:"score_percentage"`
	Suitable  *bool    `json:"is_suitable"`
	Strengths []string `json:"strengths"`
	Gaps      []string `json:"gaps"`
	Evidence  []string `json:"evidence"`
}

type rawResponse struct {
	RoleType     *string        `json:"role_type"`
	Candidates   []rawCandidate `json:"candidates"`
	Ranking      []string       `json:"ranking"`
	JDFitSummary *string        `json:"jd_fit_summary"`
}

// Validator checks raw model output against the screening output
// contract and produces the verified result. Validation is layered:
// code fences are stripped, the JSON is parsed, required fields are
// checked, the candidate id set is matched against the corpus, scores
// are range-checked, and finally the ranking is recomputed locally.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate parses and verifies raw model output for the given corpus.
// The model's own "ranking" array is ignored; the ranking is recomputed
// from the validated scores so it can never contradict them.
func (v *Validator) Validate(raw string, crp *corpus.Corpus) (*types.ScreeningResult, error) {
	stripped := StripCodeFences(raw)

	var resp rawResponse
	if err := json.Unmarshal([]byte(stripped), &resp); err != nil {
		return nil, errors.NewAIError(errors.ErrCodeMalformedOutput,
			"Model output is not valid JSON", err).
			WithContext("raw_excerpt", excerpt(stripped))
	}

	if err := v.checkSchema(&resp); err != nil {
		return nil, err
	}
	if err := v.checkIdentifiers(&resp, crp); err != nil {
		return nil, err
	}
	if err := v.checkScores(&resp); err != nil {
		return nil, err
	}

	// Evaluations are emitted in upload order regardless of how the
	// model ordered its candidates array.
	evaluations := make([]types.CandidateEvaluation, crp.Size())
	for _, c := range resp.Candidates {
		pos, _ := crp.Position(*c.ID)
		evaluations[pos] = types.CandidateEvaluation{
			ID:         *c.ID,
			Name:       *c.Name,
			MatchScore: int(math.Round(*c.Score)),
			Suitable:   *c.Suitable,
			Strengths:  c.Strengths,
			Gaps:       c.Gaps,
			Evidence:   c.Evidence,
		}
	}

	return &types.ScreeningResult{
		RoleTier:     *resp.RoleType,
		Evaluations:  evaluations,
		Ranking:      ComputeRanking(evaluations),
		JDFitSummary: *resp.JDFitSummary,
	}, nil
}

// StripCodeFences removes a single markdown code fence wrapping the
// output, which some models add despite instructions.
func StripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = fenceOpenRegex.ReplaceAllString(trimmed, "")
	trimmed = fenceCloseRegex.ReplaceAllString(trimmed, "")
	return strings.TrimSpace(trimmed)
}

// ComputeRanking orders candidate ids by descending match score. Ties
// keep the evaluations' relative order, which is upload order, so equal
// scores rank the earlier upload first.
func ComputeRanking(evaluations []types.CandidateEvaluation) []string {
	ordered := make([]types.CandidateEvaluation, len(evaluations))
	copy(ordered, evaluations)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MatchScore > ordered[j].MatchScore
	})

	ranking := make([]string, len(ordered))
	for i, eval := range ordered {
		ranking[i] = eval.ID
	}
	return ranking
}

func (v *Validator) checkSchema(resp *rawResponse) error {
	if resp.RoleType == nil {
		return schemaViolation("role_type")
	}
	if !policy.IsKnownTier(policy.Tier(*resp.RoleType)) {
		return errors.NewAIError(errors.ErrCodeSchemaViolation,
			fmt.Sprintf("Model returned unknown role_type: %q", *resp.RoleType), nil).
			WithContext("field", "role_type")
	}
	if resp.Candidates == nil {
		return schemaViolation("candidates")
	}
	if resp.JDFitSummary == nil {
		return schemaViolation("jd_fit_summary")
	}
	for i, c := range resp.Candidates {
		switch {
		case c.ID == nil:
			return schemaViolation(fmt.Sprintf("candidates[%d].id", i))
		case c.Name == nil:
			return schemaViolation(fmt.Sprintf("candidates[%d].name", i))
		case c.Score == nil:
			return schemaViolation(fmt.Sprintf("candidates[%d].score_percentage", i))
		case c.Suitable == nil:
			return schemaViolation(fmt.Sprintf("candidates[%d].is_suitable", i))
		}
	}
	return nil
}

// checkIdentifiers verifies the model evaluated every corpus candidate
// exactly once and invented none.
func (v *Validator) checkIdentifiers(resp *rawResponse, crp *corpus.Corpus) error {
	seen := make(map[string]int, len(resp.Candidates))
	var unexpected, duplicated []string
	for _, c := range resp.Candidates {
		id := *c.ID
		seen[id]++
		if !crp.Contains(id) {
			unexpected = append(unexpected, id)
		} else if seen[id] == 2 {
			duplicated = append(duplicated, id)
		}
	}

	var missing []string
	for _, id := range crp.IDs() {
		if seen[id] == 0 {
			missing = append(missing, id)
		}
	}

	if len(missing) == 0 && len(unexpected) == 0 && len(duplicated) == 0 {
		return nil
	}

	err := errors.NewAIError(errors.ErrCodeIDMismatch,
		"Model candidate ids do not match the screening corpus", nil)
	if len(missing) > 0 {
		err = err.WithContext("missing", missing)
	}
	if len(unexpected) > 0 {
		err = err.WithContext("unexpected", unexpected)
	}
	if len(duplicated) > 0 {
		err = err.WithContext("duplicated", duplicated)
	}
	return err
}

// checkScores enforces the 0..100 range. Out-of-range scores are
// rejected, never clamped.
func (v *Validator) checkScores(resp *rawResponse) error {
	for _, c := range resp.Candidates {
		if score := *c.Score; score < 0 || score > 100 {
			return errors.NewAIError(errors.ErrCodeScoreOutOfRange,
				fmt.Sprintf("Score %v for candidate %s is outside 0-100", score, *c.ID), nil).
				WithContext("candidate_id", *c.ID).
				WithContext("score", score)
		}
	}
	return nil
}

func schemaViolation(field string) *errors.AppError {
	return errors.NewAIError(errors.ErrCodeSchemaViolation,
		fmt.Sprintf("Model output is missing required field: %s", field), nil).
		WithContext("field", field)
}

func excerpt(s string) string {
	if len(s) <= rawExcerptLimit {
		return s
	}
	return s[:rawExcerptLimit] + "..."
}
