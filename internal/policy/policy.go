package policy

import (
	"fmt"
	"sort"

	"resumescreen/internal/errors"
)

// Tier is a role-seniority classification determining which weight table
// applies when scoring candidates.
type Tier string

const (
	TierFresher   Tier = "fresher"
	TierMidSenior Tier = "mid_senior"

	// TierAuto defers the classification to the model: both weight tables
	// ride along in the prompt and the model picks one from the job
	// description.
	TierAuto Tier = "auto"
)

// Criterion ordering inside a weight table is significant for prompt
// rendering, so weights are kept as an ordered slice rather than a map.
type Weight struct {
	Criterion string
	Fraction  float64
}

// WeightTable is the scoring policy for one tier. Fractions sum to 1.0.
type WeightTable struct {
	Tier    Tier
	Weights []Weight
}

// Static configuration data; not derived at runtime.
var tables = map[Tier]WeightTable{
	TierFresher: {
		Tier: TierFresher,
		Weights: []Weight{
			{Criterion: "Education (degree, institution, GPA, relevant coursework)", Fraction: 0.80},
			{Criterion: "Projects & Internships (personal/academic projects, any internships)", Fraction: 0.20},
		},
	},
	TierMidSenior: {
		Tier: TierMidSenior,
		Weights: []Weight{
			{Criterion: "Skills (technical + domain skills matching the JD)", Fraction: 0.50},
			{Criterion: "Work Experience (years, relevance, seniority of past roles)", Fraction: 0.45},
			{Criterion: "Location (proximity or match to job location if specified)", Fraction: 0.05},
		},
	},
}

// ForTier returns the weight table configured for the given tier.
func ForTier(tier Tier) (WeightTable, error) {
	table, ok := tables[tier]
	if !ok {
		return WeightTable{}, errors.NewValidationError(errors.ErrCodePolicyNotFound,
			fmt.Sprintf("No scoring policy configured for tier: %s", tier), nil).
			WithContext("tier", string(tier))
	}
	return table, nil
}

// KnownTiers returns the tiers that have a configured weight table,
// sorted for stable output.
func KnownTiers() []Tier {
	tiers := make([]Tier, 0, len(tables))
	for tier := range tables {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	return tiers
}

// IsKnownTier reports whether tier has a configured weight table.
// TierAuto is accepted as a request-level selector but has no table.
func IsKnownTier(tier Tier) bool {
	_, ok := tables[tier]
	return ok
}

// Validate checks the selected tier is usable for a screening request.
func Validate(tier Tier) error {
	if tier == TierAuto || IsKnownTier(tier) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodePolicyNotFound,
		fmt.Sprintf("Unknown role tier: %s (valid: auto, fresher, mid_senior)", tier), nil)
}
