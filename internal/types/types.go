package types

// CandidateRecord is one candidate's extracted resume text, keyed by a
// stable internal identifier (R-001, R-002, ... in upload order).
type CandidateRecord struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	RawText  string `json:"rawText"`
}

// CandidateEvaluation is one candidate's scored assessment against the
// job description, as reported by the model and validated client-side.
type CandidateEvaluation struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	MatchScore int      `json:"score_percentage"`
	Suitable   bool     `json:"is_suitable"`
	Strengths  []string `json:"strengths"`
	Gaps       []string `json:"gaps"`
	Evidence   []string `json:"evidence"`
}

// ExtractionWarning records a resume that was excluded from the corpus
// because its text could not be extracted.
type ExtractionWarning struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// ScreeningResult is the terminal artifact of one screening invocation.
// Ranking is ordered by descending match score, ties broken by upload
// order, and always covers exactly the evaluated candidate ids.
type ScreeningResult struct {
	RoleTier     string                `json:"role_type"`
	Evaluations  []CandidateEvaluation `json:"candidates"`
	Ranking      []string              `json:"ranking"`
	JDFitSummary string                `json:"jd_fit_summary"`
	Warnings     []ExtractionWarning   `json:"warnings,omitempty"`
}

// NamedFile is an uploaded resume: original filename plus raw PDF bytes.
type NamedFile struct {
	Name string
	Data []byte
}

// ScreeningRequest is the input for one screening invocation.
type ScreeningRequest struct {
	JobDescription string
	Resumes        []NamedFile
	Tier           string // "fresher", "mid_senior", or "auto"
}
