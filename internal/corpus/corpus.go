package corpus

import (
	"fmt"

	"resumescreen/internal/errors"
	"resumescreen/internal/types"
)

// DefaultMaxCandidates caps the corpus size when no limit is configured.
const DefaultMaxCandidates = 20

// Document is one extracted resume awaiting identifier assignment.
type Document struct {
	FileName string
	Text     string
}

// Corpus holds the candidate id -> record mapping for one screening
// invocation. Ids are assigned in input order; that order is the
// tie-break basis for ranking and must not be reshuffled.
type Corpus struct {
	records []types.CandidateRecord
	byID    map[string]int
}

// Builder assigns candidate identifiers and enforces corpus size limits.
type Builder struct {
	maxCandidates int
}

// NewBuilder creates a corpus builder. maxCandidates <= 0 selects the
// default limit.
func NewBuilder(maxCandidates int) *Builder {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Builder{maxCandidates: maxCandidates}
}

// Build assigns ids R-001..R-NNN in input order and returns the corpus.
func (b *Builder) Build(docs []Document) (*Corpus, error) {
	if len(docs) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeEmptyCorpus,
			"No resumes provided for screening", nil)
	}
	if len(docs) > b.maxCandidates {
		return nil, errors.NewValidationError(errors.ErrCodeCorpusTooLarge,
			fmt.Sprintf("Too many resumes: %d (maximum is %d)", len(docs), b.maxCandidates), nil).
			WithContext("count", len(docs)).
			WithContext("max", b.maxCandidates)
	}

	c := &Corpus{
		records: make([]types.CandidateRecord, 0, len(docs)),
		byID:    make(map[string]int, len(docs)),
	}
	for i, doc := range docs {
		id := FormatID(i + 1)
		c.byID[id] = i
		c.records = append(c.records, types.CandidateRecord{
			ID:       id,
			FileName: doc.FileName,
			RawText:  doc.Text,
		})
	}
	return c, nil
}

// FormatID renders the stable candidate identifier for a 1-based position.
func FormatID(position int) string {
	return fmt.Sprintf("R-%03d", position)
}

// Size returns the number of candidates in the corpus.
func (c *Corpus) Size() int {
	return len(c.records)
}

// IDs returns the candidate ids in upload order.
func (c *Corpus) IDs() []string {
	ids := make([]string, len(c.records))
	for i, rec := range c.records {
		ids[i] = rec.ID
	}
	return ids
}

// Records returns the candidate records in upload order.
func (c *Corpus) Records() []types.CandidateRecord {
	return c.records
}

// Contains reports whether id belongs to this corpus.
func (c *Corpus) Contains(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Position returns the 0-based upload position of id within the corpus.
// The second return is false for unknown ids.
func (c *Corpus) Position(id string) (int, bool) {
	pos, ok := c.byID[id]
	return pos, ok
}
