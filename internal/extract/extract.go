package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"resumescreen/internal/corpus"
	"resumescreen/internal/errors"
	"resumescreen/internal/types"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelism bounds concurrent PDF extraction when unconfigured.
const DefaultParallelism = 4

// ExtractFunc extracts plain text from one document's raw bytes.
type ExtractFunc func(data []byte) (string, error)

// Extractor turns uploaded PDF files into ordered corpus documents.
// Extraction of independent files runs concurrently; results are
// re-joined in upload order before identifier assignment.
type Extractor struct {
	extract     ExtractFunc
	parallelism int
	failFast    bool
	logger      *errors.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithExtractFunc overrides the per-file extraction function. Used by
// tests and by callers that accept non-PDF input.
func WithExtractFunc(fn ExtractFunc) Option {
	return func(e *Extractor) { e.extract = fn }
}

// WithFailFast makes any single extraction failure abort the whole
// batch instead of excluding the file with a warning.
func WithFailFast(failFast bool) Option {
	return func(e *Extractor) { e.failFast = failFast }
}

// New creates an Extractor. parallelism <= 0 selects the default.
func New(parallelism int, logger *errors.Logger, opts ...Option) *Extractor {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	e := &Extractor{
		extract:     ExtractPDF,
		parallelism: parallelism,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractAll extracts text from every file concurrently and returns the
// successfully extracted documents in the original upload order, plus a
// warning for each excluded file. With failFast enabled the first
// failure aborts the batch with an EXTRACTION_FAILED error.
func (e *Extractor) ExtractAll(ctx context.Context, files []types.NamedFile) ([]corpus.Document, []types.ExtractionWarning, error) {
	texts := make([]string, len(files))
	failures := make([]error, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := e.extract(file.Data)
			if err != nil {
				wrapped := errors.NewIOError(errors.ErrCodeExtractionFailed,
					fmt.Sprintf("Failed to extract text from %s", file.Name), err).
					WithContext("file_name", file.Name)
				if e.failFast {
					return wrapped
				}
				failures[i] = wrapped
				return nil
			}
			texts[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Re-join in upload order; index i is the only ordering authority.
	docs := make([]corpus.Document, 0, len(files))
	var warnings []types.ExtractionWarning
	for i, file := range files {
		if failures[i] != nil {
			if e.logger != nil {
				e.logger.Warn("Excluding resume from corpus",
					"file_name", file.Name,
					"error", failures[i].Error())
			}
			warnings = append(warnings, types.ExtractionWarning{
				FileName: file.Name,
				Reason:   failures[i].Error(),
			})
			continue
		}
		docs = append(docs, corpus.Document{FileName: file.Name, Text: texts[i]})
	}

	return docs, warnings, nil
}

// ExtractPDF extracts plain text from raw PDF bytes.
func ExtractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs; uploaded files
	// are untrusted, so convert panics to errors.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}

	extracted := strings.TrimSpace(buf.String())
	if extracted == "" {
		return "", fmt.Errorf("no extractable text (encrypted or image-only PDF)")
	}
	return extracted, nil
}
