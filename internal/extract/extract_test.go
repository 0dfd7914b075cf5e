package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"resumescreen/internal/errors"
	"resumescreen/internal/types"
)

func upperFn(data []byte) (string, error) {
	return strings.ToUpper(string(data)), nil
}

func failOn(name string) ExtractFunc {
	return func(data []byte) (string, error) {
		if string(data) == name {
			return "", fmt.Errorf("unreadable")
		}
		return string(data), nil
	}
}

func namedFiles(contents ...string) []types.NamedFile {
	files := make([]types.NamedFile, len(contents))
	for i, c := range contents {
		files[i] = types.NamedFile{Name: fmt.Sprintf("resume_%d.pdf", i+1), Data: []byte(c)}
	}
	return files
}

func TestExtractAllPreservesUploadOrder(t *testing.T) {
	e := New(8, nil, WithExtractFunc(upperFn))

	files := namedFiles("alice", "bob", "carol", "dave", "erin")
	docs, warnings, err := e.ExtractAll(context.Background(), files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %d", len(warnings))
	}
	if len(docs) != len(files) {
		t.Fatalf("expected %d documents, got %d", len(files), len(docs))
	}
	for i, doc := range docs {
		if doc.FileName != files[i].Name {
			t.Errorf("position %d: expected %q, got %q", i, files[i].Name, doc.FileName)
		}
		want := strings.ToUpper(string(files[i].Data))
		if doc.Text != want {
			t.Errorf("position %d: expected text %q, got %q", i, want, doc.Text)
		}
	}
}

func TestExtractAllExcludesFailedFilesWithWarning(t *testing.T) {
	e := New(2, nil, WithExtractFunc(failOn("bob")))

	docs, warnings, err := e.ExtractAll(context.Background(), namedFiles("alice", "bob", "carol"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Text != "alice" || docs[1].Text != "carol" {
		t.Errorf("surviving documents out of order: %q, %q", docs[0].Text, docs[1].Text)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if warnings[0].FileName != "resume_2.pdf" {
		t.Errorf("expected warning for resume_2.pdf, got %q", warnings[0].FileName)
	}
	if !strings.Contains(warnings[0].Reason, "unreadable") {
		t.Errorf("warning should carry the cause, got %q", warnings[0].Reason)
	}
}

func TestExtractAllFailFast(t *testing.T) {
	e := New(1, nil, WithExtractFunc(failOn("bob")), WithFailFast(true))

	_, _, err := e.ExtractAll(context.Background(), namedFiles("alice", "bob", "carol"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.CodeOf(err) != errors.ErrCodeExtractionFailed {
		t.Errorf("expected code %s, got %s", errors.ErrCodeExtractionFailed, errors.CodeOf(err))
	}
}

func TestExtractAllHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(1, nil, WithExtractFunc(upperFn))
	_, _, err := e.ExtractAll(ctx, namedFiles("alice", "bob"))
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestExtractPDFRejectsGarbage(t *testing.T) {
	if _, err := ExtractPDF([]byte("not a pdf at all")); err == nil {
		t.Fatal("expected error for non-PDF bytes")
	}
}

func TestNewDefaultsParallelism(t *testing.T) {
	e := New(0, nil)
	if e.parallelism != DefaultParallelism {
		t.Errorf("expected default parallelism %d, got %d", DefaultParallelism, e.parallelism)
	}
}
