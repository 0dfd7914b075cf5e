package common

import (
	"os"
	"path/filepath"
	"testing"

	"resumescreen/internal/errors"
)

func writeTestFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestReadResumeFilesPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	first := writeTestFile(t, dir, "alice.pdf", []byte("%PDF-1.4 alice"))
	second := writeTestFile(t, dir, "bob.pdf", []byte("%PDF-1.4 bob"))
	third := writeTestFile(t, dir, "carol.pdf", []byte("%PDF-1.4 carol"))

	fp := NewFileProcessor(nil)
	resumes, err := fp.ReadResumeFiles(first, second, third)
	if err != nil {
		t.Fatalf("ReadResumeFiles failed: %v", err)
	}

	wantNames := []string{"alice.pdf", "bob.pdf", "carol.pdf"}
	if len(resumes) != len(wantNames) {
		t.Fatalf("Expected %d resumes, got %d", len(wantNames), len(resumes))
	}
	for i, want := range wantNames {
		if resumes[i].Name != want {
			t.Errorf("resumes[%d].Name = %q, want %q", i, resumes[i].Name, want)
		}
		if len(resumes[i].Data) == 0 {
			t.Errorf("resumes[%d] has empty data", i)
		}
	}
}

func TestReadResumeFilesMissingFile(t *testing.T) {
	dir := t.TempDir()
	existing := writeTestFile(t, dir, "alice.pdf", []byte("%PDF-1.4 alice"))

	fp := NewFileProcessor(nil)
	_, err := fp.ReadResumeFiles(existing, filepath.Join(dir, "missing.pdf"))
	if err == nil {
		t.Fatal("Expected error for missing resume file")
	}
	if errors.CodeOf(err) != "INVALID_INPUT_FILE" {
		t.Errorf("Expected INVALID_INPUT_FILE, got %s", errors.CodeOf(err))
	}
}

func TestReadJobDescription(t *testing.T) {
	dir := t.TempDir()
	jdPath := writeTestFile(t, dir, "jd.txt", []byte("Senior Go engineer, Jakarta"))

	fp := NewFileProcessor(nil)
	content, err := fp.ReadJobDescription(jdPath)
	if err != nil {
		t.Fatalf("ReadJobDescription failed: %v", err)
	}
	if content != "Senior Go engineer, Jakarta" {
		t.Errorf("Unexpected job description content: %q", content)
	}

	if _, err := fp.ReadJobDescription(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("Expected error for missing job description file")
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "reports", "out.json")

	fp := NewFileProcessor(nil)
	if err := fp.WriteFile(target, `{"ok":true}`); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read back written file: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("Unexpected file content: %q", string(data))
	}
}
