package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "resume.pdf")
	if err := os.WriteFile(existing, []byte("%PDF-1.4"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filename    string
		expectError bool
	}{
		{name: "existing file", filename: existing, expectError: false},
		{name: "empty filename", filename: "", expectError: true},
		{name: "missing file", filename: filepath.Join(dir, "missing.pdf"), expectError: true},
		{name: "directory", filename: dir, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.filename)
			if tt.expectError && err == nil {
				t.Errorf("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestIsPDFFile(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"resume.pdf", true},
		{"RESUME.PDF", true},
		{"resume.txt", false},
		{"resume", false},
		{"archive.pdf.gz", false},
	}

	for _, tt := range tests {
		if got := IsPDFFile(tt.filename); got != tt.expected {
			t.Errorf("IsPDFFile(%q) = %v, want %v", tt.filename, got, tt.expected)
		}
	}
}

func TestLooksLikePDF(t *testing.T) {
	if !LooksLikePDF([]byte("%PDF-1.7 rest of file")) {
		t.Error("Expected PDF header to be recognized")
	}
	if LooksLikePDF([]byte("plain text resume")) {
		t.Error("Expected plain text to be rejected")
	}
	if LooksLikePDF(nil) {
		t.Error("Expected empty data to be rejected")
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size     int64
		expected string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{10 * 1024 * 1024, "10.0 MB"},
	}

	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.expected {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.expected)
		}
	}
}
