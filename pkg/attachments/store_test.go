package attachments

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestSaveBytes verifies an inline payload lands under the attachment
// root with a faithful record.
func TestSaveBytes(t *testing.T) {
	s := NewStore(t.TempDir())

	rec, err := s.SaveBytes("electron", "session-1", "report.pdf", []byte("pdf bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Name != "report.pdf" {
		t.Errorf("unexpected name %q", rec.Name)
	}
	if rec.SizeBytes != int64(len("pdf bytes")) {
		t.Errorf("unexpected size %d", rec.SizeBytes)
	}
	if rec.SHA256 == "" || rec.ID == "" {
		t.Error("record missing id or checksum")
	}
	if !s.IsInRoot(rec.Path) {
		t.Errorf("stored path %q escapes the root", rec.Path)
	}
	if !strings.Contains(rec.Path, string(filepath.Separator)+"electron"+string(filepath.Separator)) {
		t.Errorf("path not partitioned by channel: %q", rec.Path)
	}

	data, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatalf("cannot read stored file: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("stored content mismatch: %q", data)
	}
}

// TestSaveFromReader verifies the streaming variant stores the same way.
func TestSaveFromReader(t *testing.T) {
	s := NewStore(t.TempDir())

	rec, err := s.SaveFromReader("slack", "C1", "notes.txt", bytes.NewReader([]byte("streamed")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "streamed" {
		t.Errorf("stored content mismatch: %q", data)
	}
}

// TestSaveBytesSanitizesName verifies hostile names cannot escape the
// attachment directory.
func TestSaveBytesSanitizesName(t *testing.T) {
	s := NewStore(t.TempDir())

	rec, err := s.SaveBytes("electron", "session-1", "../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(rec.Name, "..") || strings.ContainsRune(rec.Name, filepath.Separator) {
		t.Errorf("unsanitized name %q", rec.Name)
	}
	if !s.IsInRoot(rec.Path) {
		t.Errorf("stored path %q escapes the root", rec.Path)
	}
}

// TestIsInRoot verifies outside paths are rejected.
func TestIsInRoot(t *testing.T) {
	s := NewStore(t.TempDir())

	if s.IsInRoot("/etc/passwd") {
		t.Error("path outside root accepted")
	}
	if s.IsInRoot(filepath.Join(s.RootPath(), "..", "escape.txt")) {
		t.Error("parent traversal accepted")
	}
	if !s.IsInRoot(filepath.Join(s.RootPath(), "electron", "file.txt")) {
		t.Error("path inside root rejected")
	}
}
