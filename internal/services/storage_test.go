package services

import (
	"os"
	"strings"
	"testing"
)

func TestStorageSaveAndDelete(t *testing.T) {
	s := NewStorageService(t.TempDir())
	if err := s.EnsureUploadDir(); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}

	ref, err := s.SaveUpload("../user-1", "My Resume.PDF", []byte("%PDF"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(ref, "user-1/") || !strings.HasSuffix(ref, ".pdf") {
		t.Fatalf("unexpected reference %q", ref)
	}

	path, err := s.Path(ref)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "%PDF" {
		t.Fatalf("stored file mismatch: %q, %v", data, err)
	}

	if err := s.Delete(ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still present after delete")
	}
	if err := s.Delete(ref); err != nil {
		t.Fatalf("deleting a missing file should succeed: %v", err)
	}
}

func TestStoragePathRejectsEscapes(t *testing.T) {
	s := NewStorageService(t.TempDir())
	for _, ref := range []string{"", "../etc/passwd", "/etc/passwd", "a/../../b"} {
		if _, err := s.Path(ref); err == nil {
			t.Fatalf("expected %q to be rejected", ref)
		}
	}
}
