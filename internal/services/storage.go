package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StorageService keeps the original uploaded resume files. The returned reference is
// relative to the upload directory and is stored as the record's input_ref.
type StorageService interface {
	EnsureUploadDir() error
	SaveUpload(ownerID, filename string, content []byte) (string, error)
	Path(ref string) (string, error)
	Delete(ref string) error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{uploadPath: uploadPath}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

func (s *storageService) SaveUpload(ownerID, filename string, content []byte) (string, error) {
	owner := safeSegment(ownerID)
	if owner == "" {
		owner = "anonymous"
	}
	ext := strings.ToLower(filepath.Ext(filename))

	dir := filepath.Join(s.uploadPath, owner)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return owner + "/" + name, nil
}

// Path resolves a reference, rejecting anything that escapes the upload directory.
func (s *storageService) Path(ref string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid file reference %q", ref)
	}
	return filepath.Join(s.uploadPath, clean), nil
}

func (s *storageService) Delete(ref string) error {
	path, err := s.Path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// safeSegment keeps letters, digits, '-' and '_' so ids can be used as directory names.
func safeSegment(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, s)
}
