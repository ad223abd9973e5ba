package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Validation reasons surfaced to the coordinator.
const (
	ReasonExtension = "extension"
	ReasonSize      = "size"
)

// ValidationError rejects an upload before anything touches disk.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Upload is an incoming artifact, decoupled from the HTTP layer so the
// store and the coordinator can be exercised without multipart plumbing.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Store persists validated uploads under <baseDir>/uploads/issues and
// hands back the relative reference recorded on the report.
type Store struct {
	baseDir  string
	maxBytes int64
}

func NewStore(baseDir string, maxBytes int64) *Store {
	return &Store{baseDir: baseDir, maxBytes: maxBytes}
}

// Save validates the upload and writes it under a generated unique name.
// The returned reference has the form /uploads/issues/<name><ext>.
func (s *Store) Save(upload *Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !allowedExts[ext] {
		return "", &ValidationError{
			Reason:  ReasonExtension,
			Message: "Only JPG, PNG, or WEBP images are allowed.",
		}
	}
	if upload.Size > s.maxBytes {
		return "", &ValidationError{
			Reason:  ReasonSize,
			Message: fmt.Sprintf("Image must be %dMB or smaller.", s.maxBytes/(1024*1024)),
		}
	}

	dir := filepath.Join(s.baseDir, "uploads", "issues")
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, upload.Content); err != nil {
		return "", fmt.Errorf("writing upload file: %w", err)
	}

	return "/uploads/issues/" + name, nil
}
