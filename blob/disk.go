// Package blob stores attachment bytes and resolves them to stable URLs.
// Upload failure must never corrupt an owning document: callers upload
// first and only then write the reference.
package blob

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"campus-sync/domain"

	"github.com/gabriel-vasile/mimetype"
)

// DiskStore is the local filesystem blob store used in development and
// tests. The ref is the path relative to the root directory.
type DiskStore struct {
	root string
	log  *slog.Logger
}

func NewDiskStore(root string, log *slog.Logger) *DiskStore {
	return &DiskStore{root: root, log: log}
}

func (s *DiskStore) Upload(_ context.Context, path string, data []byte) (string, error) {
	ref := sanitize(path)
	full := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	s.log.Debug("Blob stored", "ref", ref, "bytes", len(data))
	return ref, nil
}

func (s *DiskStore) URL(ref string) (string, error) {
	abs, err := filepath.Abs(filepath.Join(s.root, filepath.FromSlash(ref)))
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// sanitize keeps refs inside the root and slash-separated.
func sanitize(path string) string {
	clean := filepath.ToSlash(filepath.Clean("/" + path))
	return strings.TrimPrefix(clean, "/")
}

// DetectKind classifies attachment bytes: images render inline, everything
// else is treated as a document.
func DetectKind(data []byte) domain.AttachmentKind {
	if strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return domain.AttachmentImage
	}
	return domain.AttachmentDocument
}

// ContentType sniffs the MIME type for stores that record it (S3 metadata).
func ContentType(data []byte) string {
	return mimetype.Detect(data).String()
}
