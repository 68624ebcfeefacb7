package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/amirasaad/gastos/pkg/domain/attachment"
	"github.com/amirasaad/gastos/pkg/storage"
	"github.com/google/uuid"
)

// LocalStore keeps files in a directory on the local disk.
type LocalStore struct {
	root    string
	maxSize int64
	logger  *slog.Logger
}

var _ storage.Store = (*LocalStore)(nil)

// NewLocalStore creates root if needed.
func NewLocalStore(root string, maxSize int64, logger *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &LocalStore{root: root, maxSize: maxSize, logger: logger}, nil
}

// Save implements storage.Store.
func (s *LocalStore) Save(ctx context.Context, data []byte, originalName string) (string, error) {
	mime := http.DetectContentType(data)
	if err := attachment.Validate(int64(len(data)), mime, originalName, s.maxSize); err != nil {
		return "", err
	}
	ext, err := attachment.Extension(mime)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + "." + ext
	if err := os.WriteFile(filepath.Join(s.root, name), data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}
	s.logger.Debug("Attachment stored", "name", name, "mime", mime, "size", len(data))
	return name, nil
}

// Open implements storage.Store.
func (s *LocalStore) Open(ctx context.Context, name string) ([]byte, string, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("%w: %s", attachment.ErrAttachmentNotFound, name)
	}
	if err != nil {
		return nil, "", err
	}
	return data, http.DetectContentType(data), nil
}

// Delete implements storage.Store.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// path rejects names that would escape the root.
func (s *LocalStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", attachment.ErrAttachmentNotFound, name)
	}
	return filepath.Join(s.root, name), nil
}
