package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

const BackendName = "local"

// Storage keeps uploaded files under a base directory. Locations are the
// relative path "<base>/<key>" as given in the configuration.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Backend() string {
	return BackendName
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) (string, error) {
	location, err := s.resolve(filepath.Join(s.basePath, key))
	if err != nil {
		return "", err
	}

	f, err := os.Create(location)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(location)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(location)
		return "", fmt.Errorf("close file: %w", err)
	}
	return filepath.ToSlash(location), nil
}

func (s *Storage) Open(_ context.Context, location string) (io.ReadCloser, error) {
	path, err := s.resolve(filepath.FromSlash(location))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "open stored file", err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *Storage) Delete(_ context.Context, location string) error {
	path, err := s.resolve(filepath.FromSlash(location))
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// resolve rejects paths that escape the base directory.
func (s *Storage) resolve(path string) (string, error) {
	clean := filepath.Clean(path)
	base := filepath.Clean(s.basePath)
	rel, err := filepath.Rel(base, clean)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve storage path", fmt.Errorf("%q is outside %q", path, s.basePath))
	}
	return clean, nil
}
