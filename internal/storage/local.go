package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// LocalStorage writes uploads below a directory served as static files.
type LocalStorage struct {
	root    string
	baseURL string
	logger  *logrus.Entry
}

// NewLocalStorage creates the root directory if needed.
func NewLocalStorage(root, baseURL string, logger *logrus.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &LocalStorage{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.WithField("component", "local_storage"),
	}, nil
}

// Root is the directory mounted at the base URL.
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) Save(ctx context.Context, r io.Reader, path, contentType string) (string, error) {
	key, err := cleanKey(path)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"path": key, "bytes": n}).Debug("Stored upload")
	return s.URL(key), nil
}

func (s *LocalStorage) URL(path string) string {
	return s.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(path), "/")
}

func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	key, err := cleanKey(path)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Exists(ctx context.Context, path string) (bool, error) {
	key, err := cleanKey(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(s.root, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
