package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/metaflame/pkg/errors"
)

// LocalStorage implements Storage on a directory tree.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./exports"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "failed to create storage directory", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Upload writes reader to key through a temporary file so readers never see a partial
// object.
func (s *LocalStorage) Upload(ctx context.Context, key string, reader io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to create directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to create file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to write file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to close file", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to move file into place", err)
	}
	return nil
}

// Download opens the file stored at key.
func (s *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "object not found: %s", key)
		}
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "failed to open file", err)
	}
	return file, nil
}

// Delete removes the file stored at key.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to delete file", err)
	}
	return nil
}

// Exists checks if a file is stored at key.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.CodeStorageError, "failed to check file existence", err)
	}
	return true, nil
}

// GetURL returns the file path for local storage.
func (s *LocalStorage) GetURL(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// GetBasePath returns the base path for the local storage.
func (s *LocalStorage) GetBasePath() string {
	return s.basePath
}

// resolve maps key to a path below basePath, rejecting keys that escape it.
func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", apperrors.Newf(apperrors.CodeInvalidInput, "invalid object key: %q", key)
	}
	return filepath.Join(s.basePath, clean), nil
}

var _ Storage = (*LocalStorage)(nil)
