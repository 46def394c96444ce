// Package storage persists exported meshes to the local filesystem or Tencent Cloud COS.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/metaflame/pkg/config"
)

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload stores the contents of reader at key.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Download opens the object at key. Missing objects yield an ErrNotFound AppError.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. Deleting a missing object succeeds.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns where the object at key can be fetched from.
	GetURL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// Content types of exported artifacts.
const (
	ContentTypeJSON   = "application/json"
	ContentTypeGzip   = "application/gzip"
	ContentTypeBinary = "application/octet-stream"
)

// NewStorage creates a new Storage instance based on the configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return fmt.Errorf("storage config is nil")
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return fmt.Errorf("COS bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
	case StorageTypeLocal, "":
		if cfg.LocalPath == "" {
			return fmt.Errorf("local storage path is required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	return nil
}

// ExportKey returns the object key of an exported view: <dataset>/<view>.<ext>.
// The dataset is reduced to its base name without extension.
func ExportKey(dataset, view, ext string) string {
	base := path.Base(strings.ReplaceAll(dataset, "\\", "/"))
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	if base == "" || base == "." || base == "/" {
		base = "dataset"
	}
	return fmt.Sprintf("%s/%s.%s", base, view, strings.TrimPrefix(ext, "."))
}

// ContentTypeFor returns the content type of an export extension.
func ContentTypeFor(ext string) string {
	switch {
	case strings.HasSuffix(ext, "gz"):
		return ContentTypeGzip
	case strings.HasSuffix(ext, "json"):
		return ContentTypeJSON
	default:
		return ContentTypeBinary
	}
}
