package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"

	apperrors "github.com/metaflame/pkg/errors"
)

// COSConfig holds COS-specific configuration.
type COSConfig struct {
	Bucket    string
	Region    string
	SecretID  string
	SecretKey string
	Domain    string // e.g., "myqcloud.com"
	Scheme    string // e.g., "https" or "http"
}

// COSStorage implements Storage for Tencent Cloud COS.
type COSStorage struct {
	client *cos.Client
	bucket string
	region string
	domain string
	scheme string
}

// NewCOSStorage creates a new COSStorage instance.
func NewCOSStorage(cfg *COSConfig) (*COSStorage, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, apperrors.New(apperrors.CodeConfigError, "bucket and region are required for COS storage")
	}
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, apperrors.New(apperrors.CodeConfigError, "credentials are required for COS storage")
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "myqcloud.com"
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}

	bucketURL, err := url.Parse(fmt.Sprintf("%s://%s.cos.%s.%s", scheme, cfg.Bucket, cfg.Region, domain))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to parse bucket URL", err)
	}
	serviceURL, err := url.Parse(fmt.Sprintf("%s://cos.%s.%s", scheme, cfg.Region, domain))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to parse service URL", err)
	}

	client := cos.NewClient(&cos.BaseURL{
		BucketURL:  bucketURL,
		ServiceURL: serviceURL,
	}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	return &COSStorage{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		domain: domain,
		scheme: scheme,
	}, nil
}

// Upload puts reader at key with the given content type.
func (s *COSStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	var opt *cos.ObjectPutOptions
	if contentType != "" {
		opt = &cos.ObjectPutOptions{
			ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{ContentType: contentType},
		}
	}
	if _, err := s.client.Object.Put(ctx, key, reader, opt); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to upload to COS", err)
	}
	return nil
}

// Download fetches the object at key.
func (s *COSStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.Object.Get(ctx, key, nil)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "object not found: %s", key)
		}
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "failed to download from COS", err)
	}
	return resp.Body, nil
}

// Delete deletes the object at key.
func (s *COSStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Object.Delete(ctx, key, nil); err != nil && !cos.IsNotFoundError(err) {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to delete from COS", err)
	}
	return nil
}

// Exists checks if an object exists at key.
func (s *COSStorage) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.Object.IsExist(ctx, key)
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeStorageError, "failed to check existence in COS", err)
	}
	return ok, nil
}

// GetURL returns the public URL for key.
func (s *COSStorage) GetURL(key string) string {
	return fmt.Sprintf("%s://%s.cos.%s.%s/%s", s.scheme, s.bucket, s.region, s.domain, key)
}

var _ Storage = (*COSStorage)(nil)
