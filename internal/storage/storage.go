package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gst-billing-service/internal/config"
)

// MaxUploadSize caps logo, signature, avatar and QR uploads.
const MaxUploadSize = 4 << 20

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds the 4 MB limit")
	ErrInvalidPath         = errors.New("invalid storage path")
)

var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// Provider stores uploaded assets and resolves their public URLs.
type Provider interface {
	Save(ctx context.Context, r io.Reader, path, contentType string) (string, error)
	URL(path string) string
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// New builds the provider selected by STORAGE_PROVIDER.
func New(cfg config.StorageConfig, logger *logrus.Logger) (Provider, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocalStorage(cfg.UploadsPath, "/static/uploads", logger)
	case "s3":
		return NewS3Storage(S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			EndpointURL:     cfg.S3EndpointURL,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}

// ValidateImageUpload checks extension, content type and size of an image
// upload and returns the lower-cased extension.
func ValidateImageUpload(filename, contentType string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExtensions[ext] {
		return "", ErrUnsupportedFileType
	}
	// svg is accepted by extension; browsers send a variety of types for it
	if ext != ".svg" && contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedFileType
	}
	if size > MaxUploadSize {
		return "", ErrFileTooLarge
	}
	return ext, nil
}

// UploadPath returns "<subdir>/<prefix>_<uuid hex><ext>".
func UploadPath(subdir, prefix, ext string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%s/%s_%s%s", subdir, prefix, id, ext)
}

// cleanKey rejects absolute paths and parent traversal.
func cleanKey(path string) (string, error) {
	key := filepath.ToSlash(filepath.Clean(strings.TrimSpace(path)))
	if key == "." || key == "" || strings.HasPrefix(key, "/") || strings.HasPrefix(key, "../") || key == ".." {
		return "", ErrInvalidPath
	}
	return key, nil
}
