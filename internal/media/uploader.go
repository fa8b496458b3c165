// Package media stores generated images and hands back a URL the browser can
// load instead of a multi-hundred-kilobyte data URI.
package media

import (
	"context"
	"errors"
	"io"
	"mime"
	"strings"
)

// ErrUploaderDisabled indicates that no image store is configured.
var ErrUploaderDisabled = errors.New("media uploader disabled")

// UploadInput wraps the payload required for persisting a file.
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Size        int64
}

// UploadResult captures the canonical object key and its accessible URL.
type UploadResult struct {
	Key string
	URL string
}

// Uploader hides the backing implementation for storing files.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (UploadResult, error)
}

// Config selects and configures the image store.
type Config struct {
	S3       S3Config
	LocalDir string
}

// New returns the S3 uploader when a bucket is configured, the local
// uploader when a directory is configured, and a disabled uploader otherwise.
func New(ctx context.Context, cfg Config) (Uploader, error) {
	if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
		return NewS3Uploader(ctx, cfg.S3)
	}
	if strings.TrimSpace(cfg.LocalDir) != "" {
		return NewLocalUploader(cfg.LocalDir, LocalURLPrefix)
	}
	return Disabled(), nil
}

type disabledUploader struct{}

func (disabledUploader) Upload(_ context.Context, _ UploadInput) (UploadResult, error) {
	return UploadResult{}, ErrUploaderDisabled
}

// Disabled returns an uploader that always signals disabled uploads.
func Disabled() Uploader {
	return disabledUploader{}
}

// IsDisabled reports whether u is the disabled uploader.
func IsDisabled(u Uploader) bool {
	if u == nil {
		return true
	}
	_, ok := u.(disabledUploader)
	return ok
}

// extensionFor picks a file extension for a MIME type, defaulting to .png.
func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".png"
}
