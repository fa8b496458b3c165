package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalURLPrefix is the path under which the API serves LocalUploader files.
const LocalURLPrefix = "/media"

// LocalUploader stores files in a directory served by the API itself.
type LocalUploader struct {
	BaseDir   string
	URLPrefix string
}

// NewLocalUploader constructs an uploader that writes to baseDir and builds
// URLs under urlPrefix.
func NewLocalUploader(baseDir, urlPrefix string) (*LocalUploader, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("local media dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create local media dir: %w", err)
	}
	return &LocalUploader{BaseDir: baseDir, URLPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Upload writes the content to a uniquely named file and returns its URL.
func (l *LocalUploader) Upload(_ context.Context, input UploadInput) (UploadResult, error) {
	if input.Body == nil {
		return UploadResult{}, fmt.Errorf("upload body is required")
	}

	ext := strings.ToLower(filepath.Ext(input.Filename))
	if ext == "" || len(ext) > 10 {
		ext = extensionFor(input.ContentType)
	}
	name := uuid.NewString() + ext

	target := filepath.Join(l.BaseDir, name)
	file, err := os.Create(target)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create media file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, input.Body); err != nil {
		os.Remove(target)
		return UploadResult{}, fmt.Errorf("write media file: %w", err)
	}

	return UploadResult{
		Key: name,
		URL: l.URLPrefix + "/" + name,
	}, nil
}
