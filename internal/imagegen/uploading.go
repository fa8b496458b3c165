package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"mxdrAdvisor/internal/media"
)

// Uploading stores inline images produced by Next and returns the stored
// URL in their place. URL results pass through untouched. If the upload
// fails the data URI is returned unchanged.
type Uploading struct {
	Next     Generator
	Uploader media.Uploader
	Log      zerolog.Logger
}

// WithUploads wraps gen when uploader can store files.
func WithUploads(gen Generator, uploader media.Uploader, log zerolog.Logger) Generator {
	if gen == nil || media.IsDisabled(uploader) {
		return gen
	}
	return &Uploading{Next: gen, Uploader: uploader, Log: log}
}

func (u *Uploading) Name() string { return u.Next.Name() }

func (u *Uploading) Generate(ctx context.Context, prompt string) (Result, error) {
	res, err := u.Next.Generate(ctx, prompt)
	if err != nil || !strings.HasPrefix(res.Image, "data:") {
		return res, err
	}

	contentType, data, err := decodeDataURI(res.Image)
	if err != nil {
		u.Log.Warn().Err(err).Str("provider", res.Provider).Msg("generated image is not a valid data URI")
		return res, nil
	}

	uploaded, err := u.Uploader.Upload(ctx, media.UploadInput{
		ContentType: contentType,
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
	})
	if err != nil || uploaded.URL == "" {
		u.Log.Warn().Err(err).Str("provider", res.Provider).Msg("image upload failed, returning inline data")
		return res, nil
	}

	u.Log.Debug().Str("provider", res.Provider).Str("key", uploaded.Key).Msg("generated image stored")
	res.Image = uploaded.URL
	return res, nil
}

// decodeDataURI splits a base64 data URI into its MIME type and bytes.
func decodeDataURI(uri string) (string, []byte, error) {
	header, encoded, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil, fmt.Errorf("unsupported data URI header %q", header)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI: %w", err)
	}
	contentType := strings.TrimSuffix(header, ";base64")
	if contentType == "" {
		contentType = "image/png"
	}
	return contentType, data, nil
}
