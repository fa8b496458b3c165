package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUploaderWritesFileAndURL(t *testing.T) {
	dir := t.TempDir()
	uploader, err := NewLocalUploader(dir, "/media/")
	require.NoError(t, err)

	res, err := uploader.Upload(context.Background(), UploadInput{
		ContentType: "image/webp",
		Body:        strings.NewReader("RIFF"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(res.Key, ".webp"))
	assert.Equal(t, "/media/"+res.Key, res.URL)
	data, err := os.ReadFile(filepath.Join(dir, res.Key))
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))
}

func TestLocalUploaderRequiresBody(t *testing.T) {
	uploader, err := NewLocalUploader(t.TempDir(), LocalURLPrefix)
	require.NoError(t, err)

	_, err = uploader.Upload(context.Background(), UploadInput{})
	require.Error(t, err)
}

func TestNewFallsBackToDisabled(t *testing.T) {
	uploader, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.True(t, IsDisabled(uploader))

	_, err = uploader.Upload(context.Background(), UploadInput{Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrUploaderDisabled)
}

func TestNewPrefersLocalWhenNoBucket(t *testing.T) {
	uploader, err := New(context.Background(), Config{LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalUploader{}, uploader)
}

func TestObjectKeyAndURL(t *testing.T) {
	key := objectKey("generated", "", "image/png")
	assert.True(t, strings.HasPrefix(key, "generated/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	assert.Equal(t, "https://cdn.example.com/a.png", objectURL("https://cdn.example.com", "b", "r", "a.png"))
	assert.Equal(t, "https://b.s3.ap-southeast-2.amazonaws.com/a.png", objectURL("", "b", "ap-southeast-2", "a.png"))
}
