package service

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageService_Inspect(t *testing.T) {
	svc := NewImageService(t.TempDir(), 1)

	assert.NoError(t, svc.Inspect(testutil.SmallGIF(t), "image/gif"))
	assert.NoError(t, svc.Inspect(testutil.TinyPNG(t, 20, 10), ""))

	assert.Error(t, svc.Inspect(nil, "image/png"))
	assert.Error(t, svc.Inspect([]byte("plain text, not an image"), "image/png"))
	assert.Error(t, svc.Inspect(testutil.TinyPNG(t, 20, 10), "image/gif"), "declared type must match content")
	assert.Error(t, svc.Inspect(make([]byte, 2<<20), ""), "larger than the upload limit")
}

func TestImageService_SaveWritesOriginalAndThumbnails(t *testing.T) {
	root := t.TempDir()
	svc := NewImageService(root, 5)
	content := testutil.TinyPNG(t, 1200, 800)

	stored, err := svc.Save(&ImageUpload{Filename: "photo.png", ContentType: "image/png", Content: content})
	require.NoError(t, err)
	assert.True(t, stored.Created)
	rel := stored.Path
	assert.Regexp(t, `^posts/[0-9a-f]{64}\.png$`, rel)

	original, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, content, original)

	for _, format := range []string{"jpg", "webp"} {
		thumb := ThumbnailPath(rel, format)
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(thumb)))
		require.NoError(t, err, format)
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err, format)
		assert.Equal(t, ThumbnailWidth, cfg.Width, format)
		assert.Equal(t, ThumbnailHeight, cfg.Height, format)
	}

	again, err := svc.Save(&ImageUpload{Filename: "copy.png", Content: content})
	require.NoError(t, err)
	assert.Equal(t, rel, again.Path)
	assert.False(t, again.Created, "identical content reuses the stored files")

	svc.Remove(rel)
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(ThumbnailPath(rel, "jpg"))))
	assert.True(t, os.IsNotExist(err))
}

func TestImageService_SaveRejectsInvalid(t *testing.T) {
	svc := NewImageService(t.TempDir(), 5)
	_, err := svc.Save(&ImageUpload{Content: []byte("nope")})
	assert.Error(t, err)
	_, err = svc.Save(nil)
	assert.Error(t, err)
}

func TestThumbnailPath(t *testing.T) {
	assert.Equal(t, "posts/thumbs/abc.webp", ThumbnailPath("posts/abc.gif", "webp"))
}
