package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	_ "image/gif" // Register GIF decoder
	_ "image/png" // Register PNG decoder

	"yatube/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 5
	ThumbnailWidth              = 960
	ThumbnailHeight             = 339
	JPEGQuality                 = 82
	WebPQuality                 = 70

	postsDir  = "posts"
	thumbsDir = "posts/thumbs"
)

var errInvalidImage = errors.New("invalid image")

// ImageUpload is an image received with a post form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// StoredImage is the result of ImageService.Save. Created is false when
// identical content was already on disk, in which case other posts may
// reference the same files.
type StoredImage struct {
	Path    string
	Created bool
}

// ImageService validates post images and stores them under the media root.
type ImageService struct {
	mediaRoot          string
	maxUploadSizeBytes int64
}

func NewImageService(mediaRoot string, maxUploadMB int) *ImageService {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultImageMaxUploadSizeMB
	}
	return &ImageService{
		mediaRoot:          mediaRoot,
		maxUploadSizeBytes: int64(maxUploadMB) * 1024 * 1024,
	}
}

// MaxUploadBytes is the largest accepted upload.
func (s *ImageService) MaxUploadBytes() int64 { return s.maxUploadSizeBytes }

// Inspect reports whether content is an acceptable image.
func (s *ImageService) Inspect(content []byte, contentType string) error {
	_, _, err := s.decode(content, contentType)
	return err
}

func (s *ImageService) decode(content []byte, contentType string) (image.Image, string, error) {
	if len(content) == 0 {
		return nil, "", models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxUploadSizeBytes {
		return nil, "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return nil, "", models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, "", models.NewValidationError("Invalid image file")
	}
	if decodedFormatToMime(format) == "" {
		return nil, "", models.NewValidationError("Unsupported image format")
	}
	if provided := normalizeContentType(contentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, decodedFormatToMime(format)) {
		return nil, "", models.NewValidationError("Image content type mismatch")
	}
	return decoded, format, nil
}

// Save writes the original and its thumbnails and returns the path relative
// to the media root (posts/<sha256>.<ext>). Identical content maps to the same
// path, and files already present are left untouched. On a failed write only
// the files created by this call are removed.
func (s *ImageService) Save(up *ImageUpload) (StoredImage, error) {
	if up == nil {
		return StoredImage{}, errInvalidImage
	}
	decoded, format, err := s.decode(up.Content, up.ContentType)
	if err != nil {
		return StoredImage{}, err
	}

	sum := sha256.Sum256(up.Content)
	hash := hex.EncodeToString(sum[:])
	rel := path.Join(postsDir, hash+"."+extensionFor(format))

	thumb := cropToFill(decoded, ThumbnailWidth, ThumbnailHeight)
	thumbJPG, err := encodeJPEG(thumb, JPEGQuality)
	if err != nil {
		return StoredImage{}, models.NewInternalError(err)
	}
	thumbWebP, err := encodeWebP(thumb, WebPQuality)
	if err != nil {
		return StoredImage{}, models.NewInternalError(err)
	}

	writes := []struct {
		rel  string
		data []byte
	}{
		{rel, up.Content},
		{ThumbnailPath(rel, "jpg"), thumbJPG},
		{ThumbnailPath(rel, "webp"), thumbWebP},
	}
	created := make([]string, 0, len(writes))
	for _, w := range writes {
		abs := s.abs(w.rel)
		isNew, err := createFileExclusive(abs, w.data)
		if err != nil {
			cleanupImageFiles(created)
			return StoredImage{}, models.NewInternalError(err)
		}
		if isNew {
			created = append(created, abs)
		}
	}
	// The original decides ownership: thumbnails alone may be rewritten after
	// a manual cleanup while the original still belongs to another post.
	return StoredImage{Path: rel, Created: len(created) > 0 && created[0] == s.abs(rel)}, nil
}

// Remove deletes a stored image and its thumbnails. Missing files are ignored.
func (s *ImageService) Remove(rel string) {
	if !strings.HasPrefix(rel, postsDir+"/") {
		return
	}
	cleanupImageFiles([]string{
		s.abs(rel),
		s.abs(ThumbnailPath(rel, "jpg")),
		s.abs(ThumbnailPath(rel, "webp")),
	})
}

func (s *ImageService) abs(rel string) string {
	return filepath.Join(s.mediaRoot, filepath.FromSlash(path.Clean("/" + rel)))
}

// ThumbnailPath maps posts/<hash>.<ext> to posts/thumbs/<hash>.<format>.
func ThumbnailPath(rel, format string) string {
	base := path.Base(rel)
	base = strings.TrimSuffix(base, path.Ext(base))
	return path.Join(thumbsDir, base+"."+format)
}

// cropToFill scales src to cover w x h and crops the overflow around the center.
func cropToFill(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw <= 0 || sh <= 0 {
		return src
	}

	target := float64(w) / float64(h)
	crop := b
	if float64(sw)/float64(sh) > target {
		cw := int(float64(sh) * target)
		if cw < 1 {
			cw = 1
		}
		x0 := b.Min.X + (sw-cw)/2
		crop = image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	} else {
		ch := int(float64(sw) / target)
		if ch < 1 {
			ch = 1
		}
		y0 := b.Min.Y + (sh-ch)/2
		crop = image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func extensionFor(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "jpg"
	default:
		return strings.ToLower(format)
	}
}

// createFileExclusive writes data to p unless p already exists. It reports
// whether the file was created by this call.
func createFileExclusive(p string, data []byte) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return false, err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return false, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return false, err
	}
	return true, nil
}

func cleanupImageFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
