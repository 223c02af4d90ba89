package forms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// GroupLookup resolves the group chosen on a post form.
type GroupLookup interface {
	GetByID(ctx context.Context, id uint) (*models.Group, error)
}

// ImageInspector checks that upload bytes are an acceptable image.
type ImageInspector interface {
	Inspect(content []byte, contentType string) error
}

// Upload is an image file read from a form.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// PostForm is the create/edit post form.
type PostForm struct {
	Text  string
	Group string
	Image *multipart.FileHeader
}

// PostResult is a validated post form: an unsaved post and the optional upload.
type PostResult struct {
	Post  *models.Post
	Image *Upload
}

// BindPost reads the text, group and image fields from a urlencoded or
// multipart body.
func BindPost(c *fiber.Ctx) *PostForm {
	f := &PostForm{
		Text:  c.FormValue("text"),
		Group: c.FormValue("group"),
	}
	if fh, err := c.FormFile("image"); err == nil && fh != nil && fh.Size > 0 {
		f.Image = fh
	} else if err != nil && !errors.Is(err, fasthttp.ErrMissingFile) && !errors.Is(err, fasthttp.ErrNoMultipartForm) {
		f.Image = &multipart.FileHeader{}
	}
	return f
}

// FromPost fills an edit form from an existing post.
func FromPost(p *models.Post) *PostForm {
	f := &PostForm{Text: p.Text}
	if p.GroupID != nil {
		f.Group = strconv.FormatUint(uint64(*p.GroupID), 10)
	}
	return f
}

// SelectedGroup returns the group id the form currently points at, or 0.
func (f *PostForm) SelectedGroup() uint {
	id, err := strconv.ParseUint(strings.TrimSpace(f.Group), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// Validate checks the form without touching the store. maxBytes bounds the image size.
func (f *PostForm) Validate(ctx context.Context, groups GroupLookup, images ImageInspector, maxBytes int64) (*PostResult, Errors) {
	errs := Errors{}
	post := &models.Post{}

	text := strings.TrimSpace(f.Text)
	if text == "" {
		errs.Add("text", msgRequired)
	}
	post.Text = text

	if raw := strings.TrimSpace(f.Group); raw != "" {
		id := f.SelectedGroup()
		if id == 0 {
			errs.Add("group", msgInvalidGroup)
		} else if _, err := groups.GetByID(ctx, id); err != nil {
			if models.IsNotFound(err) {
				errs.Add("group", msgInvalidGroup)
			} else {
				errs.Add(NonField, "Не удалось проверить группу.")
			}
		} else {
			post.GroupID = &id
		}
	}

	var upload *Upload
	if f.Image != nil {
		up, err := readUpload(f.Image, maxBytes)
		switch {
		case err != nil:
			errs.Add("image", err.Error())
		case images.Inspect(up.Content, up.ContentType) != nil:
			errs.Add("image", msgInvalidImage)
		default:
			upload = up
		}
	}

	if errs.Any() {
		return nil, errs
	}
	return &PostResult{Post: post, Image: upload}, nil
}

func readUpload(fh *multipart.FileHeader, maxBytes int64) (*Upload, error) {
	if fh.Filename == "" && fh.Size == 0 {
		return nil, errors.New(msgInvalidImage)
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, fmt.Errorf("%s Максимум %d МБ.", msgImageTooBig, maxBytes/(1024*1024))
	}
	file, err := fh.Open()
	if err != nil {
		return nil, errors.New(msgInvalidImage)
	}
	defer func() { _ = file.Close() }()

	limit := maxBytes
	if limit <= 0 {
		limit = fh.Size
	}
	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, errors.New(msgInvalidImage)
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return nil, fmt.Errorf("%s Максимум %d МБ.", msgImageTooBig, maxBytes/(1024*1024))
	}
	return &Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
