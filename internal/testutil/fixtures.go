// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"mime/multipart"
	"net/textproto"
)

type fataler interface {
	Helper()
	Fatalf(string, ...any)
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t fataler, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, G: 40, B: 40, A: 255})
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// SmallGIF returns a two pixel gif.
func SmallGIF(t fataler) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{color.Black, color.White})
	img.SetColorIndex(1, 0, 1)
	buf := bytes.NewBuffer(nil)
	if err := gif.Encode(buf, img, nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

// MultipartBody builds a multipart/form-data body from fields and one optional file.
// It returns the body and its Content-Type header value.
func MultipartBody(t fataler, fields map[string]string, fileField, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if fileField != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return body, w.FormDataContentType()
}

// FileHeader parses content into a *multipart.FileHeader as a form would deliver it.
func FileHeader(t fataler, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	body, ct := MultipartBody(t, nil, "image", filename, contentType, content)
	boundary := ct[len("multipart/form-data; boundary="):]
	form, err := multipart.NewReader(body, boundary).ReadForm(int64(len(content)) + 1024)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	return form.File["image"][0]
}
