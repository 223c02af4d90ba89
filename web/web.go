// Package web embeds the HTML templates and static assets served by the site.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"yatube/internal/service"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// MediaURL is the URL prefix uploaded files are served under.
const MediaURL = "/media/"

// NewEngine returns the template engine. Templates are addressed by their
// path without extension, e.g. "posts/index" or "includes/paginator".
func NewEngine() *html.Engine {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(Funcs())
	return engine
}

// Static exposes the embedded static directory.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Funcs is the function map available to every template.
func Funcs() map[string]any {
	return map[string]any{
		"media":      mediaPath,
		"thumb":      thumbPath,
		"date":       formatDate,
		"linebreaks": linebreaks,
		"truncate":   truncate,
	}
}

func mediaPath(rel string) string {
	if rel == "" {
		return ""
	}
	return MediaURL + strings.TrimPrefix(rel, "/")
}

func thumbPath(rel, format string) string {
	if rel == "" {
		return ""
	}
	return MediaURL + service.ThumbnailPath(rel, format)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006 15:04")
}

// linebreaks escapes s and turns newlines into <br>.
func linebreaks(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>\n"))
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "…"
}
