package web

import (
	"bytes"
	"html/template"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinebreaksEscapes(t *testing.T) {
	got := linebreaks("<b>первая</b>\r\nвторая")
	assert.Equal(t, template.HTML("&lt;b&gt;первая&lt;/b&gt;<br>\nвторая"), got)
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "Привет", truncate("Привет", 6))
	assert.Equal(t, "При…", truncate("Привет", 3))
	assert.Equal(t, "abc", truncate("abc", 0))
}

func TestMediaHelpers(t *testing.T) {
	assert.Equal(t, "/media/posts/a.png", mediaPath("posts/a.png"))
	assert.Equal(t, "/media/posts/thumbs/a.webp", thumbPath("posts/a.png", "webp"))
	assert.Empty(t, mediaPath(""))
	assert.Empty(t, thumbPath("", "jpg"))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05.03.2024 09:07", formatDate(time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC)))
	assert.Empty(t, formatDate(time.Time{}))
}

func TestEngineLoadsTemplates(t *testing.T) {
	engine := NewEngine()
	require.NoError(t, engine.Load())

	var buf bytes.Buffer
	require.NoError(t, engine.Render(&buf, "includes/form_errors", []string{"Обязательное поле."}))
	assert.Contains(t, buf.String(), "Обязательное поле.")
}

func TestStaticServesStylesheet(t *testing.T) {
	f, err := Static().Open("css/yatube.css")
	require.NoError(t, err)
	_ = f.Close()
}
