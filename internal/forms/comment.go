package forms

import (
	"strings"

	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CommentForm carries only the comment text. Author and post come from the request context.
type CommentForm struct {
	Text string
}

func BindComment(c *fiber.Ctx) *CommentForm {
	return &CommentForm{Text: c.FormValue("text")}
}

// Validate returns an unsaved comment with Text set.
func (f *CommentForm) Validate() (*models.Comment, Errors) {
	errs := Errors{}
	text := strings.TrimSpace(f.Text)
	if text == "" {
		errs.Add("text", msgRequired)
		return nil, errs
	}
	return &models.Comment{Text: text}, nil
}
