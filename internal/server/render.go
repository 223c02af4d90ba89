package server

import (
	"bytes"
	"errors"
	"log/slog"

	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

var errCSRFRejected = errors.New("csrf token rejected")

// view adds the values every page needs: the title, the request path, the
// current user, the CSRF token and an empty error set. Keys already present
// in data win.
func (s *Server) view(c *fiber.Ctx, title string, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	uid, authenticated := middleware.CurrentUserID(c)
	username, _ := c.Locals("username").(string)
	token, _ := c.Locals(csrfContextKey).(string)

	defaults := fiber.Map{
		"Title":           title,
		"Path":            c.Path(),
		"Authenticated":   authenticated,
		"CurrentUserID":   uid,
		"CurrentUsername": username,
		"CSRFToken":       token,
		"Errors":          forms.Errors{},
	}
	for k, v := range defaults {
		if _, ok := data[k]; !ok {
			data[k] = v
		}
	}
	return data
}

// render writes a full page with the base layout.
func (s *Server) render(c *fiber.Ctx, name, title string, data fiber.Map) error {
	return c.Render(name, s.view(c, title, data), layoutBase)
}

// renderFragment renders a template without the layout into memory.
func (s *Server) renderFragment(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.views.Render(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// errorHandler renders the HTML error pages. Not-found errors from any
// layer become the 404 page and CSRF failures the 403 page. Other client
// errors are sent as plain text, everything else is logged and shown as 500.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	ctx := c.UserContext()

	var fe *fiber.Error
	switch {
	case errors.Is(err, errCSRFRejected):
		middleware.Logger.WarnContext(ctx, "csrf check failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return s.renderError(c, fiber.StatusForbidden, "core/403csrf", "Ошибка проверки CSRF")
	case models.IsNotFound(err):
		return s.renderError(c, fiber.StatusNotFound, "core/404", "Страница не найдена")
	case errors.As(err, &fe):
		if fe.Code == fiber.StatusNotFound {
			return s.renderError(c, fiber.StatusNotFound, "core/404", "Страница не найдена")
		}
		if fe.Code < fiber.StatusInternalServerError {
			return c.Status(fe.Code).SendString(fe.Message)
		}
	}

	status := models.HTTPStatus(err)
	if fe != nil {
		status = fe.Code
	}
	if status < fiber.StatusInternalServerError {
		return c.Status(status).SendString(err.Error())
	}

	middleware.Logger.ErrorContext(ctx, "request error",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return s.renderError(c, status, "core/500", "Ошибка сервера")
}

func (s *Server) renderError(c *fiber.Ctx, status int, name, title string) error {
	c.Status(status)
	if rerr := s.render(c, name, title, nil); rerr != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "error page render failed",
			slog.String("template", name),
			slog.String("error", rerr.Error()),
		)
		return c.Status(status).SendString(title)
	}
	return nil
}
