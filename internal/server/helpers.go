package server

import (
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint. Routes
// constrain ids to integers, so a bad value here is reported as not found.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewNotFoundError("Post", c.Params(param))
	}
	return uint(id), nil
}

// indexPageNumber maps a raw ?page= value to the number the index is cached
// under. Pages past the end are cached under the requested number.
func indexPageNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// currentUser returns the session user ID and username. Routes behind
// LoginRequired always have both.
func currentUser(c *fiber.Ctx) (uint, string) {
	uid, _ := middleware.CurrentUserID(c)
	username, _ := c.Locals("username").(string)
	return uid, username
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

// activeSession runs after LoginRequired. A session whose user no longer
// exists, for example after an admin deleted the account, is revoked and
// sent back to the login page.
func (s *Server) activeSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, _ := middleware.CurrentUserID(c)
		if _, err := s.userService.GetByID(c.UserContext(), uid); err != nil {
			if !models.IsNotFound(err) {
				return err
			}
			jti, _ := c.Locals("sessionJTI").(string)
			if expires, ok := c.Locals("sessionExpires").(time.Time); ok {
				if rerr := s.revocations.Revoke(c.UserContext(), jti, time.Until(expires)); rerr != nil {
					middleware.Logger.WarnContext(c.UserContext(), "session revoke failed", slog.String("error", rerr.Error()))
				}
			}
			s.sessions.ClearCookie(c)
			c.Locals("userID", uint(0))
			c.Locals("username", "")
			return c.Redirect(middleware.LoginURL(c.OriginalURL()), fiber.StatusFound)
		}
		return c.Next()
	}
}
