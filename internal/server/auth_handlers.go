package server

import (
	"log/slog"
	"time"

	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

const msgUsernameTaken = "Пользователь с таким именем уже существует."

// SignupPage shows the registration form.
func (s *Server) SignupPage(c *fiber.Ctx) error {
	return s.renderSignup(c, &forms.SignupForm{}, forms.Errors{})
}

// Signup creates an account, starts a session for it and goes to the index.
func (s *Server) Signup(c *fiber.Ctx) error {
	ctx := c.UserContext()
	form := forms.BindSignup(c)
	if errs := form.Validate(); errs.Any() {
		return s.renderSignup(c, form, errs)
	}

	user, err := s.userService.Register(ctx, service.RegisterInput{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Password:  form.Password1,
	})
	if err != nil {
		if models.IsConflict(err) {
			errs := forms.Errors{}
			errs.Add("username", msgUsernameTaken)
			return s.renderSignup(c, form, errs)
		}
		return err
	}

	middleware.Logger.InfoContext(ctx, "user registered", slog.String("username", user.Username))
	if err := s.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) renderSignup(c *fiber.Ctx, form *forms.SignupForm, errs forms.Errors) error {
	return s.render(c, "users/signup", "Регистрация", fiber.Map{
		"Form":   form,
		"Errors": errs,
	})
}

// LoginPage shows the login form, keeping the next parameter.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.renderLogin(c, &forms.LoginForm{Next: c.Query("next")}, forms.Errors{})
}

// Login checks credentials and redirects to next when it is a local path.
func (s *Server) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()
	form := forms.BindLogin(c)
	errs := form.Validate()
	if errs.Any() {
		return s.renderLogin(c, form, errs)
	}

	user, err := s.userService.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		if models.HTTPStatus(err) == fiber.StatusUnauthorized {
			form.Password = ""
			form.Reject(errs)
			return s.renderLogin(c, form, errs)
		}
		return err
	}

	if err := s.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect(middleware.SafeNext(form.Next, "/"), fiber.StatusFound)
}

func (s *Server) renderLogin(c *fiber.Ctx, form *forms.LoginForm, errs forms.Errors) error {
	return s.render(c, "users/login", "Войти", fiber.Map{
		"Form":   form,
		"Errors": errs,
	})
}

// Logout revokes the current session and clears its cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if jti, ok := c.Locals("sessionJTI").(string); ok && jti != "" {
		ttl := s.sessions.TTL()
		if exp, ok := c.Locals("sessionExpires").(time.Time); ok {
			ttl = time.Until(exp)
		}
		if err := s.revocations.Revoke(ctx, jti, ttl); err != nil {
			middleware.Logger.WarnContext(ctx, "session revocation failed", slog.String("error", err.Error()))
		}
	}
	s.sessions.ClearCookie(c)

	// The page below is rendered for an anonymous visitor.
	c.Locals("userID", uint(0))
	c.Locals("username", "")
	return s.render(c, "users/logged_out", "Вы вышли", nil)
}

func (s *Server) startSession(c *fiber.Ctx, user *models.User) error {
	token, claims, err := s.sessions.Issue(user.ID, user.Username)
	if err != nil {
		return models.NewInternalError(err)
	}
	s.sessions.SetCookie(c, token, claims.ExpiresAt)
	return nil
}
