package forms

import (
	"strings"

	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type SignupForm struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password1 string
	Password2 string
}

func BindSignup(c *fiber.Ctx) *SignupForm {
	return &SignupForm{
		FirstName: strings.TrimSpace(c.FormValue("first_name")),
		LastName:  strings.TrimSpace(c.FormValue("last_name")),
		Username:  strings.TrimSpace(c.FormValue("username")),
		Email:     strings.TrimSpace(c.FormValue("email")),
		Password1: c.FormValue("password1"),
		Password2: c.FormValue("password2"),
	}
}

func (f *SignupForm) Validate() Errors {
	errs := Errors{}
	if err := validation.ValidateUsername(f.Username); err != nil {
		errs.Add("username", err.Error())
	}
	if err := validation.ValidateEmail(f.Email); err != nil {
		errs.Add("email", err.Error())
	}
	if f.Password1 == "" {
		errs.Add("password1", msgRequired)
	} else if err := validation.ValidatePassword(f.Password1, f.Username); err != nil {
		errs.Add("password1", err.Error())
	}
	if f.Password2 == "" {
		errs.Add("password2", msgRequired)
	} else if f.Password1 != f.Password2 {
		errs.Add("password2", msgPasswordsDif)
	}
	return errs
}

type LoginForm struct {
	Username string
	Password string
	Next     string
}

func BindLogin(c *fiber.Ctx) *LoginForm {
	next := c.FormValue("next")
	if next == "" {
		next = c.Query("next")
	}
	return &LoginForm{
		Username: strings.TrimSpace(c.FormValue("username")),
		Password: c.FormValue("password"),
		Next:     next,
	}
}

func (f *LoginForm) Validate() Errors {
	errs := Errors{}
	if f.Username == "" {
		errs.Add("username", msgRequired)
	}
	if f.Password == "" {
		errs.Add("password", msgRequired)
	}
	return errs
}

// Reject records a failed credential check on the form.
func (f *LoginForm) Reject(errs Errors) {
	errs.Add(NonField, msgBadLogin)
}
