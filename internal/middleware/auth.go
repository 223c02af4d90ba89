package middleware

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionIssuer   = "yatube-web"
	sessionAudience = "yatube-browser"

	// LoginPath is where unauthenticated requests to protected pages are sent.
	LoginPath = "/auth/login/"
)

var (
	ErrInvalidSession = errors.New("invalid session token")
	ErrRevokedSession = errors.New("session has been revoked")
)

// RevocationChecker reports whether a session ID has been revoked.
type RevocationChecker func(ctx context.Context, jti string) bool

// Sessions issues and verifies cookie-held JWT sessions.
type Sessions struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	revoked    RevocationChecker
}

// SessionClaims is the decoded content of a valid session token.
type SessionClaims struct {
	UserID    uint
	Username  string
	JTI       string
	ExpiresAt time.Time
}

// NewSessions returns a session manager signing with HS256.
// A nil revoked func disables revocation checks.
func NewSessions(secret, cookieName string, ttl time.Duration, secure bool, revoked RevocationChecker) *Sessions {
	if cookieName == "" {
		cookieName = "yatube_session"
	}
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &Sessions{
		secret:     []byte(secret),
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		revoked:    revoked,
	}
}

// CookieName returns the name of the session cookie.
func (s *Sessions) CookieName() string { return s.cookieName }

// TTL returns the session lifetime.
func (s *Sessions) TTL() time.Duration { return s.ttl }

// Issue signs a new session token for the user.
func (s *Sessions) Issue(userID uint, username string) (string, *SessionClaims, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID:    userID,
		Username:  username,
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(s.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      sessionIssuer,
		"aud":      sessionAudience,
		"exp":      claims.ExpiresAt.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      claims.JTI,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse validates a token and returns its claims.
func (s *Sessions) Parse(ctx context.Context, tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return s.secret, nil
	},
		jwt.WithIssuer(sessionIssuer),
		jwt.WithAudience(sessionAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSession
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidSession
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidSession
	}

	out := &SessionClaims{UserID: uint(userID)}
	out.Username, _ = claims["username"].(string)
	out.JTI, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}

	if out.JTI != "" && s.revoked != nil && s.revoked(ctx, out.JTI) {
		return nil, ErrRevokedSession
	}
	return out, nil
}

// SetCookie writes the session cookie.
func (s *Sessions) SetCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// LoadSession resolves the session cookie, if any, into c.Locals("userID"),
// c.Locals("username") and c.Locals("sessionJTI"). Anonymous requests pass through.
func (s *Sessions) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(s.cookieName)
		if raw == "" {
			return c.Next()
		}

		claims, err := s.Parse(c.UserContext(), raw)
		if err != nil {
			s.ClearCookie(c)
			return c.Next()
		}

		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("sessionJTI", claims.JTI)
		c.Locals("sessionExpires", claims.ExpiresAt)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
		return c.Next()
	}
}

// LoginRequired redirects anonymous requests to the login page with the
// original path in the next parameter.
func LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUserID(c); ok {
			return c.Next()
		}
		return c.Redirect(LoginURL(c.OriginalURL()), fiber.StatusFound)
	}
}

// CurrentUserID returns the authenticated user's ID from locals.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	uid, ok := c.Locals("userID").(uint)
	return uid, ok && uid != 0
}

// LoginURL builds the login redirect target, keeping slashes in next readable.
func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	escaped := strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
	return LoginPath + "?next=" + escaped
}

// SafeNext returns next when it is a same-site absolute path, else fallback.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return next
}
