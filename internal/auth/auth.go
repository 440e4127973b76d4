// internal/auth/auth.go
//
// Authentication helpers shared by the HTTP layer.
// Responsibilities:
//   - Signing and verifying HS256 JWTs carrying the user id and username.
//   - Reading the token from "Authorization: Bearer" or the auth cookie.
//   - Writing and clearing the auth cookie with production-aware attributes.
//   - Carrying the authenticated user through the request context.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, expired or wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// User is the authenticated identity placed into the request context.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Claims is the JWT payload.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager signs tokens and manages the auth cookie.
type Manager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

// NewManager creates a Manager. secure marks cookies Secure and
// SameSite=None, as required when the client is served from another origin.
func NewManager(secret string, ttl time.Duration, cookieName string, secure bool) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, cookieName: cookieName, secure: secure, now: time.Now}
}

// Sign creates a token for the user and returns it with its expiry.
func (m *Manager) Sign(id, username string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:       id,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	ss, err := t.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return ss, exp, nil
}

// Parse verifies a token and returns the user it names.
func (m *Manager) Parse(token string) (*User, error) {
	var c Claims
	t, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	if c.ID == "" || c.Username == "" {
		return nil, ErrInvalidToken
	}
	return &User{ID: c.ID, Username: c.Username}, nil
}

// TokenFromRequest extracts a bearer token from the Authorization header,
// falling back to the auth cookie.
func (m *Manager) TokenFromRequest(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(m.cookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetCookie writes the auth token cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	c := m.cookie(token)
	c.Expires = exp
	http.SetCookie(w, c)
}

// ClearCookie deletes the auth token cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	c := m.cookie("")
	c.MaxAge = -1
	http.SetCookie(w, c)
}

func (m *Manager) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: SameSite(m.secure),
	}
}

// SameSite returns the SameSite mode matching the Secure flag.
func SameSite(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

type ctxUserKey struct{}

// WithUser returns a context carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, u)
}

// UserFrom returns the authenticated user, or nil for guests.
func UserFrom(ctx context.Context) *User {
	u, _ := ctx.Value(ctxUserKey{}).(*User)
	return u
}
