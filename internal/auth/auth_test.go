package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestManager_SignParse(t *testing.T) {
	m := NewManager("secret", time.Hour, "tok", false)
	tok, exp, err := m.Sign("u1", "alice")
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry %v is not in the future", exp)
	}
	u, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if u.ID != "u1" || u.Username != "alice" {
		t.Errorf("Parse() = %+v", u)
	}
}

func TestManager_ParseRejects(t *testing.T) {
	m := NewManager("secret", time.Hour, "tok", false)
	other := NewManager("other", time.Hour, "tok", false)
	foreign, _, _ := other.Sign("u1", "alice")

	expired := NewManager("secret", time.Hour, "tok", false)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := expired.Sign("u1", "alice")

	anon, _, _ := m.Sign("", "alice")

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"expired", old},
		{"missing id", anon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestManager_TokenFromRequest(t *testing.T) {
	m := NewManager("secret", time.Hour, "tok", false)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := m.TokenFromRequest(r); got != "" {
		t.Errorf("no credentials: got %q", got)
	}

	r.AddCookie(&http.Cookie{Name: "tok", Value: "from-cookie"})
	if got := m.TokenFromRequest(r); got != "from-cookie" {
		t.Errorf("cookie: got %q", got)
	}

	r.Header.Set("Authorization", "Bearer from-header")
	if got := m.TokenFromRequest(r); got != "from-header" {
		t.Errorf("header wins: got %q", got)
	}
}

func TestManager_Cookies(t *testing.T) {
	tests := []struct {
		secure   bool
		wantSite http.SameSite
	}{
		{false, http.SameSiteLaxMode},
		{true, http.SameSiteNoneMode},
	}
	for _, tt := range tests {
		m := NewManager("secret", time.Hour, "tok", tt.secure)
		rec := httptest.NewRecorder()
		m.SetCookie(rec, "value", time.Now().Add(time.Hour))
		m.ClearCookie(rec)
		cookies := rec.Result().Cookies()
		if len(cookies) != 2 {
			t.Fatalf("got %d cookies, want 2", len(cookies))
		}
		set, cleared := cookies[0], cookies[1]
		if set.Value != "value" || !set.HttpOnly || set.Secure != tt.secure || set.SameSite != tt.wantSite {
			t.Errorf("secure=%v: set cookie = %+v", tt.secure, set)
		}
		if cleared.MaxAge >= 0 || cleared.Value != "" {
			t.Errorf("secure=%v: cleared cookie = %+v", tt.secure, cleared)
		}
	}
}

func TestUserContext(t *testing.T) {
	if UserFrom(context.Background()) != nil {
		t.Error("UserFrom(empty) != nil")
	}
	ctx := WithUser(context.Background(), &User{ID: "u1"})
	if u := UserFrom(ctx); u == nil || u.ID != "u1" {
		t.Errorf("UserFrom() = %+v", u)
	}
}

func TestCredentials_ValidateSignup(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr string
	}{
		{"valid", Credentials{"alice_1", "password1"}, ""},
		{"short username", Credentials{"al", "password1"}, "3-24"},
		{"long username", Credentials{strings.Repeat("a", 25), "password1"}, "3-24"},
		{"bad characters", Credentials{"al ice", "password1"}, "letters"},
		{"short password", Credentials{"alice", "short"}, "8-100"},
		{"empty", Credentials{}, "3-24"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.ValidateSignup()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateSignup() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateSignup() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestCredentials_Normalize(t *testing.T) {
	c := Credentials{Username: "  bob  "}
	c.Normalize()
	if c.Username != "bob" {
		t.Errorf("Normalize() = %q", c.Username)
	}
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(h, "correct horse") {
		t.Error("CheckPassword() rejected the right password")
	}
	if CheckPassword(h, "wrong horse") {
		t.Error("CheckPassword() accepted the wrong password")
	}
}
