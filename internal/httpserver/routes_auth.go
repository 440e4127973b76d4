// internal/httpserver/routes_auth.go
//
// Account endpoints and the identity middleware.
//   - POST /auth/signup, /auth/login, /auth/logout
//   - GET  /auth/me, /stats/me, /quiz/mine (require auth)
//
// Every quiz request resolves to an owner id: the signed-in user's id, or
// the anonymous cookie for guests. Guest results are claimed by the account
// on signup/login.

package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/robalobadob/synquiz/internal/auth"
	"github.com/robalobadob/synquiz/internal/repository"
)

// mountAuthRoutes registers signup/login/logout and the gated profile routes.
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		s.deps.Auth.ClearCookie(w)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, auth.UserFrom(r.Context()))
		})
		r.Get("/stats/me", s.handleStats)
		r.Get("/quiz/mine", s.handleMine)
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body auth.Credentials
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	body.Normalize()
	if err := body.ValidateSignup(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hash_failed")
		return
	}
	u, err := s.deps.Users.Create(r.Context(), body.Username, hash)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !s.signIn(w, r, u) {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body auth.Credentials
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	body.Normalize()
	u, err := s.deps.Users.FindByUsername(r.Context(), body.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		writeServiceError(w, r, err)
		return
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, body.Password) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if !s.signIn(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username})
}

// signIn sets the auth cookie and moves guest results onto the account.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, u *repository.User) bool {
	tok, exp, err := s.deps.Auth.Sign(u.ID, u.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.deps.Auth.SetCookie(w, tok, exp)
	if c, err := r.Cookie(s.opts.AnonCookieName); err == nil && c.Value != "" {
		n, err := s.deps.Results.ClaimGuestResults(r.Context(), c.Value, u.ID)
		if err != nil {
			logFor(r).Warn().Err(err).Str("user", u.ID).Msg("claim guest results")
		} else if n > 0 {
			logFor(r).Info().Str("user", u.ID).Int("results", n).Msg("claimed guest results")
		}
	}
	return true
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := auth.UserFrom(r.Context())
	u, err := s.deps.Users.FindByID(r.Context(), me.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	avg := 0.0
	if u.SessionsPlayed > 0 {
		avg = float64(u.TotalScore) / float64(u.SessionsPlayed)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":             u.ID,
		"sessionsPlayed": u.SessionsPlayed,
		"totalScore":     u.TotalScore,
		"averageScore":   avg,
		"bestStreak":     u.BestStreak,
	})
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	me := auth.UserFrom(r.Context())
	recs, err := s.deps.Results.RecentByOwner(r.Context(), me.ID, 50)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// ------------------------------ middleware ---------------------------------

// withOptionalAuth attaches the user when a valid token names an existing
// account. Invalid or stale tokens fall through as guests.
func (s *Server) withOptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := s.authenticate(r); u != nil {
			r = r.WithContext(auth.WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth rejects requests without a valid token for an existing account.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := s.authenticate(r)
		if u == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
	})
}

func (s *Server) authenticate(r *http.Request) *auth.User {
	tok := s.deps.Auth.TokenFromRequest(r)
	if tok == "" {
		return nil
	}
	u, err := s.deps.Auth.Parse(tok)
	if err != nil {
		return nil
	}
	// the account may have been removed since the token was issued
	if _, err := s.deps.Users.FindByID(r.Context(), u.ID); err != nil {
		return nil
	}
	return u
}

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.opts.AnonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.AnonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: auth.SameSite(s.opts.Secure),
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// ownerID resolves the session owner for r.
func (s *Server) ownerID(w http.ResponseWriter, r *http.Request) string {
	if me := auth.UserFrom(r.Context()); me != nil {
		return me.ID
	}
	return s.ensureAnonID(w, r)
}
