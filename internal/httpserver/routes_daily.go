// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
//   - POST /daily/sessions    → start (or resume) today's challenge
//   - GET  /daily/leaderboard → top 20 results for today (or ?date=YYYY-MM-DD)
//
// Everyone gets the same questions on a given UTC day. Each owner can
// record one daily result per day (enforced in memory and by the DB).
// Answers, hints and results use the regular /quiz/sessions/{id} routes.

package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/synquiz/internal/daily"
)

func (s *Server) mountDaily(r chi.Router) {
	r.Post("/daily/sessions", s.handleDailySession)
	r.Get("/daily/leaderboard", s.handleLeaderboard)
}

func (s *Server) handleDailySession(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.Quiz.CreateDailySession(r.Context(), s.ownerID(w, r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleLeaderboard lists the best results for a date.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = daily.DateKey(time.Now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = n
	}
	rows, err := s.deps.Daily.Leaderboard(r.Context(), date, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "rows": rows})
}
