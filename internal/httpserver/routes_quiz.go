// internal/httpserver/routes_quiz.go
//
// HTTP routes for quiz sessions:
//   - POST /quiz/sessions               → create a session from settings
//   - GET  /quiz/sessions/{id}          → current snapshot (no synonyms)
//   - POST /quiz/sessions/{id}/answers  → answer the current question
//   - POST /quiz/sessions/{id}/hints    → spend a hint on the current question
//   - POST /quiz/sessions/{id}/finish   → end early
//   - GET  /quiz/sessions/{id}/result   → summary (partial while open)
//
// Sessions belong to the caller's owner id; another owner's session is 404.

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/synquiz/internal/quiz"
)

func (s *Server) mountQuiz(r chi.Router) {
	r.Post("/quiz/sessions", s.handleCreateSession)
	r.Get("/quiz/sessions/{id}", s.handleGetSession)
	r.Post("/quiz/sessions/{id}/answers", s.handleAnswer)
	r.Post("/quiz/sessions/{id}/hints", s.handleHint)
	r.Post("/quiz/sessions/{id}/finish", s.handleFinish)
	r.Get("/quiz/sessions/{id}/result", s.handleResult)
}

// createSessionReq is the payload for POST /quiz/sessions.
type createSessionReq struct {
	Difficulty        quiz.Difficulty `json:"difficulty"`
	NumberOfQuestions int             `json:"numberOfQuestions"`
	Categories        []string        `json:"categories"`
	TimeLimitSeconds  int             `json:"timeLimitSeconds"`
	HintsEnabled      bool            `json:"hintsEnabled"`
	MatchMode         quiz.MatchMode  `json:"matchMode"`
}

func (req createSessionReq) settings() quiz.GameSettings {
	return quiz.GameSettings{
		Difficulty:        req.Difficulty,
		NumberOfQuestions: req.NumberOfQuestions,
		Categories:        req.Categories,
		TimeLimit:         time.Duration(req.TimeLimitSeconds) * time.Second,
		HintsEnabled:      req.HintsEnabled,
		MatchMode:         req.MatchMode,
	}
}

type answerReq struct {
	WordID string   `json:"wordId"`
	Answer []string `json:"answer"`
}

type hintReq struct {
	WordID string `json:"wordId"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	v, err := s.deps.Quiz.CreateSession(r.Context(), req.settings(), s.ownerID(w, r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.Quiz.Get(r.Context(), chi.URLParam(r, "id"), s.ownerID(w, r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	out, err := s.deps.Quiz.SubmitAnswer(r.Context(), chi.URLParam(r, "id"), s.ownerID(w, r), req.WordID, req.Answer)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	var req hintReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	out, err := s.deps.Quiz.RequestHint(r.Context(), chi.URLParam(r, "id"), s.ownerID(w, r), req.WordID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Quiz.Finish(r.Context(), chi.URLParam(r, "id"), s.ownerID(w, r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Quiz.GetResult(r.Context(), chi.URLParam(r, "id"), s.ownerID(w, r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
