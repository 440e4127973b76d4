package httpserver

import (
	"errors"
	"net/http"

	"github.com/robalobadob/synquiz/internal/quiz"
	"github.com/robalobadob/synquiz/internal/repository"
	"github.com/robalobadob/synquiz/internal/service"
	"github.com/robalobadob/synquiz/internal/store"
)

// errorStatus maps domain errors onto a status code and a stable error code.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{quiz.ErrInvalidSettings, http.StatusBadRequest, "invalid_settings"},
	{quiz.ErrInsufficientWords, http.StatusUnprocessableEntity, "insufficient_words"},
	{quiz.ErrOutOfOrder, http.StatusConflict, "out_of_order"},
	{quiz.ErrSessionCompleted, http.StatusConflict, "session_completed"},
	{quiz.ErrHintsDisabled, http.StatusForbidden, "hints_disabled"},
	{service.ErrAlreadyPlayed, http.StatusConflict, "already_played"},
	{store.ErrNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrUsernameTaken, http.StatusConflict, "username_taken"},
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeServiceError writes the mapped response for err. Unknown errors are
// logged and reported as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code)
			return
		}
	}
	logFor(r).Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "server_error")
}
