package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/synquiz/internal/auth"
	"github.com/robalobadob/synquiz/internal/daily"
	"github.com/robalobadob/synquiz/internal/database"
	"github.com/robalobadob/synquiz/internal/quiz"
	"github.com/robalobadob/synquiz/internal/repository"
	"github.com/robalobadob/synquiz/internal/service"
	"github.com/robalobadob/synquiz/internal/store"
)

var testWords = []quiz.Word{
	{ID: "w-happy", Word: "happy", Synonyms: []string{"glad", "joyful"}, Difficulty: quiz.DifficultyEasy, Category: "emotion"},
	{ID: "w-big", Word: "big", Synonyms: []string{"large", "huge"}, Difficulty: quiz.DifficultyEasy, Category: "size"},
	{ID: "w-fast", Word: "fast", Synonyms: []string{"quick"}, Difficulty: quiz.DifficultyEasy, Category: "speed"},
	{ID: "w-candid", Word: "candid", Synonyms: []string{"frank", "honest"}, Difficulty: quiz.DifficultyMedium, Category: "character"},
	{ID: "w-laconic", Word: "laconic", Synonyms: []string{"terse", "brief"}, Difficulty: quiz.DifficultyHard, Category: "behavior"},
}

func synonymsOf(id string) []string {
	for _, w := range testWords {
		if w.ID == id {
			return w.Synonyms
		}
	}
	return nil
}

type harness struct {
	ts *httptest.Server
}

func setupServer(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite3", filepath.Join(t.TempDir(), "test.db"), "")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	wordRepo := repository.NewWordRepository(db)
	if _, err := wordRepo.Seed(ctx, testWords); err != nil {
		t.Fatalf("failed to seed words: %v", err)
	}
	results := repository.NewResultRepository(db)
	dailyStore := daily.NewStore(db)

	quizSvc := service.New(wordRepo, results, store.NewMemoryStore(),
		service.WithRand(rand.New(rand.NewSource(7))),
		service.WithDaily(dailyStore, "test-salt", 3),
	)
	srv := New(Deps{
		Quiz:    quizSvc,
		Users:   repository.NewUserRepository(db),
		Results: results,
		Words:   wordRepo,
		Daily:   dailyStore,
		Auth:    auth.NewManager("test-secret", time.Hour, "synquiz_token", false),
	}, Options{ClientOrigin: "http://localhost:5173"})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &harness{ts: ts}
}

// client returns an HTTP client with its own cookie jar, i.e. one player.
func (h *harness) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

func (h *harness) do(t *testing.T, c *http.Client, method, path string, body any, out any) int {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, h.ts.URL+path, rdr)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode
}

type errBody struct {
	Error string `json:"error"`
}

// expectError asserts status and error code of a failing request.
func (h *harness) expectError(t *testing.T, c *http.Client, method, path string, body any, status int, code string) {
	t.Helper()
	var e errBody
	if got := h.do(t, c, method, path, body, &e); got != status || e.Error != code {
		t.Errorf("%s %s = %d %q, want %d %q", method, path, got, e.Error, status, code)
	}
}

// playAll answers every remaining question with its full synonym set.
func (h *harness) playAll(t *testing.T, c *http.Client, v service.View) service.View {
	t.Helper()
	for v.Current != nil {
		var out service.AnswerOutcome
		status := h.do(t, c, http.MethodPost, "/quiz/sessions/"+v.ID+"/answers",
			answerReq{WordID: v.Current.ID, Answer: synonymsOf(v.Current.ID)}, &out)
		if status != http.StatusOK {
			t.Fatalf("answer %s = %d", v.Current.ID, status)
		}
		if !out.Answer.IsCorrect {
			t.Fatalf("answer %s marked incorrect: %+v", v.Current.ID, out.Feedback)
		}
		v = out.Session
	}
	return v
}

func TestHealthAndNotFound(t *testing.T) {
	h := setupServer(t)
	c := h.client(t)

	var health map[string]bool
	if got := h.do(t, c, http.MethodGet, "/health", nil, &health); got != http.StatusOK || !health["ok"] {
		t.Errorf("GET /health = %d %v", got, health)
	}
	h.expectError(t, c, http.MethodGet, "/nope", nil, http.StatusNotFound, "not_found")

	var words struct {
		Total        int                     `json:"total"`
		ByDifficulty map[quiz.Difficulty]int `json:"byDifficulty"`
	}
	if got := h.do(t, c, http.MethodGet, "/debug/words", nil, &words); got != http.StatusOK {
		t.Fatalf("GET /debug/words = %d", got)
	}
	if words.Total != 5 || words.ByDifficulty[quiz.DifficultyEasy] != 3 {
		t.Errorf("debug words = %+v", words)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := setupServer(t)
	req, _ := http.NewRequest(http.MethodOptions, h.ts.URL+"/quiz/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
}

func TestQuizSession_GuestFlow(t *testing.T) {
	h := setupServer(t)
	c := h.client(t)

	var v service.View
	status := h.do(t, c, http.MethodPost, "/quiz/sessions",
		createSessionReq{Difficulty: quiz.DifficultyEasy, NumberOfQuestions: 2, HintsEnabled: true}, &v)
	if status != http.StatusCreated {
		t.Fatalf("create = %d", status)
	}
	if v.State != quiz.StateCreated || v.TotalQuestions != 2 || v.Current == nil {
		t.Fatalf("created view = %+v", v)
	}

	// the snapshot never carries synonyms
	req, _ := http.NewRequest(http.MethodGet, h.ts.URL+"/quiz/sessions/"+v.ID, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get = %d", resp.StatusCode)
	}
	for _, syn := range synonymsOf(v.Current.ID) {
		if strings.Contains(string(raw), syn) {
			t.Errorf("session snapshot leaks synonym %q: %s", syn, raw)
		}
	}

	var hint service.HintOutcome
	if got := h.do(t, c, http.MethodPost, "/quiz/sessions/"+v.ID+"/hints", hintReq{WordID: v.Current.ID}, &hint); got != http.StatusOK {
		t.Fatalf("hint = %d", got)
	}
	if hint.HintsUsed != 1 || hint.Hint == "" {
		t.Errorf("hint = %+v", hint)
	}

	h.expectError(t, c, http.MethodPost, "/quiz/sessions/"+v.ID+"/answers",
		answerReq{WordID: "w-laconic", Answer: []string{"terse"}}, http.StatusConflict, "out_of_order")

	v = h.playAll(t, c, v)
	if v.State != quiz.StateCompleted {
		t.Fatalf("state after last answer = %s", v.State)
	}

	h.expectError(t, c, http.MethodPost, "/quiz/sessions/"+v.ID+"/answers",
		answerReq{WordID: "w-happy", Answer: []string{"glad"}}, http.StatusConflict, "session_completed")

	var res quiz.QuizResult
	if got := h.do(t, c, http.MethodGet, "/quiz/sessions/"+v.ID+"/result", nil, &res); got != http.StatusOK {
		t.Fatalf("result = %d", got)
	}
	if res.CorrectAnswers != 2 || res.HintsUsed != 1 || res.Partial || res.Score <= 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestQuizSession_Errors(t *testing.T) {
	h := setupServer(t)
	c := h.client(t)

	h.expectError(t, c, http.MethodPost, "/quiz/sessions", "{not json", http.StatusBadRequest, "invalid_json")
	h.expectError(t, c, http.MethodPost, "/quiz/sessions",
		createSessionReq{Difficulty: quiz.DifficultyEasy, NumberOfQuestions: 0}, http.StatusBadRequest, "invalid_settings")
	h.expectError(t, c, http.MethodPost, "/quiz/sessions",
		createSessionReq{Difficulty: "impossible", NumberOfQuestions: 1}, http.StatusBadRequest, "invalid_settings")
	h.expectError(t, c, http.MethodPost, "/quiz/sessions",
		createSessionReq{Difficulty: quiz.DifficultyHard, NumberOfQuestions: 4}, http.StatusUnprocessableEntity, "insufficient_words")
	h.expectError(t, c, http.MethodGet, "/quiz/sessions/missing", nil, http.StatusNotFound, "not_found")

	var v service.View
	if got := h.do(t, c, http.MethodPost, "/quiz/sessions",
		createSessionReq{Difficulty: quiz.DifficultyMixed, NumberOfQuestions: 2}, &v); got != http.StatusCreated {
		t.Fatalf("create = %d", got)
	}
	h.expectError(t, c, http.MethodPost, "/quiz/sessions/"+v.ID+"/hints",
		hintReq{WordID: v.Current.ID}, http.StatusForbidden, "hints_disabled")
	h.expectError(t, c, http.MethodPost, "/quiz/sessions/"+v.ID+"/answers",
		"[]", http.StatusBadRequest, "invalid_json")

	// another player cannot see or touch the session
	other := h.client(t)
	h.expectError(t, other, http.MethodGet, "/quiz/sessions/"+v.ID, nil, http.StatusNotFound, "not_found")
	h.expectError(t, other, http.MethodPost, "/quiz/sessions/"+v.ID+"/finish", nil, http.StatusNotFound, "not_found")
}

func TestQuizSession_FinishEarly(t *testing.T) {
	h := setupServer(t)
	c := h.client(t)

	var v service.View
	if got := h.do(t, c, http.MethodPost, "/quiz/sessions",
		createSessionReq{Difficulty: quiz.DifficultyEasy, NumberOfQuestions: 3, TimeLimitSeconds: 600}, &v); got != http.StatusCreated {
		t.Fatalf("create = %d", got)
	}
	if v.ExpiresAt == nil {
		t.Error("timed session has no expiry")
	}
	if v.Settings.TimeLimit != 600*time.Second {
		t.Errorf("settings time limit = %v, want 10m", v.Settings.TimeLimit)
	}
	var raw struct {
		Settings map[string]any `json:"settings"`
	}
	h.do(t, c, http.MethodGet, "/quiz/sessions/"+v.ID, nil, &raw)
	if got := raw.Settings["timeLimitSeconds"]; got != float64(600) {
		t.Errorf("settings.timeLimitSeconds = %v, want 600", got)
	}
	if _, ok := raw.Settings["timeLimit"]; ok {
		t.Error("settings still carry a nanosecond timeLimit")
	}

	var partial quiz.QuizResult
	if got := h.do(t, c, http.MethodGet, "/quiz/sessions/"+v.ID+"/result", nil, &partial); got != http.StatusOK || !partial.Partial {
		t.Errorf("open result = %d %+v", got, partial)
	}

	var res quiz.QuizResult
	if got := h.do(t, c, http.MethodPost, "/quiz/sessions/"+v.ID+"/finish", nil, &res); got != http.StatusOK {
		t.Fatalf("finish = %d", got)
	}
	if res.Partial || res.Unanswered != 3 || res.Score != 0 {
		t.Errorf("finished result = %+v", res)
	}
	var after service.View
	if got := h.do(t, c, http.MethodGet, "/quiz/sessions/"+v.ID, nil, &after); got != http.StatusOK || after.State != quiz.StateCompleted {
		t.Errorf("state after finish = %d %s", got, after.State)
	}
}

func TestAuth_SignupClaimsGuestResults(t *testing.T) {
	h := setupServer(t)
	c := h.client(t)

	h.expectError(t, c, http.MethodGet, "/auth/me", nil, http.StatusUnauthorized, "unauthorized")

	// play as a guest first
	var v service.View
	if got := h.do(t, c, http.MethodPost, "/quiz/sessions",
		createSessionReq{Difficulty: quiz.DifficultyEasy, NumberOfQuestions: 1}, &v); got != http.StatusCreated {
		t.Fatalf("create = %d", got)
	}
	h.playAll(t, c, v)

	creds := map[string]string{"username": "wordsmith", "password": "longenough"}
	if got := h.do(t, c, http.MethodPost, "/auth/signup", creds, nil); got != http.StatusCreated {
		t.Fatalf("signup = %d", got)
	}
	h.expectError(t, h.client(t), http.MethodPost, "/auth/signup",
		map[string]string{"username": "WordSmith", "password": "longenough"}, http.StatusConflict, "username_taken")
	h.expectError(t, h.client(t), http.MethodPost, "/auth/signup",
		map[string]string{"username": "ab", "password": "longenough"}, http.StatusBadRequest, "username must be 3-24 chars")

	var me auth.User
	if got := h.do(t, c, http.MethodGet, "/auth/me", nil, &me); got != http.StatusOK || me.Username != "wordsmith" {
		t.Fatalf("me = %d %+v", got, me)
	}

	var mine []repository.ResultRecord
	if got := h.do(t, c, http.MethodGet, "/quiz/mine", nil, &mine); got != http.StatusOK {
		t.Fatalf("mine = %d", got)
	}
	if len(mine) != 1 || mine[0].SessionID != v.ID {
		t.Errorf("mine = %+v, want the guest session", mine)
	}

	var stats struct {
		SessionsPlayed int   `json:"sessionsPlayed"`
		TotalScore     int64 `json:"totalScore"`
		BestStreak     int   `json:"bestStreak"`
	}
	if got := h.do(t, c, http.MethodGet, "/stats/me", nil, &stats); got != http.StatusOK {
		t.Fatalf("stats = %d", got)
	}
	if stats.SessionsPlayed != 1 || stats.TotalScore != int64(mine[0].Score) || stats.BestStreak != 1 {
		t.Errorf("stats = %+v", stats)
	}

	if got := h.do(t, c, http.MethodPost, "/auth/logout", nil, nil); got != http.StatusOK {
		t.Errorf("logout = %d", got)
	}
	h.expectError(t, c, http.MethodGet, "/stats/me", nil, http.StatusUnauthorized, "unauthorized")

	h.expectError(t, c, http.MethodPost, "/auth/login",
		map[string]string{"username": "wordsmith", "password": "wrong-password"}, http.StatusUnauthorized, "invalid_credentials")
	h.expectError(t, c, http.MethodPost, "/auth/login",
		map[string]string{"username": "nobody", "password": "longenough"}, http.StatusUnauthorized, "invalid_credentials")
	if got := h.do(t, c, http.MethodPost, "/auth/login", map[string]string{"username": "WORDSMITH", "password": "longenough"}, nil); got != http.StatusOK {
		t.Errorf("login = %d", got)
	}
	if got := h.do(t, c, http.MethodGet, "/auth/me", nil, &me); got != http.StatusOK {
		t.Errorf("me after login = %d", got)
	}
}

func TestDaily_OncePerDayAndLeaderboard(t *testing.T) {
	h := setupServer(t)
	alice, bob := h.client(t), h.client(t)

	var a service.View
	if got := h.do(t, alice, http.MethodPost, "/daily/sessions", nil, &a); got != http.StatusOK {
		t.Fatalf("daily = %d", got)
	}
	if a.Kind != quiz.KindDaily || a.DailyDate != daily.DateKey(time.Now()) || a.TotalQuestions != 3 {
		t.Fatalf("daily view = %+v", a)
	}

	var resumed service.View
	if got := h.do(t, alice, http.MethodPost, "/daily/sessions", nil, &resumed); got != http.StatusOK || resumed.ID != a.ID {
		t.Errorf("second daily = %d %s, want resume of %s", got, resumed.ID, a.ID)
	}

	var b service.View
	if got := h.do(t, bob, http.MethodPost, "/daily/sessions", nil, &b); got != http.StatusOK {
		t.Fatalf("bob daily = %d", got)
	}
	if b.ID == a.ID || b.Current == nil || b.Current.ID != a.Current.ID {
		t.Errorf("players got different daily questions: %+v vs %+v", a.Current, b.Current)
	}

	h.playAll(t, alice, a)
	h.expectError(t, alice, http.MethodPost, "/daily/sessions", nil, http.StatusConflict, "already_played")

	var lb struct {
		Date string        `json:"date"`
		Rows []daily.LBRow `json:"rows"`
	}
	if got := h.do(t, bob, http.MethodGet, "/daily/leaderboard", nil, &lb); got != http.StatusOK {
		t.Fatalf("leaderboard = %d", got)
	}
	if lb.Date != a.DailyDate || len(lb.Rows) != 1 || lb.Rows[0].Rank != 1 || lb.Rows[0].CorrectAnswers != 3 {
		t.Errorf("leaderboard = %+v", lb)
	}

	h.expectError(t, bob, http.MethodGet, "/daily/leaderboard?date=yesterday", nil, http.StatusBadRequest, "invalid_date")
	h.expectError(t, bob, http.MethodGet, "/daily/leaderboard?limit=0", nil, http.StatusBadRequest, "invalid_limit")
}
