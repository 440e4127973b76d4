// internal/service/service.go
//
// QuizService is the single caller of the quiz engine.
// Responsibilities:
//   - Fetch candidate words and create sessions (standard and daily).
//   - Serialize every mutation of a session on its id; different sessions
//     proceed in parallel.
//   - Enforce time limits by force-finishing expired sessions.
//   - Record completion side effects once: batched word counters, then the
//     result summary. Failures are logged and retried on the next read.
//   - Hide sessions from callers that do not own them.
//   - Evict recorded sessions after a grace period, and open sessions that
//     were abandoned (see Sweep).

package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/synquiz/internal/daily"
	"github.com/robalobadob/synquiz/internal/quiz"
	"github.com/robalobadob/synquiz/internal/repository"
	"github.com/robalobadob/synquiz/internal/store"
)

// ErrAlreadyPlayed is returned by CreateDailySession when the owner has a
// recorded result for today's challenge.
var ErrAlreadyPlayed = errors.New("daily challenge already played")

// WordStore supplies candidate words and receives counter updates.
type WordStore interface {
	FetchWordsBySettings(ctx context.Context, settings quiz.GameSettings) ([]quiz.Word, error)
	RecordOutcomes(ctx context.Context, outcomes []quiz.Outcome) error
}

// ResultStore persists completed-session summaries.
type ResultStore interface {
	SaveResult(ctx context.Context, rec repository.ResultRecord) error
}

// DailyStore answers whether an owner already finished a daily challenge.
type DailyStore interface {
	AlreadyPlayed(ctx context.Context, ownerID, date string) (bool, error)
}

// QuizService coordinates sessions, storage and the engine.
type QuizService struct {
	words    WordStore
	results  ResultStore
	daily    DailyStore
	sessions store.Store

	entries sync.Map // session id -> *entry

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time

	dailySalt      string
	dailyQuestions int

	dailyMu     sync.Mutex
	dailyActive map[string]string // owner|date -> session id

	retention    time.Duration
	abandonAfter time.Duration
}

// entry serializes access to one session and tracks what has been persisted.
type entry struct {
	mu          sync.Mutex
	resultSaved bool
	doneAt      time.Time // all side effects persisted
	evicted     bool
}

// Defaults for WithRetention.
const (
	DefaultRetention    = 15 * time.Minute
	DefaultAbandonAfter = 24 * time.Hour
)

// Option configures a QuizService.
type Option func(*QuizService)

// WithRand sets the random source used to pick standard-session questions.
func WithRand(r *rand.Rand) Option {
	return func(q *QuizService) { q.rng = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(q *QuizService) { q.now = now }
}

// WithDaily enables the daily challenge. d may be nil, in which case
// replays are only prevented while the session is held in memory.
func WithDaily(d DailyStore, salt string, questions int) Option {
	return func(q *QuizService) {
		q.daily = d
		q.dailySalt = salt
		q.dailyQuestions = questions
	}
}

// WithRetention sets how long a recorded session stays readable before
// Sweep evicts it, and how long an open session may live before it is
// treated as abandoned. Non-positive values keep the defaults.
func WithRetention(recorded, abandoned time.Duration) Option {
	return func(q *QuizService) {
		if recorded > 0 {
			q.retention = recorded
		}
		if abandoned > 0 {
			q.abandonAfter = abandoned
		}
	}
}

// New creates a QuizService.
func New(words WordStore, results ResultStore, sessions store.Store, opts ...Option) *QuizService {
	q := &QuizService{
		words:          words,
		results:        results,
		sessions:       sessions,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		now:            time.Now,
		dailySalt:      "synquiz-daily",
		dailyQuestions: 10,
		dailyActive:    make(map[string]string),
		retention:      DefaultRetention,
		abandonAfter:   DefaultAbandonAfter,
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// CreateSession starts a standard session for ownerID.
func (q *QuizService) CreateSession(ctx context.Context, settings quiz.GameSettings, ownerID string) (View, error) {
	if err := settings.Validate(); err != nil {
		return View{}, fmt.Errorf("%w: %v", quiz.ErrInvalidSettings, err)
	}
	pool, err := q.words.FetchWordsBySettings(ctx, settings)
	if err != nil {
		return View{}, fmt.Errorf("fetch words: %w", err)
	}

	q.rngMu.Lock()
	s, err := quiz.NewSession(ownerID, settings, pool, q.rng, q.now())
	q.rngMu.Unlock()
	if err != nil {
		return View{}, err
	}
	return q.register(ctx, s)
}

// DailySettings are the fixed settings of the daily challenge.
func (q *QuizService) DailySettings() quiz.GameSettings {
	return quiz.GameSettings{
		Difficulty:        quiz.DifficultyMixed,
		NumberOfQuestions: q.dailyQuestions,
		HintsEnabled:      true,
		MatchMode:         quiz.MatchPartial,
	}
}

// CreateDailySession starts, or resumes, today's challenge for ownerID.
// Every owner gets the same questions in the same order on a given UTC day.
func (q *QuizService) CreateDailySession(ctx context.Context, ownerID string) (View, error) {
	now := q.now()
	date := daily.DateKey(now)
	key := ownerID + "|" + date

	q.dailyMu.Lock()
	defer q.dailyMu.Unlock()
	q.pruneDaily(date)

	if id, ok := q.dailyActive[key]; ok {
		v, err := q.Get(ctx, id, ownerID)
		switch {
		case err == nil && v.State != quiz.StateCompleted:
			return v, nil
		case err == nil:
			return View{}, ErrAlreadyPlayed
		case errors.Is(err, store.ErrNotFound):
			// evicted; the daily store decides below
			delete(q.dailyActive, key)
		default:
			return View{}, err
		}
	}
	if q.daily != nil {
		played, err := q.daily.AlreadyPlayed(ctx, ownerID, date)
		if err != nil {
			return View{}, fmt.Errorf("check daily: %w", err)
		}
		if played {
			return View{}, ErrAlreadyPlayed
		}
	}

	settings := q.DailySettings()
	pool, err := q.words.FetchWordsBySettings(ctx, settings)
	if err != nil {
		return View{}, fmt.Errorf("fetch words: %w", err)
	}
	s, err := quiz.NewSession(ownerID, settings, pool, daily.Rand(now, q.dailySalt), now)
	if err != nil {
		return View{}, err
	}
	s.Meta = quiz.Meta{Kind: quiz.KindDaily, DailyDate: date}

	v, err := q.register(ctx, s)
	if err != nil {
		return View{}, err
	}
	q.dailyActive[key] = s.ID()
	return v, nil
}

// pruneDaily drops resume pointers for days other than date.
// Must be called with dailyMu held.
func (q *QuizService) pruneDaily(date string) {
	suffix := "|" + date
	for k := range q.dailyActive {
		if !strings.HasSuffix(k, suffix) {
			delete(q.dailyActive, k)
		}
	}
}

func (q *QuizService) register(ctx context.Context, s *quiz.Session) (View, error) {
	if err := q.sessions.Save(ctx, s); err != nil {
		return View{}, fmt.Errorf("save session: %w", err)
	}
	q.entries.Store(s.ID(), &entry{})
	log.Info().
		Str("session", s.ID()).
		Str("owner", s.OwnerID()).
		Str("kind", string(s.Meta.Kind)).
		Int("questions", s.TotalQuestions()).
		Msg("quiz session created")
	return viewOf(s), nil
}

// withSession loads the session, checks ownership and runs fn while holding
// the session's lock. Expired sessions are finished before fn runs.
func (q *QuizService) withSession(ctx context.Context, id, ownerID string, fn func(s *quiz.Session, e *entry, now time.Time) error) error {
	v, ok := q.entries.Load(id)
	if !ok {
		return store.ErrNotFound
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return store.ErrNotFound
	}

	s, err := q.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.OwnerID() != ownerID {
		return store.ErrNotFound
	}
	now := q.now()
	expired := s.Expired(now)
	if expired {
		q.expire(ctx, s, e, now)
	}
	if err := fn(s, e, now); err != nil {
		if expired {
			_ = q.sessions.Save(ctx, s)
		}
		return err
	}
	return q.sessions.Save(ctx, s)
}

// expire finishes a timed-out session at its deadline, so idle time past
// the limit never counts as time spent, and records it.
// Must be called with e.mu held.
func (q *QuizService) expire(ctx context.Context, s *quiz.Session, e *entry, now time.Time) {
	deadline, _ := s.Deadline()
	s.Finish(deadline)
	log.Info().Str("session", s.ID()).Time("deadline", deadline).Msg("quiz session timed out")
	q.record(ctx, s, e, now)
}

// Get returns a snapshot of the session.
func (q *QuizService) Get(ctx context.Context, id, ownerID string) (View, error) {
	var v View
	err := q.withSession(ctx, id, ownerID, func(s *quiz.Session, _ *entry, _ time.Time) error {
		v = viewOf(s)
		return nil
	})
	return v, err
}

// AnswerOutcome is the result of SubmitAnswer.
type AnswerOutcome struct {
	Answer   quiz.QuizAnswer     `json:"answer"`
	Feedback quiz.AnswerFeedback `json:"feedback"`
	Session  View                `json:"session"`
}

// SubmitAnswer answers the current question of a session.
func (q *QuizService) SubmitAnswer(ctx context.Context, id, ownerID, wordID string, answer []string) (AnswerOutcome, error) {
	var out AnswerOutcome
	err := q.withSession(ctx, id, ownerID, func(s *quiz.Session, e *entry, now time.Time) error {
		qa, fb, err := s.SubmitAnswer(wordID, answer, now)
		if err != nil {
			return err
		}
		log.Debug().
			Str("session", id).
			Str("word", wordID).
			Bool("correct", qa.IsCorrect).
			Int("points", qa.Points).
			Msg("answer submitted")
		if s.State() == quiz.StateCompleted {
			q.record(ctx, s, e, now)
		}
		out = AnswerOutcome{Answer: qa, Feedback: fb, Session: viewOf(s)}
		return nil
	})
	return out, err
}

// HintOutcome is the result of RequestHint.
type HintOutcome struct {
	HintsUsed int    `json:"hintsUsed"`
	Hint      string `json:"hint"`
}

// RequestHint spends a hint on the current question.
func (q *QuizService) RequestHint(ctx context.Context, id, ownerID, wordID string) (HintOutcome, error) {
	var out HintOutcome
	err := q.withSession(ctx, id, ownerID, func(s *quiz.Session, _ *entry, _ time.Time) error {
		n, err := s.RequestHint(wordID)
		if err != nil {
			return err
		}
		w, _ := s.CurrentWord()
		out = HintOutcome{HintsUsed: n, Hint: quiz.HintText(w, n)}
		return nil
	})
	return out, err
}

// Finish ends a session early. Unanswered questions stay unanswered.
func (q *QuizService) Finish(ctx context.Context, id, ownerID string) (quiz.QuizResult, error) {
	var res quiz.QuizResult
	err := q.withSession(ctx, id, ownerID, func(s *quiz.Session, e *entry, now time.Time) error {
		if s.Finish(now) {
			log.Info().Str("session", id).Int("answered", s.CurrentIndex()).Msg("quiz session finished early")
		}
		q.record(ctx, s, e, now)
		res = s.Result(now)
		return nil
	})
	return res, err
}

// GetResult summarizes a session. Open sessions yield a partial result.
// Completion side effects that failed earlier are retried here.
func (q *QuizService) GetResult(ctx context.Context, id, ownerID string) (quiz.QuizResult, error) {
	var res quiz.QuizResult
	err := q.withSession(ctx, id, ownerID, func(s *quiz.Session, e *entry, now time.Time) error {
		q.record(ctx, s, e, now)
		res = s.Result(now)
		return nil
	})
	return res, err
}

// record persists the completion side effects of s at most once each.
// Must be called with e.mu held.
func (q *QuizService) record(ctx context.Context, s *quiz.Session, e *entry, now time.Time) {
	if s.State() != quiz.StateCompleted {
		return
	}
	if !s.Recorded() {
		if err := q.words.RecordOutcomes(ctx, s.Outcomes()); err != nil {
			log.Warn().Err(err).Str("session", s.ID()).Msg("record outcomes failed; will retry")
			return
		}
		s.MarkRecorded()
	}
	if e.resultSaved || q.results == nil {
		e.markDone(now)
		return
	}
	res := s.Result(now)
	if err := q.results.SaveResult(ctx, repository.RecordFor(s, res, now)); err != nil {
		log.Warn().Err(err).Str("session", s.ID()).Msg("save result failed; will retry")
		return
	}
	e.resultSaved = true
	e.markDone(now)
	log.Info().
		Str("session", s.ID()).
		Int("score", res.Score).
		Int("correct", res.CorrectAnswers).
		Int("total", res.TotalQuestions).
		Msg("quiz session recorded")
}

func (e *entry) markDone(now time.Time) {
	if e.doneAt.IsZero() {
		e.doneAt = now
	}
}

// Sweep finishes timed-out sessions, retries pending side effects and
// evicts sessions that are no longer needed: recorded sessions once the
// retention period has passed, open sessions once they are abandoned.
// It returns the number of evicted sessions.
func (q *QuizService) Sweep(ctx context.Context) int {
	evicted := 0
	q.entries.Range(func(k, v any) bool {
		if q.sweepOne(ctx, k.(string), v.(*entry)) {
			evicted++
		}
		return ctx.Err() == nil
	})
	if evicted > 0 {
		log.Info().Int("evicted", evicted).Msg("quiz sessions swept")
	}
	return evicted
}

func (q *QuizService) sweepOne(ctx context.Context, id string, e *entry) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return false
	}

	s, err := q.sessions.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return q.evict(ctx, id, e)
	}
	if err != nil {
		log.Warn().Err(err).Str("session", id).Msg("sweep: load session")
		return false
	}

	now := q.now()
	switch {
	case s.Expired(now):
		q.expire(ctx, s, e, now)
		if err := q.sessions.Save(ctx, s); err != nil {
			log.Warn().Err(err).Str("session", id).Msg("sweep: save session")
		}
		return false
	case s.State() == quiz.StateCompleted:
		q.record(ctx, s, e, now)
		if e.doneAt.IsZero() || now.Sub(e.doneAt) < q.retention {
			return false
		}
	case now.Sub(s.StartTime()) < q.abandonAfter:
		return false
	default:
		log.Info().Str("session", id).Int("answered", s.CurrentIndex()).Msg("quiz session abandoned")
	}
	return q.evict(ctx, id, e)
}

// evict drops a session from the store and the entry table.
// Must be called with e.mu held.
func (q *QuizService) evict(ctx context.Context, id string, e *entry) bool {
	if err := q.sessions.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Str("session", id).Msg("sweep: delete session")
		return false
	}
	e.evicted = true
	q.entries.Delete(id)
	return true
}

// RunSweeper calls Sweep every interval until ctx is done.
func (q *QuizService) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			q.Sweep(ctx)
		}
	}
}
