// internal/quiz/session.go
//
// Session state machine for a single quiz run.
// Responsibilities:
//   - Build a session from GameSettings by sampling word ids without replacement.
//   - Accept answers strictly in question order and score them.
//   - Track state transitions: created → in_progress → completed.
//
// Notes:
//   - A Session is not safe for concurrent use; callers serialize on its id.
//   - Rejected calls never touch answers, score or currentIndex.
package quiz

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Kind tags how a session was created.
type Kind string

const (
	KindStandard Kind = "standard"
	KindDaily    Kind = "daily"
)

// Meta carries caller-owned labels that do not affect gameplay.
type Meta struct {
	Kind      Kind   `json:"kind"`
	DailyDate string `json:"dailyDate,omitempty"`
}

// Session holds the state of one quiz run.
type Session struct {
	id        string
	ownerID   string
	settings  GameSettings
	words     []string // question order, fixed at creation
	questions []Word   // snapshots aligned with words
	hints     []int    // hints requested per question
	current   int
	answers   []QuizAnswer
	score     int
	state     State
	startTime time.Time
	endTime   *time.Time
	recorded  bool

	Meta Meta
}

// NewSession selects settings.NumberOfQuestions words from pool and builds a
// session owned by ownerID. The pool is filtered by difficulty and category
// first; rng decides which words are picked and in what order.
func NewSession(ownerID string, settings GameSettings, pool []Word, rng *rand.Rand, now time.Time) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	settings.Categories = append([]string(nil), settings.Categories...)

	eligible := Filter(pool, settings)
	n := settings.NumberOfQuestions
	if len(eligible) < n {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientWords, n, len(eligible))
	}

	s := &Session{
		id:        uuid.NewString(),
		ownerID:   ownerID,
		settings:  settings,
		words:     make([]string, 0, n),
		questions: make([]Word, 0, n),
		hints:     make([]int, n),
		answers:   make([]QuizAnswer, 0, n),
		state:     StateCreated,
		startTime: now,
		Meta:      Meta{Kind: KindStandard},
	}
	for _, i := range rng.Perm(len(eligible))[:n] {
		w := eligible[i]
		w.Synonyms = append([]string(nil), w.Synonyms...)
		s.words = append(s.words, w.ID)
		s.questions = append(s.questions, w)
	}
	return s, nil
}

// Filter returns the words of pool that satisfy the difficulty and category
// filters of settings. Category matching ignores case.
func Filter(pool []Word, settings GameSettings) []Word {
	cats := make(map[string]struct{}, len(settings.Categories))
	for _, c := range settings.Categories {
		cats[Normalize(c)] = struct{}{}
	}
	out := make([]Word, 0, len(pool))
	for _, w := range pool {
		if settings.Difficulty != DifficultyMixed && w.Difficulty != settings.Difficulty {
			continue
		}
		if len(cats) > 0 {
			if _, ok := cats[Normalize(w.Category)]; !ok {
				continue
			}
		}
		if len(w.Synonyms) == 0 {
			continue
		}
		out = append(out, w)
	}
	return out
}

// SubmitAnswer evaluates answer for the current question. wordID must be the
// id of that question. On the last question the session completes and
// endTime is stamped.
func (s *Session) SubmitAnswer(wordID string, answer []string, at time.Time) (QuizAnswer, AnswerFeedback, error) {
	if s.state == StateCompleted || s.current >= len(s.words) {
		return QuizAnswer{}, AnswerFeedback{}, fmt.Errorf("%w: session %s", ErrSessionCompleted, s.id)
	}
	if wordID != s.words[s.current] {
		return QuizAnswer{}, AnswerFeedback{}, fmt.Errorf("%w: expected word %s, got %s", ErrOutOfOrder, s.words[s.current], wordID)
	}

	word := s.questions[s.current]
	qa, fb := Evaluate(word, answer, s.settings.Mode(), s.hints[s.current], at)
	qa.Points = PointsFor(word.Difficulty, qa.IsCorrect, qa.HintsUsed)

	s.answers = append(s.answers, qa)
	s.score += qa.Points
	s.current++
	if s.state == StateCreated {
		s.state = StateInProgress
	}
	if s.current == len(s.words) {
		s.complete(at)
	}
	return qa, fb, nil
}

// Finish force-completes the session, e.g. when its time limit runs out.
// Unanswered questions stay unanswered. It reports whether the call changed
// the state; finishing a completed session is a no-op.
func (s *Session) Finish(at time.Time) bool {
	if s.state == StateCompleted {
		return false
	}
	s.complete(at)
	return true
}

func (s *Session) complete(at time.Time) {
	end := at
	s.endTime = &end
	s.state = StateCompleted
}

// Expired reports whether the session's time limit has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return s.settings.TimeLimit > 0 && s.state != StateCompleted &&
		now.Sub(s.startTime) > s.settings.TimeLimit
}

// Deadline is the instant the time limit runs out. ok is false for
// untimed sessions.
func (s *Session) Deadline() (deadline time.Time, ok bool) {
	if s.settings.TimeLimit <= 0 {
		return time.Time{}, false
	}
	return s.startTime.Add(s.settings.TimeLimit), true
}

// Result summarizes the session as of now.
func (s *Session) Result(now time.Time) QuizResult {
	words := make(map[string]string, len(s.questions))
	for _, w := range s.questions {
		words[w.ID] = w.Word
	}
	return Summarize(s.id, s.answers, len(s.words), words, s.settings.Mode(), s.startTime, s.endTime, now)
}

// Outcomes returns one counter update per answer, for the word store.
func (s *Session) Outcomes() []Outcome {
	out := make([]Outcome, 0, len(s.answers))
	for _, a := range s.answers {
		out = append(out, Outcome{WordID: a.WordID, IsCorrect: a.IsCorrect, ReviewedAt: a.Timestamp})
	}
	return out
}

// MarkRecorded notes that the completion side effects have been persisted.
func (s *Session) MarkRecorded() { s.recorded = true }

// Recorded reports whether MarkRecorded was called.
func (s *Session) Recorded() bool { return s.recorded }

func (s *Session) ID() string             { return s.id }
func (s *Session) OwnerID() string        { return s.ownerID }
func (s *Session) Settings() GameSettings { return s.settings }
func (s *Session) State() State           { return s.state }
func (s *Session) CurrentIndex() int      { return s.current }
func (s *Session) TotalQuestions() int    { return len(s.words) }
func (s *Session) Score() int             { return s.score }
func (s *Session) StartTime() time.Time   { return s.startTime }

// EndTime returns the completion time, or nil while the session is open.
func (s *Session) EndTime() *time.Time {
	if s.endTime == nil {
		return nil
	}
	t := *s.endTime
	return &t
}

// WordIDs returns a copy of the question order.
func (s *Session) WordIDs() []string { return append([]string(nil), s.words...) }

// Answers returns a copy of the answer history.
func (s *Session) Answers() []QuizAnswer { return append([]QuizAnswer(nil), s.answers...) }

// CurrentWord returns the question at currentIndex, if any remain.
func (s *Session) CurrentWord() (Word, bool) {
	if s.state == StateCompleted || s.current >= len(s.questions) {
		return Word{}, false
	}
	return s.questions[s.current], true
}

// HintsAt returns the hints requested for question i.
func (s *Session) HintsAt(i int) int {
	if i < 0 || i >= len(s.hints) {
		return 0
	}
	return s.hints[i]
}

// String implements fmt.Stringer for logging.
func (s *Session) String() string {
	return fmt.Sprintf("session %s [%s] %d/%d score=%d", s.id, s.state, s.current, len(s.words), s.score)
}
