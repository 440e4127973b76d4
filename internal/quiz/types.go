// internal/quiz/types.go
//
// Core type definitions for the synonym quiz engine.
// Defines:
//   - Word: a read-only question with its canonical synonym set.
//   - GameSettings: the immutable configuration of one session.
//   - QuizAnswer / AnswerFeedback: the record and explanation of one evaluated answer.
//   - QuizResult: the derived summary of a session.

package quiz

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// Difficulty of a word; "mixed" is only valid in GameSettings.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyMixed  Difficulty = "mixed"
)

// MatchMode selects how many synonyms an answer must name to count as correct.
type MatchMode string

const (
	// MatchPartial accepts an answer naming at least one synonym. It is the default.
	MatchPartial MatchMode = "partial"
	// MatchExact requires every canonical synonym.
	MatchExact MatchMode = "exact"
)

// State is the lifecycle position of a Session.
type State string

const (
	StateCreated    State = "created"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Word is one question. The engine never mutates it; the counters are
// maintained by the word store when a session completes.
type Word struct {
	ID             string     `json:"id"`
	Word           string     `json:"word"`
	Synonyms       []string   `json:"synonyms"`
	Difficulty     Difficulty `json:"difficulty"`
	Category       string     `json:"category,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	CorrectCount   int        `json:"correctCount"`
	IncorrectCount int        `json:"incorrectCount"`
	LastReviewed   *time.Time `json:"lastReviewed,omitempty"`
}

// GameSettings configures a session. A session keeps its own copy, so
// changing the caller's value after creation has no effect.
type GameSettings struct {
	Difficulty        Difficulty    `json:"difficulty" validate:"required,oneof=easy medium hard mixed"`
	NumberOfQuestions int           `json:"numberOfQuestions" validate:"min=1,max=100"`
	Categories        []string      `json:"categories,omitempty" validate:"omitempty,dive,required"`
	TimeLimit         time.Duration `json:"-"`
	HintsEnabled      bool          `json:"hintsEnabled"`
	MatchMode         MatchMode     `json:"matchMode,omitempty" validate:"omitempty,oneof=exact partial"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings against their struct tags.
func (gs GameSettings) Validate() error {
	if gs.TimeLimit < 0 {
		return errors.New("time limit must not be negative")
	}
	return validate.Struct(gs)
}

// gameSettingsJSON is the wire shape of GameSettings: the time limit
// travels as whole seconds.
type gameSettingsJSON struct {
	plainSettings
	TimeLimitSeconds int64 `json:"timeLimitSeconds,omitempty"`
}

type plainSettings GameSettings

// MarshalJSON writes the time limit as timeLimitSeconds.
func (gs GameSettings) MarshalJSON() ([]byte, error) {
	return json.Marshal(gameSettingsJSON{
		plainSettings:    plainSettings(gs),
		TimeLimitSeconds: int64(gs.TimeLimit / time.Second),
	})
}

// UnmarshalJSON reads timeLimitSeconds back into TimeLimit.
func (gs *GameSettings) UnmarshalJSON(b []byte) error {
	var v gameSettingsJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*gs = GameSettings(v.plainSettings)
	gs.TimeLimit = time.Duration(v.TimeLimitSeconds) * time.Second
	return nil
}

// Mode returns the effective match mode.
func (gs GameSettings) Mode() MatchMode {
	if gs.MatchMode == "" {
		return MatchPartial
	}
	return gs.MatchMode
}

// QuizAnswer is the immutable record of one evaluated question.
type QuizAnswer struct {
	WordID          string    `json:"wordId"`
	UserAnswer      []string  `json:"userAnswer"`
	CorrectSynonyms []string  `json:"correctSynonyms"`
	IsCorrect       bool      `json:"isCorrect"`
	Timestamp       time.Time `json:"timestamp"`
	HintsUsed       int       `json:"hintsUsed"`
	Points          int       `json:"points"`
}

// FeedbackStatus is the verdict of one answer.
type FeedbackStatus string

const (
	StatusCorrect   FeedbackStatus = "correct"
	StatusIncorrect FeedbackStatus = "incorrect"
	StatusNoAnswer  FeedbackStatus = "no_answer"
)

// ItemStatus classifies one submitted item.
type ItemStatus string

const (
	ItemMatched   ItemStatus = "matched"
	ItemDuplicate ItemStatus = "duplicate"
	ItemUnmatched ItemStatus = "unmatched"
)

// ItemFeedback explains one submitted item.
type ItemFeedback struct {
	Input   string     `json:"input"`
	Status  ItemStatus `json:"status"`
	Synonym string     `json:"synonym,omitempty"`
}

// AnswerFeedback explains the verdict on one answer.
type AnswerFeedback struct {
	WordID         string         `json:"wordId"`
	Word           string         `json:"word"`
	IsCorrect      bool           `json:"isCorrect"`
	Status         FeedbackStatus `json:"status"`
	CorrectAnswers []string       `json:"correctAnswers"`
	UserAnswer     []string       `json:"userAnswer"`
	Items          []ItemFeedback `json:"items"`
	Missing        []string       `json:"missing"`
	Explanation    string         `json:"explanation"`
}

// Achievement identifies an unlocked badge.
type Achievement string

const (
	AchievementFirstSteps Achievement = "first_steps"
	AchievementHotStreak  Achievement = "hot_streak"
	AchievementNoHints    Achievement = "no_hints"
	AchievementPerfectRun Achievement = "perfect_run"
	AchievementSpeedDemon Achievement = "speed_demon"
)

// Achievements lists every badge in evaluation order.
var Achievements = []Achievement{
	AchievementFirstSteps,
	AchievementHotStreak,
	AchievementNoHints,
	AchievementPerfectRun,
	AchievementSpeedDemon,
}

// QuizResult summarizes a session. It is always recomputable from the answers.
type QuizResult struct {
	SessionID        string           `json:"sessionId"`
	Score            int              `json:"score"`
	TotalQuestions   int              `json:"totalQuestions"`
	Answered         int              `json:"answered"`
	CorrectAnswers   int              `json:"correctAnswers"`
	IncorrectAnswers int              `json:"incorrectAnswers"`
	Unanswered       int              `json:"unanswered"`
	Streak           int              `json:"streak"`
	Accuracy         float64          `json:"accuracy"`
	TimeSpent        time.Duration    `json:"-"`
	TimeSpentMs      int64            `json:"timeSpentMs"`
	Achievements     []Achievement    `json:"achievements"`
	HintsUsed        int              `json:"hintsUsed"`
	Feedback         []AnswerFeedback `json:"feedback"`
	Partial          bool             `json:"partial"`
}

// Outcome is one per-answer counter update handed to the word store.
type Outcome struct {
	WordID     string
	IsCorrect  bool
	ReviewedAt time.Time
}
