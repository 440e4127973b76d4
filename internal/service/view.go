package service

import (
	"time"

	"github.com/robalobadob/synquiz/internal/quiz"
)

// Prompt is the client-facing view of a question: no synonyms.
type Prompt struct {
	ID         string          `json:"id"`
	Word       string          `json:"word"`
	Difficulty quiz.Difficulty `json:"difficulty"`
	Category   string          `json:"category,omitempty"`
	HintsUsed  int             `json:"hintsUsed"`
}

// View is a read-only snapshot of a session taken under its lock.
type View struct {
	ID             string            `json:"id"`
	State          quiz.State        `json:"state"`
	Kind           quiz.Kind         `json:"kind"`
	DailyDate      string            `json:"dailyDate,omitempty"`
	Settings       quiz.GameSettings `json:"settings"`
	CurrentIndex   int               `json:"currentIndex"`
	TotalQuestions int               `json:"totalQuestions"`
	Score          int               `json:"score"`
	Current        *Prompt           `json:"current,omitempty"`
	StartTime      time.Time         `json:"startTime"`
	EndTime        *time.Time        `json:"endTime,omitempty"`
	ExpiresAt      *time.Time        `json:"expiresAt,omitempty"`
}

func viewOf(s *quiz.Session) View {
	v := View{
		ID:             s.ID(),
		State:          s.State(),
		Kind:           s.Meta.Kind,
		DailyDate:      s.Meta.DailyDate,
		Settings:       s.Settings(),
		CurrentIndex:   s.CurrentIndex(),
		TotalQuestions: s.TotalQuestions(),
		Score:          s.Score(),
		StartTime:      s.StartTime(),
		EndTime:        s.EndTime(),
	}
	if w, ok := s.CurrentWord(); ok {
		v.Current = &Prompt{
			ID:         w.ID,
			Word:       w.Word,
			Difficulty: w.Difficulty,
			Category:   w.Category,
			HintsUsed:  s.HintsAt(s.CurrentIndex()),
		}
	}
	if exp, ok := s.Deadline(); ok && v.State != quiz.StateCompleted {
		v.ExpiresAt = &exp
	}
	return v
}
