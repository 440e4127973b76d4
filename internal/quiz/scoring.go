package quiz

import (
	"math"
	"time"
)

// Scoring constants.
const (
	HintPenalty      = 0.25 // fraction of the base value lost per hint
	MinCorrectPoints = 10   // floor for a correct answer, however many hints
	HotStreakLength  = 5
	SpeedDemonPace   = 10 * time.Second // average per question
	SpeedDemonAcc    = 0.8
)

var basePoints = map[Difficulty]int{
	DifficultyEasy:   100,
	DifficultyMedium: 150,
	DifficultyHard:   200,
}

// BasePoints is the value of a correct, hint-free answer at difficulty d.
func BasePoints(d Difficulty) int {
	if p, ok := basePoints[d]; ok {
		return p
	}
	return basePoints[DifficultyEasy]
}

// PointsFor returns the score increment of one answer. Incorrect answers
// award nothing; each hint takes HintPenalty of the base value, never
// dropping a correct answer below MinCorrectPoints.
func PointsFor(d Difficulty, correct bool, hints int) int {
	if !correct {
		return 0
	}
	if hints < 0 {
		hints = 0
	}
	p := int(math.Round(float64(BasePoints(d)) * (1 - HintPenalty*float64(hints))))
	if p < MinCorrectPoints {
		return MinCorrectPoints
	}
	return p
}

// LongestStreak returns the longest run of consecutive correct answers.
func LongestStreak(answers []QuizAnswer) int {
	best, run := 0, 0
	for _, a := range answers {
		if !a.IsCorrect {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}

// Summarize reduces an answer history into a QuizResult. end is nil while
// the session is still open, in which case time is measured against now and
// the result is marked partial. words maps word ids to their text for the
// feedback explanations. The output depends only on its inputs.
func Summarize(sessionID string, answers []QuizAnswer, total int, words map[string]string, mode MatchMode, start time.Time, end *time.Time, now time.Time) QuizResult {
	res := QuizResult{
		SessionID:      sessionID,
		TotalQuestions: total,
		Answered:       len(answers),
		Unanswered:     total - len(answers),
		Streak:         LongestStreak(answers),
		Feedback:       make([]AnswerFeedback, 0, len(answers)),
		Achievements:   []Achievement{},
	}
	for _, a := range answers {
		res.Score += a.Points
		res.HintsUsed += a.HintsUsed
		if a.IsCorrect {
			res.CorrectAnswers++
		} else {
			res.IncorrectAnswers++
		}
		res.Feedback = append(res.Feedback, FeedbackFor(words[a.WordID], a, mode))
	}
	if res.Answered > 0 {
		res.Accuracy = float64(res.CorrectAnswers) / float64(res.Answered)
	}

	if end != nil {
		res.TimeSpent = end.Sub(start)
	} else {
		res.TimeSpent = now.Sub(start)
		res.Partial = true
	}
	if res.TimeSpent < 0 {
		res.TimeSpent = 0
	}
	res.TimeSpentMs = res.TimeSpent.Milliseconds()

	for _, a := range Achievements {
		if unlocked(a, res) {
			res.Achievements = append(res.Achievements, a)
		}
	}
	return res
}

// unlocked evaluates the threshold rule for one achievement.
func unlocked(a Achievement, r QuizResult) bool {
	complete := !r.Partial && r.TotalQuestions > 0 && r.Unanswered == 0
	switch a {
	case AchievementFirstSteps:
		return r.CorrectAnswers > 0
	case AchievementHotStreak:
		return r.Streak >= HotStreakLength
	case AchievementNoHints:
		return complete && r.HintsUsed == 0
	case AchievementPerfectRun:
		return complete && r.HintsUsed == 0 && r.CorrectAnswers == r.TotalQuestions
	case AchievementSpeedDemon:
		return complete && r.Accuracy >= SpeedDemonAcc &&
			r.TimeSpent <= SpeedDemonPace*time.Duration(r.TotalQuestions)
	}
	return false
}
