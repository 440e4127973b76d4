package quiz

import (
	"fmt"
	"strings"
	"time"
)

// Evaluate checks one answer to word and returns the answer record and its feedback.
//
// An answer is correct only when every non-blank item credits a distinct
// synonym and enough synonyms are named for the mode: all of them for
// MatchExact, at least one for MatchPartial. Points are left at zero;
// the session applies the scoring increment.
func Evaluate(word Word, answer []string, mode MatchMode, hintsUsed int, at time.Time) (QuizAnswer, AnswerFeedback) {
	m := MatchSynonyms(word.Synonyms, answer)
	correct := isCorrect(m, mode, distinctCount(word.Synonyms))

	qa := QuizAnswer{
		WordID:          word.ID,
		UserAnswer:      append([]string{}, answer...),
		CorrectSynonyms: append([]string{}, word.Synonyms...),
		IsCorrect:       correct,
		Timestamp:       at,
		HintsUsed:       hintsUsed,
	}
	return qa, buildFeedback(word.Word, qa, m, mode)
}

// FeedbackFor rebuilds the feedback of a recorded answer. The verdict is
// taken from the record, so it never disagrees with what was scored.
func FeedbackFor(word string, qa QuizAnswer, mode MatchMode) AnswerFeedback {
	return buildFeedback(word, qa, MatchSynonyms(qa.CorrectSynonyms, qa.UserAnswer), mode)
}

func isCorrect(m MatchResult, mode MatchMode, canonical int) bool {
	if m.Matched == 0 || m.Matched != len(m.Items) {
		return false
	}
	if mode == MatchExact {
		return m.Matched >= canonical
	}
	return true
}

func buildFeedback(word string, qa QuizAnswer, m MatchResult, mode MatchMode) AnswerFeedback {
	fb := AnswerFeedback{
		WordID:         qa.WordID,
		Word:           word,
		IsCorrect:      qa.IsCorrect,
		CorrectAnswers: qa.CorrectSynonyms,
		UserAnswer:     qa.UserAnswer,
		Items:          m.Items,
		Missing:        m.Missing,
	}
	switch {
	case len(m.Items) == 0:
		fb.Status = StatusNoAnswer
	case qa.IsCorrect:
		fb.Status = StatusCorrect
	default:
		fb.Status = StatusIncorrect
	}
	fb.Explanation = explain(word, fb, mode)
	return fb
}

// explain renders the templated explanation for a verdict.
func explain(word string, fb AnswerFeedback, mode MatchMode) string {
	var unmatched, dupes []string
	for _, it := range fb.Items {
		switch it.Status {
		case ItemUnmatched:
			unmatched = append(unmatched, strings.TrimSpace(it.Input))
		case ItemDuplicate:
			dupes = append(dupes, strings.TrimSpace(it.Input))
		}
	}

	var b strings.Builder
	switch fb.Status {
	case StatusNoAnswer:
		fmt.Fprintf(&b, "No answer given for %q.", word)
	case StatusCorrect:
		fmt.Fprintf(&b, "Correct! %q", word)
		if len(fb.Missing) > 0 {
			fmt.Fprintf(&b, " also means: %s.", strings.Join(fb.Missing, ", "))
		} else {
			b.WriteString(" - every synonym named.")
		}
	default:
		b.WriteString("Not quite.")
		if len(unmatched) > 0 {
			fmt.Fprintf(&b, " Not a synonym of %q: %s.", word, strings.Join(unmatched, ", "))
		}
		if len(dupes) > 0 {
			fmt.Fprintf(&b, " Repeated: %s.", strings.Join(dupes, ", "))
		}
		if mode == MatchExact && len(fb.Missing) > 0 {
			fmt.Fprintf(&b, " Missing: %s.", strings.Join(fb.Missing, ", "))
		}
	}
	if fb.Status != StatusCorrect {
		fmt.Fprintf(&b, " Accepted answers: %s.", strings.Join(fb.CorrectAnswers, ", "))
	}
	return b.String()
}
