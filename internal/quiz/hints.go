package quiz

import (
	"fmt"
	"strings"
)

// RequestHint records a hint for the current question and returns the
// number of hints now used on it. wordID must be the current question.
func (s *Session) RequestHint(wordID string) (int, error) {
	if !s.settings.HintsEnabled {
		return 0, ErrHintsDisabled
	}
	if s.state == StateCompleted || s.current >= len(s.words) {
		return 0, fmt.Errorf("%w: session %s", ErrSessionCompleted, s.id)
	}
	if wordID != s.words[s.current] {
		return 0, fmt.Errorf("%w: expected word %s, got %s", ErrOutOfOrder, s.words[s.current], wordID)
	}
	s.hints[s.current]++
	return s.hints[s.current], nil
}

// HintText reveals the first n letters of the shortest synonym of w, masking
// the rest with underscores, e.g. "gl__" for "glad" after two hints.
func HintText(w Word, n int) string {
	if len(w.Synonyms) == 0 || n <= 0 {
		return ""
	}
	target := strings.TrimSpace(w.Synonyms[0])
	for _, syn := range w.Synonyms[1:] {
		if t := strings.TrimSpace(syn); len([]rune(t)) < len([]rune(target)) {
			target = t
		}
	}
	runes := []rune(target)
	if n > len(runes) {
		n = len(runes)
	}
	var b strings.Builder
	b.WriteString(string(runes[:n]))
	for _, r := range runes[n:] {
		if r == ' ' {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
