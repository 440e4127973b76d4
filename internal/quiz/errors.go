package quiz

import "errors"

// Engine errors. Callers match them with errors.Is; the engine wraps them
// with detail using fmt.Errorf("%w: ...").
var (
	ErrInsufficientWords = errors.New("insufficient words")
	ErrOutOfOrder        = errors.New("answer out of order")
	ErrSessionCompleted  = errors.New("session completed")
	ErrHintsDisabled     = errors.New("hints disabled")
	ErrInvalidSettings   = errors.New("invalid settings")
)
