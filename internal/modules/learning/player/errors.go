package player

import "errors"

var (
	ErrQuizOpen            = errors.New("quiz is open")
	ErrQuizNotOpen         = errors.New("no quiz is open")
	ErrRetryRequired       = errors.New("quiz results are showing; retry first")
	ErrNothingToRetry      = errors.New("no failed quiz to retry")
	ErrUnansweredQuestions = errors.New("every question must be answered")
	ErrInvalidAnswer       = errors.New("invalid question or answer index")
	ErrFinished            = errors.New("lecture already finished")
	ErrNoSegments          = errors.New("segments not generated yet")
	ErrMetadataLoaded      = errors.New("media duration already known")
	ErrInvalidEvent        = errors.New("invalid playback event")
)

// IsConflict reports whether err is a transition rejected by the current phase,
// as opposed to a malformed request.
func IsConflict(err error) bool {
	switch {
	case errors.Is(err, ErrQuizOpen),
		errors.Is(err, ErrQuizNotOpen),
		errors.Is(err, ErrRetryRequired),
		errors.Is(err, ErrNothingToRetry),
		errors.Is(err, ErrFinished),
		errors.Is(err, ErrNoSegments),
		errors.Is(err, ErrMetadataLoaded):
		return true
	}
	return false
}
