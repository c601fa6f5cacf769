package player

import (
	"context"
	"errors"
)

// ProgressFunc forwards a delta to the profile store.
type ProgressFunc func(ctx context.Context, r Report) error

// Listener receives the host-page callbacks.
type Listener interface {
	OnProgress(ctx context.Context, minutesWatched int)
	OnQuizComplete(ctx context.Context, correct, total int)
	OnComplete(ctx context.Context)
}

// Reporter fans drained events out to the profile store and a Listener.
// Store failures never stop delivery; they are returned as a message.
type Reporter struct {
	update   ProgressFunc
	listener Listener
}

func NewReporter(update ProgressFunc, listener Listener) *Reporter {
	return &Reporter{update: update, listener: listener}
}

// Dispatch delivers events in order and returns the joined store error
// messages, or "" when every report succeeded.
func (r *Reporter) Dispatch(ctx context.Context, events []Event) string {
	var errs []error
	for _, e := range events {
		if r.update != nil && !e.Report.IsZero() {
			if err := r.update(ctx, e.Report); err != nil {
				errs = append(errs, err)
			}
		}
		if r.listener == nil {
			continue
		}
		switch e.Kind {
		case EventProgress:
			r.listener.OnProgress(ctx, e.MinutesWatched)
		case EventQuizComplete:
			r.listener.OnQuizComplete(ctx, e.Correct, e.Total)
		case EventComplete:
			r.listener.OnComplete(ctx)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err.Error()
	}
	return ""
}
