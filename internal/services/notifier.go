package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/learnpulse/learnpulse-backend/internal/domain"
	"github.com/learnpulse/learnpulse-backend/internal/platform/ctxutil"
	"github.com/learnpulse/learnpulse-backend/internal/realtime"
)

// LearningNotifier pushes profile and playback changes to the user's SSE channel.
type LearningNotifier interface {
	ProfileUpdated(ctx context.Context, userID uuid.UUID, p *types.Profile)
	AchievementEarned(ctx context.Context, userID uuid.UUID, a *types.UserAchievement)
	PlaybackProgress(ctx context.Context, userID, sessionID uuid.UUID, minutesWatched int)
	PlaybackQuizComplete(ctx context.Context, userID, sessionID uuid.UUID, correct, total int)
	PlaybackComplete(ctx context.Context, userID, sessionID, lectureID uuid.UUID)
}

type learningNotifier struct {
	emit SSEEmitter
}

func NewLearningNotifier(emit SSEEmitter) LearningNotifier {
	return &learningNotifier{emit: emit}
}

func (n *learningNotifier) send(ctx context.Context, userID uuid.UUID, event realtime.SSEEvent, data map[string]any) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(ctxutil.Default(ctx), realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   event,
		Data:    data,
	})
}

func (n *learningNotifier) ProfileUpdated(ctx context.Context, userID uuid.UUID, p *types.Profile) {
	n.send(ctx, userID, realtime.SSEEventProfileUpdated, map[string]any{"profile": p})
}

func (n *learningNotifier) AchievementEarned(ctx context.Context, userID uuid.UUID, a *types.UserAchievement) {
	n.send(ctx, userID, realtime.SSEEventAchievementEarned, map[string]any{"achievement": a})
}

func (n *learningNotifier) PlaybackProgress(ctx context.Context, userID, sessionID uuid.UUID, minutesWatched int) {
	n.send(ctx, userID, realtime.SSEEventPlaybackProgress, map[string]any{
		"session_id":      sessionID,
		"minutes_watched": minutesWatched,
	})
}

func (n *learningNotifier) PlaybackQuizComplete(ctx context.Context, userID, sessionID uuid.UUID, correct, total int) {
	n.send(ctx, userID, realtime.SSEEventPlaybackQuizComplete, map[string]any{
		"session_id":      sessionID,
		"correct_count":   correct,
		"total_questions": total,
	})
}

func (n *learningNotifier) PlaybackComplete(ctx context.Context, userID, sessionID, lectureID uuid.UUID) {
	n.send(ctx, userID, realtime.SSEEventPlaybackComplete, map[string]any{
		"session_id": sessionID,
		"lecture_id": lectureID,
	})
}

// sessionListener adapts the notifier to the player's host-page callbacks.
type sessionListener struct {
	n         LearningNotifier
	userID    uuid.UUID
	sessionID uuid.UUID
	lectureID uuid.UUID
}

func (l *sessionListener) OnProgress(ctx context.Context, minutesWatched int) {
	l.n.PlaybackProgress(ctx, l.userID, l.sessionID, minutesWatched)
}

func (l *sessionListener) OnQuizComplete(ctx context.Context, correct, total int) {
	l.n.PlaybackQuizComplete(ctx, l.userID, l.sessionID, correct, total)
}

func (l *sessionListener) OnComplete(ctx context.Context) {
	l.n.PlaybackComplete(ctx, l.userID, l.sessionID, l.lectureID)
}
