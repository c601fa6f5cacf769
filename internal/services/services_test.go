package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/learnpulse/learnpulse-backend/internal/data/repos"
	"github.com/learnpulse/learnpulse-backend/internal/data/repos/testutil"
	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/media"
	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/segments"
	"github.com/learnpulse/learnpulse-backend/internal/platform/dbctx"
	"github.com/learnpulse/learnpulse-backend/internal/realtime"
)

// recordingEmitter captures SSE messages instead of delivering them.
type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func (e *recordingEmitter) events() []realtime.SSEEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]realtime.SSEEvent, len(e.msgs))
	for i, m := range e.msgs {
		out[i] = m.Event
	}
	return out
}

type fixture struct {
	db           *gorm.DB
	repos        repos.Set
	emitter      *recordingEmitter
	profiles     *profileService
	achievements AchievementService
	lectures     LectureService
	playback     *playbackService
	clock        *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	em := &recordingEmitter{}
	notifier := NewLearningNotifier(em)

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	ach := NewAchievementService(db, log, set.UserAchievement, notifier)
	prof := NewProfileService(db, log, set.Profile, set.UserActivity, ach, notifier).(*profileService)
	prof.now = now
	gen := segments.NewGenerator(segments.DefaultLibrary(log))
	lec := NewLectureService(db, log, set.Lecture, gen, media.NewResolver("http://localhost:5173", nil, 0))
	pb := NewPlaybackService(db, log, set.PlaybackSession, set.Lecture, gen, prof, ach, notifier).(*playbackService)
	pb.now = now

	f := &fixture{
		db:           db,
		repos:        set,
		emitter:      em,
		profiles:     prof,
		achievements: ach,
		lectures:     lec,
		playback:     pb,
	}
	f.clock = &clock
	return f
}

func (f *fixture) setDay(t time.Time) {
	*f.clock = t
}

func bg() dbctx.Context { return dbctx.Context{Ctx: context.Background()} }
