package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/learnpulse/learnpulse-backend/internal/data/repos"
	types "github.com/learnpulse/learnpulse-backend/internal/domain"
	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/media"
	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/player"
	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/segments"
	"github.com/learnpulse/learnpulse-backend/internal/platform/apierr"
	"github.com/learnpulse/learnpulse-backend/internal/platform/dbctx"
	"github.com/learnpulse/learnpulse-backend/internal/realtime"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func apply(t *testing.T, f *fixture, userID, sessionID uuid.UUID, ev PlaybackEvent) *PlaybackEventResult {
	t.Helper()
	res, err := f.playback.ApplyEvent(bg(), userID, sessionID, ev)
	require.NoError(t, err, "event %s", ev.Type)
	return res
}

func answerAll(t *testing.T, f *fixture, userID, sessionID uuid.UUID, quiz []types.QuizQuestion, correct bool) *PlaybackEventResult {
	t.Helper()
	for i, q := range quiz {
		a := q.CorrectAnswerIndex
		if !correct {
			a = (a + 1) % len(q.Options)
		}
		apply(t, f, userID, sessionID, PlaybackEvent{Type: EventSelectAnswer, Question: ip(i), Answer: ip(a)})
	}
	return apply(t, f, userID, sessionID, PlaybackEvent{Type: EventSubmitQuiz})
}

func createLecture(t *testing.T, f *fixture, userID uuid.UUID, title string, duration float64) *LectureView {
	t.Helper()
	lv, err := f.lectures.CreateLecture(bg(), userID, CreateLectureInput{
		Title:           title,
		VideoURL:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		DurationSeconds: duration,
	})
	require.NoError(t, err)
	return lv
}

func TestPlaybackFullLecture(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	lv := createLecture(t, f, userID, "React Hooks", 250)
	segs := segments.NewGenerator(segments.DefaultLibrary(nil)).Generate(250, "React Hooks")
	require.Len(t, segs, 3)

	sv, resumed, err := f.playback.StartSession(bg(), userID, lv.ID)
	require.NoError(t, err)
	require.False(t, resumed)
	require.Equal(t, player.PhaseIdle, sv.Player.Phase)
	require.Equal(t, 3, sv.Player.TotalSegments)

	apply(t, f, userID, sv.ID, PlaybackEvent{Type: EventPlay})
	res := apply(t, f, userID, sv.ID, PlaybackEvent{Type: EventTick, Count: 60})
	require.Len(t, res.Events, 1)
	require.Equal(t, player.EventProgress, res.Events[0].Kind)

	res = apply(t, f, userID, sv.ID, PlaybackEvent{Type: EventTimeUpdate, CurrentTime: fp(120)})
	require.Equal(t, player.PhaseQuizOpen, res.Session.Player.Phase)
	require.True(t, res.Session.Player.QuizVisible)
	require.Nil(t, res.Session.Player.Segment.Quiz[0].CorrectAnswerIndex)

	// wrong answers: failed gate, no advance
	res = answerAll(t, f, userID, sv.ID, segs[0].Quiz, false)
	require.Equal(t, player.PhaseQuizFailed, res.Session.Player.Phase)
	require.Equal(t, 0, res.Session.Player.ActiveSegment)
	require.Len(t, res.Events, 1)
	require.Equal(t, 0, res.Events[0].Correct)
	require.NotNil(t, res.Session.Player.Segment.Quiz[0].CorrectAnswerIndex)

	_, err = f.playback.ApplyEvent(bg(), userID, sv.ID, PlaybackEvent{Type: EventSelectAnswer, Question: ip(0), Answer: ip(0)})
	ae, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, 409, ae.Status)

	apply(t, f, userID, sv.ID, PlaybackEvent{Type: EventRetry})
	res = answerAll(t, f, userID, sv.ID, segs[0].Quiz, true)
	require.Equal(t, player.PhasePaused, res.Session.Player.Phase)
	require.Equal(t, 1, res.Session.Player.ActiveSegment)
	require.Equal(t, 120.0, res.Session.Player.CurrentTime)

	apply(t, f, userID, sv.ID, PlaybackEvent{Type: EventTimeUpdate, CurrentTime: fp(240)})
	answerAll(t, f, userID, sv.ID, segs[1].Quiz, true)
	apply(t, f, userID, sv.ID, PlaybackEvent{Type: EventTimeUpdate, CurrentTime: fp(250)})
	res = answerAll(t, f, userID, sv.ID, segs[2].Quiz, true)

	require.Equal(t, player.PhaseFinished, res.Session.Player.Phase)
	require.NotNil(t, res.Session.CompletedAt)
	kinds := []player.EventKind{}
	for _, e := range res.Events {
		kinds = append(kinds, e.Kind)
	}
	require.Equal(t, []player.EventKind{player.EventQuizComplete, player.EventComplete}, kinds)

	_, err = f.playback.ApplyEvent(bg(), userID, sv.ID, PlaybackEvent{Type: EventPlay})
	require.Error(t, err)

	p, err := f.profiles.GetProfile(bg(), userID)
	require.NoError(t, err)
	// 4 submissions x 3 questions; 9 correct x 25 XP + 200 bonus
	require.Equal(t, 12, p.ProblemsSolved)
	require.Equal(t, 1, p.StudyMinutes)
	require.Equal(t, 9*25+200, p.XP)

	codes, err := f.repos.UserAchievement.Codes(bg(), userID)
	require.NoError(t, err)
	require.True(t, codes[AchievementLectureComplete])

	require.Contains(t, f.emitter.events(), realtime.SSEEventPlaybackComplete)
	require.Contains(t, f.emitter.events(), realtime.SSEEventPlaybackQuizComplete)
	require.Contains(t, f.emitter.events(), realtime.SSEEventPlaybackProgress)

	next, resumed, err := f.playback.StartSession(bg(), userID, lv.ID)
	require.NoError(t, err)
	require.False(t, resumed)
	require.NotEqual(t, sv.ID, next.ID)
}

func TestStartSessionResumesUnfinished(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	lv := createLecture(t, f, userID, "Python basics", 300)

	first, _, err := f.playback.StartSession(bg(), userID, lv.ID)
	require.NoError(t, err)
	apply(t, f, userID, first.ID, PlaybackEvent{Type: EventPlay})

	again, resumed, err := f.playback.StartSession(bg(), userID, lv.ID)
	require.NoError(t, err)
	require.True(t, resumed)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, player.PhasePlaying, again.Player.Phase)
}

func TestLoadedMetadataRecordsLectureDuration(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	lv := createLecture(t, f, userID, "Web basics", 0)
	require.NotNil(t, lv.Source)
	require.Equal(t, media.KindEmbed, lv.Source.Kind)
	require.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ?enablejsapi=1&origin=http%3A%2F%2Flocalhost%3A5173", lv.Source.URL)

	sv, _, err := f.playback.StartSession(bg(), userID, lv.ID)
	require.NoError(t, err)
	require.Equal(t, 0, sv.Player.TotalSegments)

	_, err = f.playback.ApplyEvent(bg(), userID, sv.ID, PlaybackEvent{Type: EventRewatch})
	ae, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, 409, ae.Status)

	res := apply(t, f, userID, sv.ID, PlaybackEvent{Type: EventLoadedMetadata, Duration: fp(300)})
	require.Equal(t, 3, res.Session.Player.TotalSegments)

	got, err := f.lectures.GetLecture(bg(), userID, lv.ID)
	require.NoError(t, err)
	require.Equal(t, 300.0, got.DurationSeconds)
	require.Equal(t, 3, got.TotalSegments)

	_, err = f.playback.ApplyEvent(bg(), userID, sv.ID, PlaybackEvent{Type: EventLoadedMetadata, Duration: fp(400)})
	ae, ok = apierr.As(err)
	require.True(t, ok)
	require.Equal(t, 409, ae.Status)
}

func TestApplyEventValidation(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	lv := createLecture(t, f, userID, "JS", 120)
	sv, _, err := f.playback.StartSession(bg(), userID, lv.ID)
	require.NoError(t, err)

	for _, ev := range []PlaybackEvent{
		{Type: "jump"},
		{Type: EventTimeUpdate},
		{Type: EventLoadedMetadata},
		{Type: EventTick, Count: 5000},
		{Type: EventSelectAnswer, Question: ip(0)},
	} {
		_, err := f.playback.ApplyEvent(bg(), userID, sv.ID, ev)
		ae, ok := apierr.As(err)
		require.True(t, ok, "event %+v", ev)
		require.Equal(t, 400, ae.Status, "event %+v", ev)
		require.ErrorIs(t, err, player.ErrInvalidEvent)
	}

	_, err = f.playback.ApplyEvent(bg(), uuid.New(), sv.ID, PlaybackEvent{Type: EventPlay})
	ae, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, 404, ae.Status)

	_, err = f.playback.GetSession(bg(), uuid.New(), sv.ID)
	require.Error(t, err)
}

// failingProgress stands in for an unavailable profile store.
type failingProgress struct{ ProfileService }

func (failingProgress) UpdateProgress(dbctx.Context, uuid.UUID, int, int, int) (*types.Profile, error) {
	return nil, errors.New("profile store unavailable")
}

func TestProgressFailureBecomesMessage(t *testing.T) {
	f := newFixture(t)
	f.playback.profiles = failingProgress{f.profiles}
	userID := uuid.New()
	lv := createLecture(t, f, userID, "Data science 101", 120)
	sv, _, err := f.playback.StartSession(bg(), userID, lv.ID)
	require.NoError(t, err)

	apply(t, f, userID, sv.ID, PlaybackEvent{Type: EventPlay})
	res := apply(t, f, userID, sv.ID, PlaybackEvent{Type: EventTick, Count: 60})
	require.Equal(t, "profile store unavailable", res.Session.LastError)
	require.Equal(t, 60, res.Session.Player.WatchSeconds)

	got, err := f.playback.GetSession(bg(), userID, sv.ID)
	require.NoError(t, err)
	require.Equal(t, "profile store unavailable", got.LastError)
	require.Equal(t, 60, got.Player.WatchSeconds)
}

// failingSaveState loses the session write after progress was reported.
type failingSaveState struct{ repos.PlaybackSessionRepo }

func (failingSaveState) SaveState(dbctx.Context, uuid.UUID, string, datatypes.JSON, string, *time.Time) error {
	return errors.New("disk full")
}

func TestRolledBackEventSendsNoNotifications(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	lv := createLecture(t, f, userID, "React Hooks", 250)
	sv, _, err := f.playback.StartSession(bg(), userID, lv.ID)
	require.NoError(t, err)
	apply(t, f, userID, sv.ID, PlaybackEvent{Type: EventPlay})
	before := len(f.emitter.events())

	f.playback.sessions = failingSaveState{f.repos.PlaybackSession}
	_, err = f.playback.ApplyEvent(bg(), userID, sv.ID, PlaybackEvent{Type: EventTick, Count: 60})
	require.ErrorContains(t, err, "disk full")

	p, err := f.profiles.GetProfile(bg(), userID)
	require.NoError(t, err)
	require.Nil(t, p, "profile update must roll back with the event")
	require.Equal(t, before, len(f.emitter.events()), "events: %v", f.emitter.events())

	f.playback.sessions = f.repos.PlaybackSession
	apply(t, f, userID, sv.ID, PlaybackEvent{Type: EventTick, Count: 60})
	got := f.emitter.events()[before:]
	require.Contains(t, got, realtime.SSEEventProfileUpdated)
	require.Contains(t, got, realtime.SSEEventPlaybackProgress)
}
