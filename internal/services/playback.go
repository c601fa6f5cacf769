package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/learnpulse/learnpulse-backend/internal/data/repos"
	types "github.com/learnpulse/learnpulse-backend/internal/domain"
	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/player"
	"github.com/learnpulse/learnpulse-backend/internal/observability"
	"github.com/learnpulse/learnpulse-backend/internal/platform/apierr"
	"github.com/learnpulse/learnpulse-backend/internal/platform/ctxutil"
	"github.com/learnpulse/learnpulse-backend/internal/platform/dbctx"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

type PlaybackEventType string

const (
	EventLoadedMetadata PlaybackEventType = "loaded_metadata"
	EventPlay           PlaybackEventType = "play"
	EventPause          PlaybackEventType = "pause"
	EventTick           PlaybackEventType = "tick"
	EventTimeUpdate     PlaybackEventType = "time_update"
	EventSelectAnswer   PlaybackEventType = "select_answer"
	EventSubmitQuiz     PlaybackEventType = "submit_quiz"
	EventRetry          PlaybackEventType = "retry"
	EventRewatch        PlaybackEventType = "rewatch"
)

func (t PlaybackEventType) Valid() bool {
	switch t {
	case EventLoadedMetadata, EventPlay, EventPause, EventTick, EventTimeUpdate,
		EventSelectAnswer, EventSubmitQuiz, EventRetry, EventRewatch:
		return true
	}
	return false
}

// PlaybackEvent is one player input. Only the fields its type needs are read.
type PlaybackEvent struct {
	Type        PlaybackEventType `json:"type"`
	Duration    *float64          `json:"duration,omitempty"`
	Count       int               `json:"count,omitempty"`
	CurrentTime *float64          `json:"current_time,omitempty"`
	Question    *int              `json:"question,omitempty"`
	Answer      *int              `json:"answer,omitempty"`
}

type PlaybackSessionView struct {
	ID          uuid.UUID   `json:"id"`
	LectureID   uuid.UUID   `json:"lecture_id"`
	Lecture     string      `json:"lecture_title"`
	Player      player.View `json:"player"`
	LastError   string      `json:"error,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type PlaybackEventResult struct {
	Session *PlaybackSessionView `json:"session"`
	Events  []player.Event       `json:"events"`
}

type PlaybackService interface {
	// StartSession resumes the newest unfinished session for the lecture or
	// opens a new one; resumed reports which.
	StartSession(dbc dbctx.Context, userID, lectureID uuid.UUID) (view *PlaybackSessionView, resumed bool, err error)
	GetSession(dbc dbctx.Context, userID, sessionID uuid.UUID) (*PlaybackSessionView, error)
	ApplyEvent(dbc dbctx.Context, userID, sessionID uuid.UUID, ev PlaybackEvent) (*PlaybackEventResult, error)
}

type playbackService struct {
	db           *gorm.DB
	log          *logger.Logger
	sessions     repos.PlaybackSessionRepo
	lectures     repos.LectureRepo
	source       player.SegmentSource
	profiles     ProfileService
	achievements AchievementService
	notifier     LearningNotifier
	now          func() time.Time
}

func NewPlaybackService(
	db *gorm.DB,
	log *logger.Logger,
	sessions repos.PlaybackSessionRepo,
	lectures repos.LectureRepo,
	source player.SegmentSource,
	profiles ProfileService,
	achievements AchievementService,
	notifier LearningNotifier,
) PlaybackService {
	if notifier == nil {
		notifier = NewLearningNotifier(nil)
	}
	return &playbackService{
		db:           db,
		log:          log.With("service", "PlaybackService"),
		sessions:     sessions,
		lectures:     lectures,
		source:       source,
		profiles:     profiles,
		achievements: achievements,
		notifier:     notifier,
		now:          time.Now,
	}
}

var (
	errSessionNotFound = apierr.NotFound("playback_session_not_found", errors.New("playback session not found"))
	errMissingField    = errors.New("missing field")
)

func (s *playbackService) StartSession(dbc dbctx.Context, userID, lectureID uuid.UUID) (*PlaybackSessionView, bool, error) {
	var (
		view    *PlaybackSessionView
		resumed bool
	)
	err := inTx(s.db, dbc, func(inner dbctx.Context) error {
		lecture, err := s.lectures.GetByID(inner, lectureID)
		if err != nil {
			return err
		}
		if lecture == nil || lecture.UserID != userID {
			return errLectureNotFound
		}
		row, err := s.sessions.LatestUnfinished(inner, userID, lectureID)
		if err != nil {
			return err
		}
		if row != nil {
			sess, err := s.restore(lecture, row)
			if err != nil {
				return err
			}
			view, resumed = s.sessionView(row, lecture, sess), true
			return nil
		}
		sess, err := player.New(s.source, lecture.Title, lecture.DurationSeconds)
		if err != nil {
			return err
		}
		snapshot, err := json.Marshal(sess.State())
		if err != nil {
			return err
		}
		row = &types.PlaybackSession{
			UserID:    userID,
			LectureID: lectureID,
			Phase:     string(sess.Phase()),
			State:     datatypes.JSON(snapshot),
		}
		if err := s.sessions.Create(inner, row); err != nil {
			return fmt.Errorf("create playback session: %w", err)
		}
		view = s.sessionView(row, lecture, sess)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return view, resumed, nil
}

func (s *playbackService) GetSession(dbc dbctx.Context, userID, sessionID uuid.UUID) (*PlaybackSessionView, error) {
	row, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if row == nil || row.UserID != userID {
		return nil, errSessionNotFound
	}
	lecture, err := s.lectures.GetByID(dbc, row.LectureID)
	if err != nil {
		return nil, err
	}
	if lecture == nil {
		return nil, errLectureNotFound
	}
	sess, err := s.restore(lecture, row)
	if err != nil {
		return nil, err
	}
	return s.sessionView(row, lecture, sess), nil
}

func (s *playbackService) ApplyEvent(dbc dbctx.Context, userID, sessionID uuid.UUID, ev PlaybackEvent) (*PlaybackEventResult, error) {
	ev.Type = PlaybackEventType(strings.ToLower(strings.TrimSpace(string(ev.Type))))
	metricType := string(ev.Type)
	if !ev.Type.Valid() {
		metricType = "unknown"
	}
	ctx, span := observability.Tracer().Start(ctxutil.Default(dbc.Ctx), "playback.ApplyEvent",
		trace.WithAttributes(
			attribute.String("playback.event", string(ev.Type)),
			attribute.String("playback.session_id", sessionID.String()),
		))
	defer span.End()
	dbc = dbctx.Context{Ctx: ctx, Tx: dbc.Tx}

	var (
		result   *PlaybackEventResult
		events   []player.Event
		listener *sessionListener
	)
	err := inTx(s.db, dbc, func(inner dbctx.Context) error {
		row, err := s.sessions.GetForUpdate(inner, sessionID)
		if err != nil {
			return err
		}
		if row == nil || row.UserID != userID {
			return errSessionNotFound
		}
		lecture, err := s.lectures.GetByID(inner, row.LectureID)
		if err != nil {
			return err
		}
		if lecture == nil {
			return errLectureNotFound
		}
		sess, err := s.restore(lecture, row)
		if err != nil {
			return err
		}
		if err := applyPlaybackEvent(sess, ev); err != nil {
			return classifyPlayerError(err)
		}
		events = sess.Drain()
		st := sess.State()

		if st.Duration > 0 && lecture.DurationSeconds == 0 {
			if err := s.lectures.UpdateDuration(inner, lecture.ID, st.Duration); err != nil {
				return fmt.Errorf("record lecture duration: %w", err)
			}
			lecture.DurationSeconds = st.Duration
		}

		lastError := row.LastError
		if hasReports(events) {
			lastError = s.report(inner, userID, events)
		}
		if hasKind(events, player.EventComplete) {
			if err := inTx(s.db, inner, func(sp dbctx.Context) error {
				_, err := s.achievements.Award(sp, userID, AchievementLectureComplete)
				return err
			}); err != nil {
				s.log.Warn("award lecture completion failed", "user_id", userID, "error", err)
			}
		}

		var completedAt *time.Time
		if st.Phase == player.PhaseFinished && row.CompletedAt == nil {
			now := s.now().UTC()
			completedAt = &now
			row.CompletedAt = completedAt
		}
		snapshot, err := json.Marshal(st)
		if err != nil {
			return err
		}
		if err := s.sessions.SaveState(inner, row.ID, string(st.Phase), datatypes.JSON(snapshot), lastError, completedAt); err != nil {
			return fmt.Errorf("save playback state: %w", err)
		}
		row.Phase, row.State, row.LastError = string(st.Phase), snapshot, lastError
		row.UpdatedAt = s.now().UTC()

		if events == nil {
			events = []player.Event{}
		}
		result = &PlaybackEventResult{Session: s.sessionView(row, lecture, sess), Events: events}
		listener = &sessionListener{n: s.notifier, userID: userID, sessionID: row.ID, lectureID: lecture.ID}
		return nil
	})

	m := observability.Current()
	if err != nil {
		outcome := "error"
		if _, ok := apierr.As(err); ok {
			outcome = "rejected"
		} else {
			s.log.Error("apply playback event failed", "session_id", sessionID, "event", ev.Type, "error", err)
		}
		m.IncPlaybackEvent(metricType, outcome)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	m.IncPlaybackEvent(metricType, "ok")
	for _, e := range events {
		switch e.Kind {
		case player.EventQuizComplete:
			m.IncQuizSubmission(e.Correct == e.Total)
		case player.EventComplete:
			m.IncSessionCompleted()
		}
	}
	span.SetAttributes(attribute.Int("playback.events", len(events)))

	// listeners only hear about committed transitions
	afterCommit(dbc.Ctx, func() { player.NewReporter(nil, listener).Dispatch(ctx, events) })
	return result, nil
}

// report forwards the events' progress deltas to the profile store. Each
// update runs in its own savepoint; failures come back as a message.
func (s *playbackService) report(dbc dbctx.Context, userID uuid.UUID, events []player.Event) string {
	update := func(ctx context.Context, r player.Report) error {
		_, err := s.profiles.UpdateProgress(dbctx.Context{Ctx: ctx, Tx: dbc.Tx}, userID, r.ProblemsSolved, r.StudyMinutes, r.XPEarned)
		return err
	}
	msg := player.NewReporter(update, nil).Dispatch(dbc.Ctx, events)
	if msg != "" {
		observability.Current().IncProgressFailure()
		s.log.Warn("progress report failed", "user_id", userID, "error", msg)
	}
	return msg
}

func (s *playbackService) restore(lecture *types.Lecture, row *types.PlaybackSession) (*player.Session, error) {
	if len(row.State) == 0 {
		return player.New(s.source, lecture.Title, lecture.DurationSeconds)
	}
	var st player.State
	if err := json.Unmarshal(row.State, &st); err != nil {
		return nil, fmt.Errorf("decode playback state: %w", err)
	}
	return player.Restore(s.source, lecture.Title, st)
}

func (s *playbackService) sessionView(row *types.PlaybackSession, lecture *types.Lecture, sess *player.Session) *PlaybackSessionView {
	return &PlaybackSessionView{
		ID:          row.ID,
		LectureID:   row.LectureID,
		Lecture:     lecture.Title,
		Player:      sess.View(),
		LastError:   row.LastError,
		CompletedAt: row.CompletedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func applyPlaybackEvent(s *player.Session, ev PlaybackEvent) error {
	switch ev.Type {
	case EventLoadedMetadata:
		if ev.Duration == nil {
			return fmt.Errorf("%w: %w duration", player.ErrInvalidEvent, errMissingField)
		}
		return s.LoadMetadata(*ev.Duration)
	case EventPlay:
		return s.Play()
	case EventPause:
		return s.Pause()
	case EventTick:
		n := ev.Count
		if n == 0 {
			n = 1
		}
		return s.Tick(n)
	case EventTimeUpdate:
		if ev.CurrentTime == nil {
			return fmt.Errorf("%w: %w current_time", player.ErrInvalidEvent, errMissingField)
		}
		return s.TimeUpdate(*ev.CurrentTime)
	case EventSelectAnswer:
		if ev.Question == nil || ev.Answer == nil {
			return fmt.Errorf("%w: %w question/answer", player.ErrInvalidEvent, errMissingField)
		}
		return s.SelectAnswer(*ev.Question, *ev.Answer)
	case EventSubmitQuiz:
		return s.Submit()
	case EventRetry:
		return s.Retry()
	case EventRewatch:
		return s.Rewatch()
	}
	return fmt.Errorf("%w: unknown type %q", player.ErrInvalidEvent, ev.Type)
}

func classifyPlayerError(err error) error {
	if player.IsConflict(err) {
		return apierr.Conflict("playback_conflict", err)
	}
	return apierr.BadRequest("invalid_playback_event", err)
}

func hasReports(events []player.Event) bool {
	for _, e := range events {
		if !e.Report.IsZero() {
			return true
		}
	}
	return false
}

func hasKind(events []player.Event, kind player.EventKind) bool {
	for _, e := range events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
