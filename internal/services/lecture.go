package services

import (
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnpulse/learnpulse-backend/internal/data/repos"
	types "github.com/learnpulse/learnpulse-backend/internal/domain"
	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/media"
	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/player"
	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/segments"
	"github.com/learnpulse/learnpulse-backend/internal/platform/apierr"
	"github.com/learnpulse/learnpulse-backend/internal/platform/ctxutil"
	"github.com/learnpulse/learnpulse-backend/internal/platform/dbctx"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

type CreateLectureInput struct {
	Title           string  `json:"title"`
	VideoURL        string  `json:"video_url"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// LectureView is a lecture plus where the client should load it from.
type LectureView struct {
	*types.Lecture
	Source        *media.Source `json:"source,omitempty"`
	SourceError   string        `json:"source_error,omitempty"`
	TotalSegments int           `json:"total_segments"`
}

type LectureService interface {
	CreateLecture(dbc dbctx.Context, userID uuid.UUID, in CreateLectureInput) (*LectureView, error)
	GetLecture(dbc dbctx.Context, userID, lectureID uuid.UUID) (*LectureView, error)
	ListLectures(dbc dbctx.Context, userID uuid.UUID) ([]*LectureView, error)
	LectureSegments(dbc dbctx.Context, userID, lectureID uuid.UUID) ([]player.SegmentView, error)
}

type lectureService struct {
	db        *gorm.DB
	log       *logger.Logger
	lectures  repos.LectureRepo
	generator *segments.Generator
	resolver  *media.Resolver
}

func NewLectureService(db *gorm.DB, log *logger.Logger, lectures repos.LectureRepo, generator *segments.Generator, resolver *media.Resolver) LectureService {
	return &lectureService{
		db:        db,
		log:       log.With("service", "LectureService"),
		lectures:  lectures,
		generator: generator,
		resolver:  resolver,
	}
}

var errLectureNotFound = apierr.NotFound("lecture_not_found", errors.New("lecture not found"))

func (s *lectureService) CreateLecture(dbc dbctx.Context, userID uuid.UUID, in CreateLectureInput) (*LectureView, error) {
	title := strings.TrimSpace(in.Title)
	videoURL := strings.TrimSpace(in.VideoURL)
	switch {
	case userID == uuid.Nil:
		return nil, apierr.BadRequest("missing_user", errors.New("user id required"))
	case title == "":
		return nil, apierr.BadRequest("invalid_title", errors.New("title required"))
	case !isHTTPURL(videoURL) && !strings.HasPrefix(videoURL, "gs://"):
		return nil, apierr.BadRequest("invalid_video_url", errors.New("video_url must be an http(s) or gs:// url"))
	case in.DurationSeconds < 0 || math.IsNaN(in.DurationSeconds) || math.IsInf(in.DurationSeconds, 0):
		return nil, apierr.BadRequest("invalid_duration", errors.New("duration_seconds must be a non-negative number"))
	}
	rows, err := s.lectures.Create(dbc, []*types.Lecture{{
		UserID:          userID,
		Title:           title,
		VideoURL:        videoURL,
		DurationSeconds: in.DurationSeconds,
	}})
	if err != nil {
		s.log.Error("create lecture failed", "user_id", userID, "error", err)
		return nil, err
	}
	return s.view(dbc, rows[0]), nil
}

func (s *lectureService) owned(dbc dbctx.Context, userID, lectureID uuid.UUID) (*types.Lecture, error) {
	l, err := s.lectures.GetByID(dbc, lectureID)
	if err != nil {
		return nil, err
	}
	if l == nil || l.UserID != userID {
		return nil, errLectureNotFound
	}
	return l, nil
}

func (s *lectureService) GetLecture(dbc dbctx.Context, userID, lectureID uuid.UUID) (*LectureView, error) {
	l, err := s.owned(dbc, userID, lectureID)
	if err != nil {
		return nil, err
	}
	return s.view(dbc, l), nil
}

func (s *lectureService) ListLectures(dbc dbctx.Context, userID uuid.UUID) ([]*LectureView, error) {
	rows, err := s.lectures.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*LectureView, 0, len(rows))
	for _, l := range rows {
		out = append(out, s.view(dbc, l))
	}
	return out, nil
}

func (s *lectureService) LectureSegments(dbc dbctx.Context, userID, lectureID uuid.UUID) ([]player.SegmentView, error) {
	l, err := s.owned(dbc, userID, lectureID)
	if err != nil {
		return nil, err
	}
	return player.Outline(s.generator.Generate(l.DurationSeconds, l.Title)), nil
}

func (s *lectureService) view(dbc dbctx.Context, l *types.Lecture) *LectureView {
	v := &LectureView{Lecture: l, TotalSegments: segments.Count(l.DurationSeconds)}
	if s.resolver == nil {
		return v
	}
	src, err := s.resolver.Resolve(ctxutil.Default(dbc.Ctx), l.VideoURL)
	if err != nil {
		v.SourceError = err.Error()
		return v
	}
	v.Source = &src
	return v
}
