package learning

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/learnpulse/learnpulse-backend/internal/domain"
	"github.com/learnpulse/learnpulse-backend/internal/platform/dbctx"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

type PlaybackSessionRepo interface {
	Create(dbc dbctx.Context, row *types.PlaybackSession) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PlaybackSession, error)
	// GetForUpdate row-locks the session so concurrent events apply in order.
	GetForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.PlaybackSession, error)
	LatestUnfinished(dbc dbctx.Context, userID, lectureID uuid.UUID) (*types.PlaybackSession, error)
	SaveState(dbc dbctx.Context, id uuid.UUID, phase string, state datatypes.JSON, lastError string, completedAt *time.Time) error
}

type playbackSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlaybackSessionRepo(db *gorm.DB, baseLog *logger.Logger) PlaybackSessionRepo {
	return &playbackSessionRepo{db: db, log: baseLog.With("repo", "PlaybackSessionRepo")}
}

func (r *playbackSessionRepo) Create(dbc dbctx.Context, row *types.PlaybackSession) error {
	if row == nil {
		return errors.New("nil playback session")
	}
	return dbc.Conn(r.db).Create(row).Error
}

func (r *playbackSessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PlaybackSession, error) {
	return firstSession(dbc.Conn(r.db).Where("id = ?", id))
}

func (r *playbackSessionRepo) GetForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.PlaybackSession, error) {
	return firstSession(dbc.Conn(r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *playbackSessionRepo) LatestUnfinished(dbc dbctx.Context, userID, lectureID uuid.UUID) (*types.PlaybackSession, error) {
	return firstSession(dbc.Conn(r.db).
		Where("user_id = ? AND lecture_id = ? AND completed_at IS NULL", userID, lectureID).
		Order("created_at DESC"))
}

func (r *playbackSessionRepo) SaveState(dbc dbctx.Context, id uuid.UUID, phase string, state datatypes.JSON, lastError string, completedAt *time.Time) error {
	updates := map[string]any{
		"phase":      phase,
		"state":      state,
		"last_error": lastError,
	}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}
	res := dbc.Conn(r.db).
		Model(&types.PlaybackSession{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func firstSession(q *gorm.DB) (*types.PlaybackSession, error) {
	var out types.PlaybackSession
	err := q.First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
