package learning

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/learnpulse/learnpulse-backend/internal/domain"
	"github.com/learnpulse/learnpulse-backend/internal/platform/dbctx"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

type LectureRepo interface {
	Create(dbc dbctx.Context, rows []*types.Lecture) ([]*types.Lecture, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Lecture, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Lecture, error)
	UpdateDuration(dbc dbctx.Context, id uuid.UUID, seconds float64) error
}

type lectureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLectureRepo(db *gorm.DB, baseLog *logger.Logger) LectureRepo {
	return &lectureRepo{db: db, log: baseLog.With("repo", "LectureRepo")}
}

func (r *lectureRepo) Create(dbc dbctx.Context, rows []*types.Lecture) ([]*types.Lecture, error) {
	if len(rows) == 0 {
		return []*types.Lecture{}, nil
	}
	if err := dbc.Conn(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *lectureRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Lecture, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.Lecture
	err := dbc.Conn(r.db).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *lectureRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Lecture, error) {
	var out []*types.Lecture
	err := dbc.Conn(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *lectureRepo) UpdateDuration(dbc dbctx.Context, id uuid.UUID, seconds float64) error {
	return dbc.Conn(r.db).
		Model(&types.Lecture{}).
		Where("id = ?", id).
		Update("duration_seconds", seconds).Error
}
