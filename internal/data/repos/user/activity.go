package user

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/learnpulse/learnpulse-backend/internal/domain"
	"github.com/learnpulse/learnpulse-backend/internal/platform/dbctx"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

type UserActivityRepo interface {
	GetByDay(dbc dbctx.Context, userID uuid.UUID, day string) (*types.UserActivity, error)
	// CreateIfMissing inserts the day row and reports whether it was new.
	CreateIfMissing(dbc dbctx.Context, row *types.UserActivity) (bool, error)
	// AddToDay upserts the day row, adding the given deltas.
	AddToDay(dbc dbctx.Context, userID uuid.UUID, day string, activity, minutes, problems int) error
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserActivity, error)
}

type userActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserActivityRepo(db *gorm.DB, baseLog *logger.Logger) UserActivityRepo {
	return &userActivityRepo{db: db, log: baseLog.With("repo", "UserActivityRepo")}
}

var activityDayConflict = []clause.Column{{Name: "user_id"}, {Name: "activity_date"}}

func (r *userActivityRepo) GetByDay(dbc dbctx.Context, userID uuid.UUID, day string) (*types.UserActivity, error) {
	var out types.UserActivity
	err := dbc.Conn(r.db).
		Where("user_id = ? AND activity_date = ?", userID, day).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userActivityRepo) CreateIfMissing(dbc dbctx.Context, row *types.UserActivity) (bool, error) {
	if row == nil || row.UserID == uuid.Nil || row.ActivityDate == "" {
		return false, errors.New("user_id and activity_date required")
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{Columns: activityDayConflict, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userActivityRepo) AddToDay(dbc dbctx.Context, userID uuid.UUID, day string, activity, minutes, problems int) error {
	if userID == uuid.Nil || day == "" {
		return errors.New("user_id and activity_date required")
	}
	row := &types.UserActivity{
		UserID:         userID,
		ActivityDate:   day,
		ActivityCount:  activity,
		StudyMinutes:   minutes,
		ProblemsSolved: problems,
	}
	return dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns: activityDayConflict,
			DoUpdates: clause.Assignments(map[string]any{
				"activity_count":  gorm.Expr("user_activity.activity_count + excluded.activity_count"),
				"study_minutes":   gorm.Expr("user_activity.study_minutes + excluded.study_minutes"),
				"problems_solved": gorm.Expr("user_activity.problems_solved + excluded.problems_solved"),
				"updated_at":      gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(row).Error
}

func (r *userActivityRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserActivity, error) {
	if limit <= 0 {
		limit = 30
	}
	var out []*types.UserActivity
	err := dbc.Conn(r.db).
		Where("user_id = ?", userID).
		Order("activity_date DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
