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

type UserAchievementRepo interface {
	// Award inserts the achievement unless the user already holds the code.
	Award(dbc dbctx.Context, row *types.UserAchievement) (bool, error)
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserAchievement, error)
	Codes(dbc dbctx.Context, userID uuid.UUID) (map[string]bool, error)
}

type userAchievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserAchievementRepo(db *gorm.DB, baseLog *logger.Logger) UserAchievementRepo {
	return &userAchievementRepo{db: db, log: baseLog.With("repo", "UserAchievementRepo")}
}

func (r *userAchievementRepo) Award(dbc dbctx.Context, row *types.UserAchievement) (bool, error) {
	if row == nil || row.UserID == uuid.Nil || row.Code == "" {
		return false, errors.New("user_id and code required")
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "code"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userAchievementRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserAchievement, error) {
	if limit <= 0 {
		limit = 3
	}
	var out []*types.UserAchievement
	err := dbc.Conn(r.db).
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *userAchievementRepo) Codes(dbc dbctx.Context, userID uuid.UUID) (map[string]bool, error) {
	var codes []string
	if err := dbc.Conn(r.db).
		Model(&types.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(codes))
	for _, c := range codes {
		out[c] = true
	}
	return out, nil
}
