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

type ProfileRepo interface {
	GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error)
	// GetForUpdate row-locks the profile for the rest of the transaction.
	GetForUpdate(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error)
	// CreateIfMissing inserts p unless a profile with its id exists and
	// reports whether it inserted.
	CreateIfMissing(dbc dbctx.Context, p *types.Profile) (bool, error)
	Save(dbc dbctx.Context, p *types.Profile) error
	UpdateFields(dbc dbctx.Context, userID uuid.UUID, updates map[string]any) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (r *profileRepo) GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error) {
	return r.get(dbc.Conn(r.db), userID)
}

func (r *profileRepo) GetForUpdate(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error) {
	return r.get(dbc.Conn(r.db).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *profileRepo) get(q *gorm.DB, userID uuid.UUID) (*types.Profile, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var out types.Profile
	err := q.Where("id = ?", userID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *profileRepo) CreateIfMissing(dbc dbctx.Context, p *types.Profile) (bool, error) {
	if p == nil || p.ID == uuid.Nil {
		return false, errors.New("profile id required")
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *profileRepo) Save(dbc dbctx.Context, p *types.Profile) error {
	if p == nil || p.ID == uuid.Nil {
		return errors.New("profile id required")
	}
	return dbc.Conn(r.db).Save(p).Error
}

func (r *profileRepo) UpdateFields(dbc dbctx.Context, userID uuid.UUID, updates map[string]any) error {
	if userID == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return dbc.Conn(r.db).
		Model(&types.Profile{}).
		Where("id = ?", userID).
		Updates(updates).Error
}
