package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserAchievement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement_code" json:"user_id"`
	Code        string    `gorm:"column:code;not null;uniqueIndex:idx_user_achievement_code" json:"code"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	Icon        string    `gorm:"column:icon" json:"icon"`
	EarnedAt    time.Time `gorm:"column:earned_at;not null;index" json:"earned_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserAchievement) TableName() string { return "user_achievement" }

func (a *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.EarnedAt.IsZero() {
		a.EarnedAt = time.Now().UTC()
	}
	return nil
}
