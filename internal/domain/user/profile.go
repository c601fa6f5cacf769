package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is the per-user gamification record shown in the header and
// dashboard. ID equals the owning user's id.
type Profile struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName       string    `gorm:"column:full_name" json:"full_name"`
	AvatarURL      string    `gorm:"column:avatar_url" json:"avatar_url"`
	Level          int       `gorm:"column:level;not null;default:1" json:"level"`
	XP             int       `gorm:"column:xp;not null;default:0" json:"xp"`
	CurrentStreak  int       `gorm:"column:current_streak;not null;default:0" json:"current_streak"`
	LongestStreak  int       `gorm:"column:longest_streak;not null;default:0" json:"longest_streak"`
	ProblemsSolved int       `gorm:"column:problems_solved;not null;default:0" json:"problems_solved"`
	StudyMinutes   int       `gorm:"column:study_minutes;not null;default:0" json:"study_minutes"`
	LastActiveDate string    `gorm:"column:last_active_date" json:"last_active_date,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Profile) TableName() string { return "profile" }

// XPPerLevel is the XP needed to gain one level.
const XPPerLevel = 1000

func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return 1 + xp/XPPerLevel
}
