package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityDateLayout is the calendar-day key used by UserActivity.
const ActivityDateLayout = "2006-01-02"

// UserActivity aggregates one user's study on one UTC calendar day.
type UserActivity struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_activity_day" json:"user_id"`
	ActivityDate   string    `gorm:"column:activity_date;not null;uniqueIndex:idx_user_activity_day" json:"activity_date"`
	ActivityCount  int       `gorm:"column:activity_count;not null;default:0" json:"activity_count"`
	StudyMinutes   int       `gorm:"column:study_minutes;not null;default:0" json:"study_minutes"`
	ProblemsSolved int       `gorm:"column:problems_solved;not null;default:0" json:"problems_solved"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserActivity) TableName() string { return "user_activity" }

func (a *UserActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
