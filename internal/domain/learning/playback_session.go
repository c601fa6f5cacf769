package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlaybackSession persists one learner's walk through a lecture. State holds
// the JSON snapshot of the player; Phase mirrors it for querying.
type PlaybackSession struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_playback_user_lecture" json:"user_id"`
	LectureID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_playback_user_lecture" json:"lecture_id"`
	Lecture     *Lecture       `gorm:"constraint:OnDelete:CASCADE;foreignKey:LectureID;references:ID" json:"lecture,omitempty"`
	Phase       string         `gorm:"column:phase;not null;index" json:"phase"`
	State       datatypes.JSON `gorm:"column:state;type:jsonb" json:"state"`
	LastError   string         `gorm:"column:last_error" json:"last_error,omitempty"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PlaybackSession) TableName() string { return "playback_session" }

func (s *PlaybackSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
