package repos

import (
	"gorm.io/gorm"

	"github.com/learnpulse/learnpulse-backend/internal/data/repos/learning"
	"github.com/learnpulse/learnpulse-backend/internal/data/repos/user"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

type ProfileRepo = user.ProfileRepo
type UserActivityRepo = user.UserActivityRepo
type UserAchievementRepo = user.UserAchievementRepo

type LectureRepo = learning.LectureRepo
type PlaybackSessionRepo = learning.PlaybackSessionRepo

// Set bundles every repo the services need.
type Set struct {
	Profile         ProfileRepo
	UserActivity    UserActivityRepo
	UserAchievement UserAchievementRepo
	Lecture         LectureRepo
	PlaybackSession PlaybackSessionRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Profile:         user.NewProfileRepo(db, log),
		UserActivity:    user.NewUserActivityRepo(db, log),
		UserAchievement: user.NewUserAchievementRepo(db, log),
		Lecture:         learning.NewLectureRepo(db, log),
		PlaybackSession: learning.NewPlaybackSessionRepo(db, log),
	}
}
