package domain

import (
	"github.com/learnpulse/learnpulse-backend/internal/domain/learning"
	"github.com/learnpulse/learnpulse-backend/internal/domain/user"
)

type Profile = user.Profile
type UserActivity = user.UserActivity
type UserAchievement = user.UserAchievement

type Lecture = learning.Lecture
type PlaybackSession = learning.PlaybackSession
type Segment = learning.Segment
type QuizQuestion = learning.QuizQuestion

const ActivityDateLayout = user.ActivityDateLayout

func LevelForXP(xp int) int { return user.LevelForXP(xp) }

// AllModels lists every table the service owns, in migration order.
func AllModels() []any {
	return []any{
		&user.Profile{},
		&user.UserActivity{},
		&user.UserAchievement{},
		&learning.Lecture{},
		&learning.PlaybackSession{},
	}
}
