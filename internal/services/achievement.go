package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnpulse/learnpulse-backend/internal/data/repos"
	types "github.com/learnpulse/learnpulse-backend/internal/domain"
	"github.com/learnpulse/learnpulse-backend/internal/observability"
	"github.com/learnpulse/learnpulse-backend/internal/platform/dbctx"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

const (
	AchievementFirstQuiz       = "first_quiz"
	AchievementProblemSolver   = "problem_solver"
	AchievementFocusedHour     = "focused_hour"
	AchievementXP1000          = "xp_1000"
	AchievementStreak7         = "streak_7"
	AchievementLectureComplete = "lecture_complete"

	defaultRecentAchievements = 3
	maxRecentAchievements     = 50
)

// AchievementDef is one entry of the static catalogue. Earned is nil for
// achievements awarded by an event rather than by profile thresholds.
type AchievementDef struct {
	Code        string
	Title       string
	Description string
	Icon        string
	Earned      func(p *types.Profile) bool
}

var achievementCatalogue = []AchievementDef{
	{
		Code: AchievementFirstQuiz, Title: "First Steps", Icon: "target",
		Description: "Answered your first quiz question",
		Earned:      func(p *types.Profile) bool { return p.ProblemsSolved >= 1 },
	},
	{
		Code: AchievementProblemSolver, Title: "Problem Solver", Icon: "brain",
		Description: "Answered 50 quiz questions",
		Earned:      func(p *types.Profile) bool { return p.ProblemsSolved >= 50 },
	},
	{
		Code: AchievementFocusedHour, Title: "Focused Hour", Icon: "clock",
		Description: "Studied for 60 minutes",
		Earned:      func(p *types.Profile) bool { return p.StudyMinutes >= 60 },
	},
	{
		Code: AchievementXP1000, Title: "Rising Star", Icon: "star",
		Description: "Earned 1000 XP",
		Earned:      func(p *types.Profile) bool { return p.XP >= 1000 },
	},
	{
		Code: AchievementStreak7, Title: "Week Warrior", Icon: "flame",
		Description: "Kept a 7 day learning streak",
		Earned:      func(p *types.Profile) bool { return p.CurrentStreak >= 7 },
	},
	{
		Code: AchievementLectureComplete, Title: "Lecture Finisher", Icon: "trophy",
		Description: "Finished every segment of a lecture",
	},
}

type AchievementService interface {
	Catalogue() []AchievementDef
	// Evaluate awards every threshold achievement p now qualifies for and
	// returns the newly earned ones.
	Evaluate(dbc dbctx.Context, p *types.Profile) ([]*types.UserAchievement, error)
	// Award grants an achievement by code; it returns nil if already held.
	Award(dbc dbctx.Context, userID uuid.UUID, code string) (*types.UserAchievement, error)
	RecentAchievements(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserAchievement, error)
}

type achievementService struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.UserAchievementRepo
	notifier LearningNotifier
	byCode   map[string]AchievementDef
}

func NewAchievementService(db *gorm.DB, log *logger.Logger, repo repos.UserAchievementRepo, notifier LearningNotifier) AchievementService {
	byCode := make(map[string]AchievementDef, len(achievementCatalogue))
	for _, def := range achievementCatalogue {
		byCode[def.Code] = def
	}
	if notifier == nil {
		notifier = NewLearningNotifier(nil)
	}
	return &achievementService{
		db:       db,
		log:      log.With("service", "AchievementService"),
		repo:     repo,
		notifier: notifier,
		byCode:   byCode,
	}
}

func (s *achievementService) Catalogue() []AchievementDef {
	return append([]AchievementDef(nil), achievementCatalogue...)
}

func (s *achievementService) Evaluate(dbc dbctx.Context, p *types.Profile) ([]*types.UserAchievement, error) {
	if p == nil || p.ID == uuid.Nil {
		return nil, nil
	}
	held, err := s.repo.Codes(dbc, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	var earned []*types.UserAchievement
	for _, def := range achievementCatalogue {
		if def.Earned == nil || held[def.Code] || !def.Earned(p) {
			continue
		}
		row, err := s.award(dbc, p.ID, def)
		if err != nil {
			return earned, err
		}
		if row != nil {
			earned = append(earned, row)
		}
	}
	return earned, nil
}

func (s *achievementService) Award(dbc dbctx.Context, userID uuid.UUID, code string) (*types.UserAchievement, error) {
	def, ok := s.byCode[code]
	if !ok {
		return nil, fmt.Errorf("unknown achievement %q", code)
	}
	return s.award(dbc, userID, def)
}

func (s *achievementService) award(dbc dbctx.Context, userID uuid.UUID, def AchievementDef) (*types.UserAchievement, error) {
	row := &types.UserAchievement{
		UserID:      userID,
		Code:        def.Code,
		Title:       def.Title,
		Description: def.Description,
		Icon:        def.Icon,
	}
	created, err := s.repo.Award(dbc, row)
	if err != nil {
		return nil, fmt.Errorf("award %s: %w", def.Code, err)
	}
	if !created {
		return nil, nil
	}
	afterCommit(dbc.Ctx, func() {
		s.log.Info("achievement earned", "user_id", userID, "code", def.Code)
		observability.Current().IncAchievement(def.Code)
		s.notifier.AchievementEarned(dbc.Ctx, userID, row)
	})
	return row, nil
}

func (s *achievementService) RecentAchievements(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserAchievement, error) {
	if limit <= 0 {
		limit = defaultRecentAchievements
	}
	if limit > maxRecentAchievements {
		limit = maxRecentAchievements
	}
	return s.repo.ListRecent(dbc, userID, limit)
}
