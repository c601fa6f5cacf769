package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnpulse/learnpulse-backend/internal/data/repos"
	types "github.com/learnpulse/learnpulse-backend/internal/domain"
	"github.com/learnpulse/learnpulse-backend/internal/platform/apierr"
	"github.com/learnpulse/learnpulse-backend/internal/platform/dbctx"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

// ProfileUpdate is a partial profile edit; nil fields are left alone.
type ProfileUpdate struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Icon  string `json:"icon"`
}

var sidebarNav = []NavItem{
	{Label: "Dashboard", Path: "/", Icon: "home"},
	{Label: "Learning", Path: "/learning", Icon: "book-open"},
	{Label: "Achievements", Path: "/achievements", Icon: "trophy"},
	{Label: "Gamify", Path: "/gamify", Icon: "gamepad"},
	{Label: "Profile", Path: "/profile", Icon: "user"},
}

// MeSummary backs the header and sidebar.
type MeSummary struct {
	UserID        uuid.UUID `json:"user_id"`
	FullName      string    `json:"full_name"`
	AvatarURL     string    `json:"avatar_url"`
	Level         int       `json:"level"`
	XP            int       `json:"xp"`
	CurrentStreak int       `json:"current_streak"`
	Nav           []NavItem `json:"nav"`
}

const defaultDisplayName = "Learner"

type ProfileService interface {
	// GetProfile returns nil without error when the user has no profile yet.
	GetProfile(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error)
	UpdateProfile(dbc dbctx.Context, userID uuid.UUID, in ProfileUpdate) (*types.Profile, error)
	UpdateProgress(dbc dbctx.Context, userID uuid.UUID, problemsSolved, studyMinutes, xpEarned int) (*types.Profile, error)
	UpdateStreak(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error)
	DailyCheckIn(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error)
	Summary(dbc dbctx.Context, userID uuid.UUID) (*MeSummary, error)
}

type profileService struct {
	db           *gorm.DB
	log          *logger.Logger
	profiles     repos.ProfileRepo
	activity     repos.UserActivityRepo
	achievements AchievementService
	notifier     LearningNotifier
	now          func() time.Time
}

func NewProfileService(
	db *gorm.DB,
	log *logger.Logger,
	profiles repos.ProfileRepo,
	activity repos.UserActivityRepo,
	achievements AchievementService,
	notifier LearningNotifier,
) ProfileService {
	if notifier == nil {
		notifier = NewLearningNotifier(nil)
	}
	return &profileService{
		db:           db,
		log:          log.With("service", "ProfileService"),
		profiles:     profiles,
		activity:     activity,
		achievements: achievements,
		notifier:     notifier,
		now:          time.Now,
	}
}

func (s *profileService) today() (string, string) {
	now := s.now().UTC()
	return now.Format(types.ActivityDateLayout), now.AddDate(0, 0, -1).Format(types.ActivityDateLayout)
}

func (s *profileService) GetProfile(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error) {
	if userID == uuid.Nil {
		return nil, apierr.BadRequest("missing_user", errors.New("user id required"))
	}
	return s.profiles.GetByID(dbc, userID)
}

// lockOrCreate returns the row-locked profile, creating a level 1 profile on
// first use. Concurrent first calls race on the insert; the loser re-reads
// the winner's row under the lock.
func (s *profileService) lockOrCreate(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error) {
	p, err := s.profiles.GetForUpdate(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p != nil {
		return p, nil
	}
	if _, err := s.profiles.CreateIfMissing(dbc, &types.Profile{ID: userID, Level: 1}); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	p, err = s.profiles.GetForUpdate(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("profile %s unavailable after create", userID)
	}
	return p, nil
}

func (s *profileService) UpdateProfile(dbc dbctx.Context, userID uuid.UUID, in ProfileUpdate) (*types.Profile, error) {
	if userID == uuid.Nil {
		return nil, apierr.BadRequest("missing_user", errors.New("user id required"))
	}
	updates := map[string]any{}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if len(name) > 120 {
			return nil, apierr.BadRequest("invalid_full_name", errors.New("full_name too long"))
		}
		updates["full_name"] = name
	}
	if in.AvatarURL != nil {
		avatar := strings.TrimSpace(*in.AvatarURL)
		if avatar != "" && !isHTTPURL(avatar) {
			return nil, apierr.BadRequest("invalid_avatar_url", errors.New("avatar_url must be an http(s) url"))
		}
		updates["avatar_url"] = avatar
	}
	if len(updates) == 0 {
		return nil, apierr.BadRequest("empty_update", errors.New("nothing to update"))
	}

	var out *types.Profile
	err := inTx(s.db, dbc, func(inner dbctx.Context) error {
		if _, err := s.lockOrCreate(inner, userID); err != nil {
			return err
		}
		if err := s.profiles.UpdateFields(inner, userID, updates); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		p, err := s.profiles.GetByID(inner, userID)
		out = p
		return err
	})
	if err != nil {
		s.log.Warn("update profile failed", "user_id", userID, "error", err)
		return nil, err
	}
	s.notifyProfile(dbc, userID, out)
	return out, nil
}

func (s *profileService) UpdateProgress(dbc dbctx.Context, userID uuid.UUID, problemsSolved, studyMinutes, xpEarned int) (*types.Profile, error) {
	if userID == uuid.Nil {
		return nil, apierr.BadRequest("missing_user", errors.New("user id required"))
	}
	if problemsSolved < 0 || studyMinutes < 0 || xpEarned < 0 {
		return nil, apierr.BadRequest("invalid_progress", errors.New("progress deltas must be non-negative"))
	}

	var out *types.Profile
	err := inTx(s.db, dbc, func(inner dbctx.Context) error {
		p, err := s.lockOrCreate(inner, userID)
		if err != nil {
			return err
		}
		p.ProblemsSolved += problemsSolved
		p.StudyMinutes += studyMinutes
		p.XP += xpEarned
		p.Level = types.LevelForXP(p.XP)
		if err := s.profiles.Save(inner, p); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		day, _ := s.today()
		if err := s.activity.AddToDay(inner, userID, day, 1, studyMinutes, problemsSolved); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
		if _, err := s.achievements.Evaluate(inner, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		s.log.Warn("update progress failed", "user_id", userID, "error", err)
		return nil, err
	}
	s.notifyProfile(dbc, userID, out)
	return out, nil
}

func (s *profileService) UpdateStreak(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error) {
	if userID == uuid.Nil {
		return nil, apierr.BadRequest("missing_user", errors.New("user id required"))
	}
	var out *types.Profile
	err := inTx(s.db, dbc, func(inner dbctx.Context) error {
		p, err := s.updateStreak(inner, userID)
		out = p
		return err
	})
	if err != nil {
		s.log.Warn("update streak failed", "user_id", userID, "error", err)
		return nil, err
	}
	s.notifyProfile(dbc, userID, out)
	return out, nil
}

// updateStreak continues the streak when the last active day was yesterday,
// keeps it when it was today, and restarts it at 1 otherwise.
func (s *profileService) updateStreak(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error) {
	p, err := s.lockOrCreate(dbc, userID)
	if err != nil {
		return nil, err
	}
	today, yesterday := s.today()
	switch p.LastActiveDate {
	case today:
		if p.CurrentStreak > 0 {
			return p, nil
		}
		p.CurrentStreak = 1
	case yesterday:
		p.CurrentStreak++
	default:
		p.CurrentStreak = 1
	}
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.LastActiveDate = today
	if err := s.profiles.Save(dbc, p); err != nil {
		return nil, fmt.Errorf("save streak: %w", err)
	}
	if _, err := s.achievements.Evaluate(dbc, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *profileService) DailyCheckIn(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error) {
	if userID == uuid.Nil {
		return nil, apierr.BadRequest("missing_user", errors.New("user id required"))
	}
	var (
		out     *types.Profile
		changed bool
	)
	err := inTx(s.db, dbc, func(inner dbctx.Context) error {
		today, _ := s.today()
		if _, err := s.activity.CreateIfMissing(inner, &types.UserActivity{
			UserID:        userID,
			ActivityDate:  today,
			ActivityCount: 1,
		}); err != nil {
			return fmt.Errorf("record check-in: %w", err)
		}
		p, err := s.lockOrCreate(inner, userID)
		if err != nil {
			return err
		}
		if p.LastActiveDate == today && p.CurrentStreak > 0 {
			out = p
			return nil
		}
		out, err = s.updateStreak(inner, userID)
		changed = err == nil
		return err
	})
	if err != nil {
		s.log.Warn("daily check-in failed", "user_id", userID, "error", err)
		return nil, err
	}
	if changed {
		s.notifyProfile(dbc, userID, out)
	}
	return out, nil
}

// notifyProfile publishes p once the caller's transaction, if any, commits.
func (s *profileService) notifyProfile(dbc dbctx.Context, userID uuid.UUID, p *types.Profile) {
	afterCommit(dbc.Ctx, func() { s.notifier.ProfileUpdated(dbc.Ctx, userID, p) })
}

func (s *profileService) Summary(dbc dbctx.Context, userID uuid.UUID) (*MeSummary, error) {
	p, err := s.GetProfile(dbc, userID)
	if err != nil {
		return nil, err
	}
	out := &MeSummary{
		UserID:   userID,
		FullName: defaultDisplayName,
		Level:    1,
		Nav:      append([]NavItem(nil), sidebarNav...),
	}
	if p != nil {
		if name := strings.TrimSpace(p.FullName); name != "" {
			out.FullName = name
		}
		out.AvatarURL = strings.TrimSpace(p.AvatarURL)
		out.Level = p.Level
		out.XP = p.XP
		out.CurrentStreak = p.CurrentStreak
	}
	if out.AvatarURL == "" {
		out.AvatarURL = FallbackAvatarURL(out.FullName)
	}
	return out, nil
}

// FallbackAvatarURL renders initials for users without an uploaded avatar.
func FallbackAvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=6366f1&color=fff"
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
