package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/learnpulse/learnpulse-backend/internal/http/response"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
	"github.com/learnpulse/learnpulse-backend/internal/services"
)

type UserHandler struct {
	log          *logger.Logger
	profiles     services.ProfileService
	achievements services.AchievementService
}

func NewUserHandler(log *logger.Logger, profiles services.ProfileService, achievements services.AchievementService) *UserHandler {
	return &UserHandler{
		log:          log.With("handler", "UserHandler"),
		profiles:     profiles,
		achievements: achievements,
	}
}

// GET /api/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	me, err := h.profiles.Summary(dbcFrom(c), userID)
	if err != nil {
		response.RespondServiceError(c, "load_me_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// GET /api/me/profile
// The profile is null until the first progress update or check-in.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	p, err := h.profiles.GetProfile(dbcFrom(c), userID)
	if err != nil {
		response.RespondServiceError(c, "load_profile_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// PATCH /api/me/profile
// body: { "full_name": "...", "avatar_url": "..." }
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req services.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.profiles.UpdateProfile(dbcFrom(c), userID, req)
	if err != nil {
		response.RespondServiceError(c, "update_profile_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// POST /api/me/progress
// body: { "problems_solved": 0, "study_minutes": 1, "xp_earned": 0 }
func (h *UserHandler) UpdateProgress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		ProblemsSolved int `json:"problems_solved"`
		StudyMinutes   int `json:"study_minutes"`
		XPEarned       int `json:"xp_earned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.profiles.UpdateProgress(dbcFrom(c), userID, req.ProblemsSolved, req.StudyMinutes, req.XPEarned)
	if err != nil {
		response.RespondServiceError(c, "update_progress_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// POST /api/me/streak
func (h *UserHandler) UpdateStreak(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	p, err := h.profiles.UpdateStreak(dbcFrom(c), userID)
	if err != nil {
		response.RespondServiceError(c, "update_streak_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// POST /api/me/check-in
func (h *UserHandler) CheckIn(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	p, err := h.profiles.DailyCheckIn(dbcFrom(c), userID)
	if err != nil {
		response.RespondServiceError(c, "check_in_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// GET /api/me/achievements/recent?limit=3
func (h *UserHandler) RecentAchievements(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	rows, err := h.achievements.RecentAchievements(dbcFrom(c), userID, limit)
	if err != nil {
		response.RespondServiceError(c, "load_achievements_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"achievements": rows})
}
