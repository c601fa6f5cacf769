package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnpulse/learnpulse-backend/internal/http/response"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
	"github.com/learnpulse/learnpulse-backend/internal/services"
)

type LectureHandler struct {
	log      *logger.Logger
	lectures services.LectureService
	playback services.PlaybackService
}

func NewLectureHandler(log *logger.Logger, lectures services.LectureService, playback services.PlaybackService) *LectureHandler {
	return &LectureHandler{
		log:      log.With("handler", "LectureHandler"),
		lectures: lectures,
		playback: playback,
	}
}

// POST /api/lectures
// body: { "title": "...", "video_url": "...", "duration_seconds": 0 }
func (h *LectureHandler) CreateLecture(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req services.CreateLectureInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lv, err := h.lectures.CreateLecture(dbcFrom(c), userID, req)
	if err != nil {
		response.RespondServiceError(c, "create_lecture_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"lecture": lv})
}

// GET /api/lectures
func (h *LectureHandler) ListLectures(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	rows, err := h.lectures.ListLectures(dbcFrom(c), userID)
	if err != nil {
		response.RespondServiceError(c, "list_lectures_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"lectures": rows})
}

// GET /api/lectures/:id
func (h *LectureHandler) GetLecture(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lv, err := h.lectures.GetLecture(dbcFrom(c), userID, id)
	if err != nil {
		response.RespondServiceError(c, "load_lecture_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"lecture": lv})
}

// GET /api/lectures/:id/segments
func (h *LectureHandler) ListSegments(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	segs, err := h.lectures.LectureSegments(dbcFrom(c), userID, id)
	if err != nil {
		response.RespondServiceError(c, "load_segments_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"segments": segs})
}

// POST /api/lectures/:id/sessions
func (h *LectureHandler) StartSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	sv, resumed, err := h.playback.StartSession(dbcFrom(c), userID, id)
	if err != nil {
		response.RespondServiceError(c, "start_session_failed", err)
		return
	}
	status := http.StatusCreated
	if resumed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"session": sv, "resumed": resumed})
}
