package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnpulse/learnpulse-backend/internal/http/response"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
	"github.com/learnpulse/learnpulse-backend/internal/services"
)

type PlaybackHandler struct {
	log      *logger.Logger
	playback services.PlaybackService
}

func NewPlaybackHandler(log *logger.Logger, playback services.PlaybackService) *PlaybackHandler {
	return &PlaybackHandler{log: log.With("handler", "PlaybackHandler"), playback: playback}
}

// GET /api/playback-sessions/:id
func (h *PlaybackHandler) GetSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	sv, err := h.playback.GetSession(dbcFrom(c), userID, id)
	if err != nil {
		response.RespondServiceError(c, "load_session_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"session": sv})
}

// POST /api/playback-sessions/:id/events
// body: { "type": "time_update", "current_time": 121.5 }
func (h *PlaybackHandler) ApplyEvent(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var ev services.PlaybackEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.playback.ApplyEvent(dbcFrom(c), userID, id, ev)
	if err != nil {
		response.RespondServiceError(c, "apply_event_failed", err)
		return
	}
	response.RespondOK(c, res)
}
