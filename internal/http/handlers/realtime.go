package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learnpulse/learnpulse-backend/internal/http/response"
	"github.com/learnpulse/learnpulse-backend/internal/platform/ctxutil"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
	"github.com/learnpulse/learnpulse-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /api/sse/stream
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	client := h.hub.NewSessionClient(rd.UserID, rd.SessionID)
	h.hub.Register(client)
	h.hub.AddChannel(client, realtime.UserChannel(rd.UserID))
	client.Logger.Info("SSE stream open", "session_key", client.SessionKey)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	client.Logger.Info("SSE stream closed", "open_for", time.Since(client.ConnectedAt).Round(time.Second).String())
}
