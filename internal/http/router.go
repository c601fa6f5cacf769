package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/learnpulse/learnpulse-backend/internal/http/handlers"
	httpMW "github.com/learnpulse/learnpulse-backend/internal/http/middleware"
	"github.com/learnpulse/learnpulse-backend/internal/observability"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics
	EventLimiter   *httpMW.UserRateLimiter

	AuthMiddleware  *httpMW.AuthMiddleware
	UserHandler     *httpH.UserHandler
	RealtimeHandler *httpH.RealtimeHandler
	LectureHandler  *httpH.LectureHandler
	PlaybackHandler *httpH.PlaybackHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.GET("/me/profile", cfg.UserHandler.GetProfile)
			protected.PATCH("/me/profile", cfg.UserHandler.UpdateProfile)
			protected.POST("/me/progress", cfg.UserHandler.UpdateProgress)
			protected.POST("/me/streak", cfg.UserHandler.UpdateStreak)
			protected.POST("/me/check-in", cfg.UserHandler.CheckIn)
			protected.GET("/me/achievements/recent", cfg.UserHandler.RecentAchievements)
		}

		// Lectures
		if cfg.LectureHandler != nil {
			protected.POST("/lectures", cfg.LectureHandler.CreateLecture)
			protected.GET("/lectures", cfg.LectureHandler.ListLectures)
			protected.GET("/lectures/:id", cfg.LectureHandler.GetLecture)
			protected.GET("/lectures/:id/segments", cfg.LectureHandler.ListSegments)
			protected.POST("/lectures/:id/sessions", cfg.LectureHandler.StartSession)
		}

		// Playback
		if cfg.PlaybackHandler != nil {
			protected.GET("/playback-sessions/:id", cfg.PlaybackHandler.GetSession)
			protected.POST("/playback-sessions/:id/events", cfg.EventLimiter.Middleware(), cfg.PlaybackHandler.ApplyEvent)
		}
	}

	return r
}
