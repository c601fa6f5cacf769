package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/learnpulse/learnpulse-backend/internal/data/db"
	"github.com/learnpulse/learnpulse-backend/internal/data/repos"
	httpserver "github.com/learnpulse/learnpulse-backend/internal/http"
	httpH "github.com/learnpulse/learnpulse-backend/internal/http/handlers"
	httpMW "github.com/learnpulse/learnpulse-backend/internal/http/middleware"
	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/media"
	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/segments"
	"github.com/learnpulse/learnpulse-backend/internal/observability"
	"github.com/learnpulse/learnpulse-backend/internal/platform/gcp"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
	"github.com/learnpulse/learnpulse-backend/internal/realtime"
	"github.com/learnpulse/learnpulse-backend/internal/realtime/bus"
	"github.com/learnpulse/learnpulse-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Profile     services.ProfileService
	Achievement services.AchievementService
	Lecture     services.LectureService
	Playback    services.PlaybackService
}

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.Set
	Services Services
	SSEHub   *realtime.SSEHub
	Bus      bus.Bus
	Server   *httpserver.Server
	Metrics  *observability.Metrics

	dbService    *db.Service
	signer       *gcp.MediaSigner
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{Log: log, Cfg: cfg}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg, log := a.Cfg, a.Log

	dbs, err := db.NewService(cfg.DB(), log)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	a.dbService = dbs
	a.DB = dbs.DB()
	if err := db.AutoMigrateAll(a.DB); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	a.Metrics = observability.Init(log, cfg.MetricsEnabled)
	if err := a.Metrics.RegisterDB(a.DB, dbs.Driver()); err != nil {
		log.Warn("db stats collector not registered", "error", err)
	}
	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel())

	a.SSEHub = realtime.NewSSEHub(log)
	if cfg.RedisAddr != "" {
		a.Bus, err = bus.NewRedisBus(ctx, log, bus.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.RedisChannel,
		})
		if err != nil {
			return fmt.Errorf("init redis bus: %w", err)
		}
	} else {
		log.Info("REDIS_ADDR empty; SSE fan-out is process local")
		a.Bus = bus.NewLocalBus()
	}

	var signer media.Signer
	if cfg.MediaGCSEnabled {
		a.signer, err = gcp.NewMediaSigner(ctx, log)
		if err != nil {
			return fmt.Errorf("init media signer: %w", err)
		}
		signer = a.signer
	}

	a.Repos = repos.NewSet(a.DB, log)
	a.Services = wireServices(a.DB, log, cfg, a.Repos, a.Bus, signer)

	limiter := httpMW.NewUserRateLimiter(cfg.EventsRateLimit, cfg.EventsRateBurst, a.Metrics)
	serviceName := ""
	if cfg.OtelEnabled {
		serviceName = cfg.OtelServiceName
	}
	a.Server = httpserver.NewServer(httpserver.RouterConfig{
		Log:             log,
		ServiceName:     serviceName,
		AllowedOrigins:  cfg.AllowedOrigins(),
		Metrics:         a.Metrics,
		EventLimiter:    limiter,
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, a.Services.Auth),
		UserHandler:     httpH.NewUserHandler(log, a.Services.Profile, a.Services.Achievement),
		RealtimeHandler: httpH.NewRealtimeHandler(log, a.SSEHub),
		LectureHandler:  httpH.NewLectureHandler(log, a.Services.Lecture, a.Services.Playback),
		PlaybackHandler: httpH.NewPlaybackHandler(log, a.Services.Playback),
		HealthHandler:   httpH.NewHealthHandler(a.DB),
	})
	a.Server.OnShutdown(a.SSEHub.CloseAll)
	return nil
}

func wireServices(theDB *gorm.DB, log *logger.Logger, cfg Config, rs repos.Set, b bus.Bus, signer media.Signer) Services {
	log.Info("Wiring services...")
	notifier := services.NewLearningNotifier(&services.BusEmitter{Bus: b, Log: log})
	generator := segments.NewGenerator(segments.DefaultLibrary(log))
	resolver := media.NewResolver(cfg.FrontendOrigin, signer, cfg.MediaSignedURLTTL)

	achievements := services.NewAchievementService(theDB, log, rs.UserAchievement, notifier)
	profiles := services.NewProfileService(theDB, log, rs.Profile, rs.UserActivity, achievements, notifier)
	return Services{
		Auth:        services.NewAuthService(log, cfg.JWTSecretKey, cfg.JWTIssuer, cfg.AccessTokenTTL),
		Profile:     profiles,
		Achievement: achievements,
		Lecture:     services.NewLectureService(theDB, log, rs.Lecture, generator, resolver),
		Playback:    services.NewPlaybackService(theDB, log, rs.PlaybackSession, rs.Lecture, generator, profiles, achievements, notifier),
	}
}

// Run serves HTTP and forwards bus messages to local SSE clients until ctx
// is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	if err := a.Bus.StartForwarder(gctx, a.SSEHub.Broadcast); err != nil {
		return fmt.Errorf("start sse forwarder: %w", err)
	}
	g.Go(func() error {
		a.Log.Info("Server listening", "addr", a.Cfg.Addr())
		return a.Server.Run(gctx, a.Cfg.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		return a.Bus.Close()
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Bus != nil {
		_ = a.Bus.Close()
	}
	if a.signer != nil {
		_ = a.signer.Close()
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("db close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
