package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

// Labels stay low-cardinality: no user, session or lecture ids.
type Metrics struct {
	reg *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	playbackEvents    *prometheus.CounterVec
	quizSubmissions   *prometheus.CounterVec
	progressFailures  prometheus.Counter
	sessionsCompleted prometheus.Counter
	achievements      *prometheus.CounterVec
	rateLimited       prometheus.Counter
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process-wide metrics, or nil when disabled. All
// methods are nil-safe.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("prometheus metrics enabled")
		}
	})
	return instance
}

// New builds a Metrics on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lp_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lp_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "lp_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		playbackEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lp_playback_events_total",
			Help: "Playback events applied, by event type and outcome (ok/rejected/error).",
		}, []string{"type", "outcome"}),
		quizSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lp_quiz_submissions_total",
			Help: "Quiz submissions by outcome (passed/failed).",
		}, []string{"outcome"}),
		progressFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "lp_progress_report_failures_total",
			Help: "Progress reports the profile store rejected.",
		}),
		sessionsCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "lp_playback_sessions_completed_total",
			Help: "Playback sessions that finished their last segment.",
		}),
		achievements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lp_achievements_awarded_total",
			Help: "Achievements awarded, by code.",
		}, []string{"code"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "lp_rate_limited_total",
			Help: "Requests rejected by the per-user rate limiter.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// RegisterDB adds connection pool stats for the database.
func (m *Metrics) RegisterDB(db *gorm.DB, name string) error {
	if m == nil || db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return m.reg.Register(collectors.NewDBStatsCollector(sqlDB, name))
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

// CountAPI counts a request without timing it.
func (m *Metrics) CountAPI(method, route string, status int) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncPlaybackEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.playbackEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) IncQuizSubmission(passed bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	m.quizSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncProgressFailure() {
	if m == nil {
		return
	}
	m.progressFailures.Inc()
}

func (m *Metrics) IncSessionCompleted() {
	if m == nil {
		return
	}
	m.sessionsCompleted.Inc()
}

func (m *Metrics) IncAchievement(code string) {
	if m == nil {
		return
	}
	m.achievements.WithLabelValues(code).Inc()
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
