// Package api is the HTTP transport: routing, middleware, request parsing and
// the response envelope.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"taskhub/internal/dto"
	"taskhub/internal/identity"
	"taskhub/internal/metrics"
	"taskhub/internal/model"
	"taskhub/internal/ratelimit"
	"taskhub/internal/service"
	"taskhub/internal/validation"
)

const (
	apiPrefix             = "/api/v1/internal"
	maxBodyBytes          = 1 << 20
	defaultRequestTimeout = 10 * time.Second
)

type TaskService interface {
	Create(ctx context.Context, who identity.Identity, in dto.TaskCreate) (model.Task, error)
	Search(ctx context.Context, who identity.Identity, q dto.SearchQuery) (service.SearchResult, error)
	UpdateDueDate(ctx context.Context, who identity.Identity, taskID int64, in dto.DueDateUpdate) (model.Task, error)
	RemoveDueDate(ctx context.Context, who identity.Identity, taskID int64) (model.Task, error)
	ChangePriority(ctx context.Context, who identity.Identity, taskID int64, in dto.PriorityUpdate) (model.Task, error)
	SetCompletion(ctx context.Context, who identity.Identity, taskID int64, in dto.CompletionUpdate) (model.Task, error)
}

type PriorityService interface {
	List(ctx context.Context, who identity.Identity, q dto.PriorityListQuery) (service.PriorityListing, error)
	Distribution(ctx context.Context, who identity.Identity, q dto.DistributionQuery) ([]model.PriorityDistributionRow, error)
	History(ctx context.Context, who identity.Identity, taskID int64) ([]model.PriorityHistoryRow, error)
}

type CategoryService interface {
	List(ctx context.Context, who identity.Identity) ([]model.Category, error)
	Create(ctx context.Context, who identity.Identity, in dto.CategoryCreate) (model.Category, error)
}

type NotificationService interface {
	Preferences(ctx context.Context, who identity.Identity) (model.NotificationPreference, error)
	SavePreferences(ctx context.Context, who identity.Identity, in dto.PreferenceUpdate) (model.NotificationPreference, error)
	TaskSettings(ctx context.Context, who identity.Identity, taskID int64) (model.TaskNotificationSetting, error)
	SaveTaskSettings(ctx context.Context, who identity.Identity, taskID int64, in dto.TaskSettingUpdate) (model.TaskNotificationSetting, error)
	List(ctx context.Context, who identity.Identity, q dto.NotificationListQuery) (service.NotificationPage, error)
	UpdateStatus(ctx context.Context, who identity.Identity, id int64, in dto.NotificationStatusUpdate) error
	Dashboard(ctx context.Context, who identity.Identity) (service.Dashboard, error)
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Limiter is satisfied by *ratelimit.Limiter.
type Limiter interface {
	Allow(ctx context.Context, clientID string) (ratelimit.Result, error)
}

// Deps wires the server. Metrics and Limiter are optional. A zero
// RequestTimeout means defaultRequestTimeout.
type Deps struct {
	Tasks          TaskService
	Priorities     PriorityService
	Categories     CategoryService
	Notifications  NotificationService
	Validator      *validation.Validator
	Identity       identity.Resolver
	Health         Pinger
	Metrics        *metrics.Metrics
	MetricsPath    string
	Limiter        Limiter
	RequestTimeout time.Duration
	Production     bool
	Now            func() time.Time
}

type Server struct {
	tasks          TaskService
	priorities     PriorityService
	categories     CategoryService
	notifications  NotificationService
	validator      *validation.Validator
	identity       identity.Resolver
	health         Pinger
	metrics        *metrics.Metrics
	metricsPath    string
	limiter        Limiter
	requestTimeout time.Duration
	production     bool
	now            func() time.Time
}

func New(d Deps) *Server {
	s := &Server{
		tasks:          d.Tasks,
		priorities:     d.Priorities,
		categories:     d.Categories,
		notifications:  d.Notifications,
		validator:      d.Validator,
		identity:       d.Identity,
		health:         d.Health,
		metrics:        d.Metrics,
		metricsPath:    d.MetricsPath,
		limiter:        d.Limiter,
		requestTimeout: d.RequestTimeout,
		production:     d.Production,
		now:            d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = defaultRequestTimeout
	}
	if s.metricsPath == "" {
		s.metricsPath = "/metrics"
	}
	if s.validator == nil {
		s.validator = validation.New(s.now)
	}
	return s
}

// Routes builds the chi router with every endpoint and middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(s.accessLog)
	if s.metrics != nil {
		r.Use(s.instrument)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.problem(w, http.StatusNotFound, codeNotFound, "Route "+r.Method+" "+r.URL.Path+" not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.problem(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "Method "+r.Method+" not allowed", nil)
	})

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, s.metricsPath, s.metrics.Handler())
	}

	r.Route(apiPrefix, func(r chi.Router) {
		r.Use(s.resolveIdentity)
		if s.limiter != nil {
			r.Use(s.rateLimit)
		}

		r.Route("/task", func(r chi.Router) {
			r.Post("/", s.handleTaskCreate)
			r.Get("/search", s.handleTaskSearch)
			r.Get("/priority/list", s.handlePriorityList)
			r.Get("/reports/priority-distribution", s.handlePriorityDistribution)
			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/due-date", s.handleDueDateUpdate)
				r.Delete("/due-date", s.handleDueDateRemove)
				r.Patch("/priority", s.handlePriorityChange)
				r.Patch("/completion", s.handleCompletion)
				r.Get("/priority-history", s.handlePriorityHistory)
				r.Get("/notification-settings", s.handleTaskSettingsGet)
				r.Put("/notification-settings", s.handleTaskSettingsSave)
			})
		})

		r.Route("/category", func(r chi.Router) {
			r.Get("/", s.handleCategoryList)
			r.Post("/", s.handleCategoryCreate)
		})

		r.Route("/notification", func(r chi.Router) {
			r.Get("/", s.handleNotificationList)
			r.Get("/preferences", s.handlePreferencesGet)
			r.Put("/preferences", s.handlePreferencesSave)
			r.Get("/dashboard", s.handleDashboard)
			r.Patch("/{id}", s.handleNotificationStatus)
		})
	})
	return r
}
