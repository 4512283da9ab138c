package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"reflections/internal/metrics"
	mw "reflections/internal/middleware"
	"reflections/internal/services"
	"reflections/internal/store"
)

type Deps struct {
	Users    *store.UserStore
	Stats    *store.StatsStore
	Topics   *services.TopicService
	Workflow *services.ReflectionWorkflow
	Metrics  *metrics.Collector // nil leaves /metrics unmounted
	Logger   *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.ZapRequestLogger(log.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(mw.Metrics(d.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	userHandler := NewUserHandler(d.Users, log)
	topicHandler := NewTopicHandler(d.Topics, log)
	reflectionHandler := NewReflectionHandler(d.Workflow, log)
	dashboardHandler := NewDashboardHandler(d.Stats, log)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/users", userHandler.List)

		api.Post("/topics", topicHandler.Create)
		api.Get("/topics", topicHandler.List)

		api.Post("/reflections/classify", reflectionHandler.Classify)
		api.Post("/reflections", reflectionHandler.Create)
		api.Get("/reflections", reflectionHandler.List)
		api.Get("/reflections/{id}", reflectionHandler.Get)

		api.Get("/stats", dashboardHandler.Get)
	})
	return r
}
