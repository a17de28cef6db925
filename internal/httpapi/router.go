// Package httpapi exposes the memo operations over HTTP.
package httpapi

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/memonest/internal/nest"
	"github.com/mesh-intelligence/memonest/pkg/types"
)

// Router creates and configures the HTTP router.
type Router struct {
	factory *nest.Factory
	logger  *zap.Logger

	// serial is held for the whole request in single_user mode, where every
	// request shares one sink.
	serial sync.Mutex
}

// NewRouter creates a router that opens one factory session per request.
func NewRouter(factory *nest.Factory, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{factory: factory, logger: logger}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", rt.healthCheck)

	router.Route("/memo", func(r chi.Router) {
		r.Post("/create", rt.handle(createMemo))
		r.Get("/get", rt.handle(getMemo))
		r.Get("/get_all", rt.handle(getMemos))
		r.Put("/update", rt.handle(updateMemo))
		r.Delete("/delete", rt.handle(deleteMemo))
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	rt.respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"mode":   rt.factory.Config().Mode,
	})
}

func (rt *Router) singleUser() bool {
	return rt.factory.Config().Mode == types.ModeSingleUser
}
