package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"dialograph/infrastructure/config"
	"dialograph/interfaces/http/rest/handlers"
	"dialograph/interfaces/http/rest/middleware"
	"dialograph/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg     *config.Config
	handler *handlers.GraphHandler
	metrics *observability.Collector
	logger  *zap.Logger

	// Optional WebSocket upgrade endpoint, mounted at /ws when set
	WebSocketHandler http.HandlerFunc
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	handler *handlers.GraphHandler,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:     cfg,
		handler: handler,
		metrics: metrics,
		logger:  logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.cfg.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	if rt.cfg.EnableMetrics {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	// Visualization page
	router.Get("/", rt.handler.GetVisualization)

	if rt.WebSocketHandler != nil {
		router.Get("/ws", rt.WebSocketHandler)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/graph", func(r chi.Router) {
			r.Get("/", rt.handler.GetSnapshot)
			r.Get("/stats", rt.handler.GetStats)
			r.Get("/as-of", rt.handler.GetAsOf)
			r.Get("/changes", rt.handler.GetChanges)
			r.Get("/export", rt.handler.GetExport)
		})

		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", rt.handler.CreateNode)
			r.Get("/{nodeID}", rt.handler.GetNode)
			r.Put("/{nodeID}", rt.handler.UpdateNode)
			r.Delete("/{nodeID}", rt.handler.DeleteNode)
			r.Get("/{nodeID}/neighbors", rt.handler.GetNeighbors)
			r.Get("/{nodeID}/recall", rt.handler.GetRecall)
		})

		r.Route("/edges", func(r chi.Router) {
			r.Post("/", rt.handler.CreateEdge)
			r.Get("/{edgeID}", rt.handler.GetEdge)
			r.Delete("/{edgeID}", rt.handler.DeleteEdge)
		})

		r.Get("/paths", rt.handler.GetShortestPath)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
