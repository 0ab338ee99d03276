package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apimw "github.com/flightpath-dev/sentrybridge/internal/api/middleware"
)

// Server holds the dependencies needed by the HTTP handlers, matching the
// teacher's Server/Dependencies split in internal/server.
type Server struct {
	deps *Dependencies
}

// NewRouter builds the chi router for C8's routes:
//
//	GET  /healthz            – liveness probe, no authentication
//	GET  /metrics             – Prometheus exposition, no authentication
//	GET  /api/v1/status       – process + scheduler summary, no authentication
//	GET  /api/v1/drones       – current live-set snapshot, no authentication
//	POST /api/v1/reload       – JWT-protected hot-reload trigger
//
// jwtSecret gates only /api/v1/reload; an empty secret disables that route
// entirely rather than serving it unauthenticated.
func NewRouter(deps *Dependencies, jwtSecret string, logger *log.Logger) http.Handler {
	s := &Server{deps: deps}
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(apimw.Recovery(logger))
	r.Use(apimw.Logging(logger))
	r.Use(apimw.CORS(deps.Config().API.CORSOrigins))

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/drones", s.handleDrones)

		if jwtSecret != "" {
			r.Group(func(r chi.Router) {
				r.Use(RequireJWT(jwtSecret))
				r.Post("/reload", s.handleReload)
			})
		}
	})

	return r
}
