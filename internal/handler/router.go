package handler

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the API, the event stream and the metrics endpoint.
// events may be nil when no SSE hub is running.
func NewRouter(h *GraphHandler, events http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", h.GetGraph)
		r.Get("/nodes", h.ListNodes)
		r.Get("/nodes/{nid}", h.GetNode)
		r.Get("/edges", h.ListEdges)
		r.Get("/shortcuts", h.ListShortcuts)
		r.Get("/view", h.GetView)
		r.Get("/cycles", h.ListCycles)
		r.Get("/source", h.GetSource)
		r.Post("/refresh", h.Refresh)
	})

	if events != nil {
		r.Method(http.MethodGet, "/events", events)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/healthz", h.Healthz)

	return r
}

// RequestLogger logs one line per request at debug level, or warn for
// server errors
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				kv := []interface{}{
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start).Round(time.Microsecond),
					"request_id", middleware.GetReqID(r.Context()),
				}
				if ww.Status() >= http.StatusInternalServerError {
					logger.Warn("request", kv...)
					return
				}
				logger.Debug("request", kv...)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
