// Package httpserver is the operational side surface of a scrape run:
// Prometheus metrics and a liveness probe. It serves no product data.
package httpserver

import (
	"log/slog"
	"net/http"

	"blinkitparser/internal/http-server/middleware"
	"blinkitparser/internal/http-server/respond"
)

type Server struct {
	log *slog.Logger
	mux *http.ServeMux
}

func New(log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{log: log, mux: http.NewServeMux()}
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = middleware.WithRequestID(h)
	h = middleware.RecoverPanic(s.log, h)
	h = middleware.AccessLog(s.log, h)
	return h
}

type Deps struct {
	// Metrics serves the run's Prometheus registry.
	Metrics http.Handler
}

func (s *Server) RegisterRoutes(dep Deps) {
	if dep.Metrics != nil {
		s.mux.Handle("/metrics", dep.Metrics)
	}

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respond.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET only")
			return
		}
		respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
