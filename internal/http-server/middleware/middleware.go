package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"blinkitparser/internal/http-server/respond"

	"github.com/google/uuid"
)

const ridHeader = "X-Request-Id"

// recorder captures what the wrapped handler answered for the access log.
// A handler that never writes a status ends up as 200, same as the real
// ResponseWriter would send.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(p []byte) (int, error) {
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// WithRequestID tags request and response with an id, keeping one the caller
// already sent.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(ridHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		r.Header.Set(ridHeader, rid)
		w.Header().Set(ridHeader, rid)

		next.ServeHTTP(w, r)
	})
}

// AccessLog records ops requests at debug: Prometheus polls /metrics every
// scrape interval and the run log should stay about pages and pairs.
func AccessLog(log *slog.Logger, next http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newRecorder(w)
		start := time.Now()

		next.ServeHTTP(rec, r)

		log.Debug("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
			"rid", r.Header.Get(ridHeader),
		)
	})
}

// RecoverPanic turns handler panics into a 500 instead of tearing down the
// scrape process together with its ops listener.
func RecoverPanic(log *slog.Logger, next http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			log.Error("panic recovered",
				"panic", v,
				"rid", r.Header.Get(ridHeader),
				"stack", string(debug.Stack()),
			)
			respond.WriteError(w, http.StatusInternalServerError, "internal_error", "panic")
		}()

		next.ServeHTTP(w, r)
	})
}
