package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/arnac-io/tokensweep/pkg/core"
)

const requestIDHeader = "X-Request-ID"

var httpResponseTimeMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 10, 60},
}, []string{"operation", "status"})

// requestID keeps the caller's request id or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)

			operation := chi.RouteContext(r.Context()).RoutePattern()
			httpResponseTimeMetric.WithLabelValues(operation, strconv.Itoa(ww.Status())).Observe(time.Since(started).Seconds())
			fields := []zap.Field{
				zap.String("operation", operation),
				zap.String("path", r.URL.Path),
				zap.String("request_id", r.Header.Get(requestIDHeader)),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(started)),
			}
			if ww.Status() >= http.StatusInternalServerError {
				logger.Error("Fail", fields...)
				return
			}
			logger.Info("Handled request", fields...)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, &errorJSON{Error: msg})
}

// errorsHandler maps domain errors to HTTP statuses.
func errorsHandler(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrSignerRejected):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrEntityNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrSubmissionFailed):
		status = http.StatusBadGateway
	case errors.Is(err, core.ErrDependencyUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, &errorJSON{Error: err.Error()})
}
