package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// unmatchedPath labels requests no route of the router matched.
const unmatchedPath = "unmatched"

// Middleware records request count and duration for the given handler.
// It must run inside a chi router, requests are labeled with the pattern of the matched route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start).Seconds()
		path := routeLabel(r)
		status := strconv.Itoa(rec.status)
		RequestTotal.WithLabelValues(r.Method, path, status).Inc()
		RequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedPath
	}

	pattern := rctx.RoutePattern()
	switch pattern {
	case "":
		return unmatchedPath
	case "/":
		return "root"
	default:
		return strings.Trim(pattern, "/")
	}
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
