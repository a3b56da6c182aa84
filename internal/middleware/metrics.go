package middleware

import (
	"net/http"
	"time"

	"github.com/onecard-labs/cardassist/pkg/metrics"
)

// Metrics measures request duration and status, reporting them to Prometheus.
// The route pattern, not the raw URL, is used as the path label so session
// IDs never become label values.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordHTTPRequest(r.Method, path, status, time.Since(start))
	})
}
