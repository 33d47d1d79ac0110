package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// RouterOptions groups dependencies for NewRouter.
type RouterOptions struct {
	Jobs   *JobHandlers // Required: job handlers
	Logger *slog.Logger // Optional: request logging
}

// NewRouter builds the API mux.
func NewRouter(opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	mux.HandleFunc("POST /api/generation/jobs", opts.Jobs.CreateJob)
	mux.HandleFunc("GET /api/generation/jobs/{id}", opts.Jobs.GetJob)
	mux.HandleFunc("POST /api/generation/run", opts.Jobs.RunCycle)
	mux.HandleFunc("GET /api/generation/stats", opts.Jobs.Stats)

	var handler http.Handler = mux
	if opts.Logger != nil {
		handler = requestLogger(opts.Logger, handler)
	}
	return handler
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
