package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/getresult", h.GetResult).Methods(http.MethodPost)
	r.HandleFunc("/getresultwithoutrag", h.GetResultWithoutRAG).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

type StackOptions struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Wrap puts the standard middleware chain around next, outermost first:
// recovery, request ID, logging, CORS, rate limiting.
func Wrap(next http.Handler, logger *zap.Logger, opts StackOptions) http.Handler {
	return Chain(next,
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger, "/metrics"),
		CORSMiddleware(opts.AllowedOrigins),
		RateLimitMiddleware(opts.RateLimitRPS, opts.RateLimitBurst, "/", "/metrics"),
	)
}
