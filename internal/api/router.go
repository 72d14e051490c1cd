package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pleadbot/mail-intake/internal/ledger"
)

// NewRouter creates a chi.Mux with all admin routes and middleware
// configured. The surface is unauthenticated and read-only; bind it to
// loopback or an internal interface.
func NewRouter(led ledger.Ledger, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(RecoverMiddleware(log))

	// Health endpoints
	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(led))

	// Prometheus metrics
	r.Method("GET", "/metrics", promhttp.Handler())

	return r
}
