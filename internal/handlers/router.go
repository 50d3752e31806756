package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kevin07696/authorizenet-gateway/internal/middleware"
	pkgmiddleware "github.com/kevin07696/authorizenet-gateway/pkg/middleware"
	"github.com/kevin07696/authorizenet-gateway/pkg/observability"
	"github.com/kevin07696/authorizenet-gateway/pkg/resilience"
)

// RouterConfig holds the cross-cutting pieces of the HTTP stack
type RouterConfig struct {
	RateLimiter *pkgmiddleware.RateLimiter // nil disables rate limiting
	Timeouts    *resilience.TimeoutConfig  // nil uses resilience.DefaultTimeoutConfig
	Development bool
}

// NewRouter mounts the API under /api/v1
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	timeouts := cfg.Timeouts
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(observability.HTTPMiddleware)
	r.Use(middleware.NewSecurityHeaders(cfg.Development).Middleware)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Batches run many lifecycle calls in one request
		r.With(withTimeout(timeouts.BatchContext)).Post("/transactions/batch/{op}", h.RunBatch)

		r.Group(func(r chi.Router) {
			r.Use(withTimeout(timeouts.HandlerContext))

			// Gateways.
			r.Post("/gateways", h.CreateGateway)
			r.Get("/gateways/{id}", h.GetGateway)

			// Parties.
			r.Post("/parties", h.CreateParty)
			r.Post("/parties/{id}/addresses", h.CreateAddress)
			r.Post("/parties/{id}/payment-profiles", h.AddPaymentProfile)

			// Payment profiles.
			r.Post("/payment-profiles/{id}/validate", h.ValidatePaymentProfile)
			r.Delete("/payment-profiles/{id}", h.DeactivatePaymentProfile)

			// Transactions.
			r.Post("/transactions", h.CreateTransaction)
			r.Get("/transactions/{id}", h.GetTransaction)
			r.Get("/transactions/{id}/logs", h.GetTransactionLogs)
			r.Post("/transactions/{id}/{op}", h.RunOperation)
		})
	})

	return r
}

func withTimeout(bound func(context.Context) (context.Context, context.CancelFunc)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := bound(r.Context())
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
