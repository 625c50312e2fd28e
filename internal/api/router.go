/**
 * @description
 * This file sets up the HTTP router for the enrollment-service. It defines the
 * webhook and API endpoints, associates them with their handlers, and applies
 * middleware for logging, panic recovery, timeouts, CORS, and authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the web client.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EnrollmentRoutes creates and returns the router for the enrollment service.
func EnrollmentRoutes(
	h *EnrollmentHandlers,
	webhooks *WebhookHandlers,
	clerkWebhooks *ClerkWebhookHandlers,
	jwksURL string,
	internalAPIKey string,
) http.Handler {
	r := chi.NewRouter()

	// Standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Provider webhooks authenticate through their signatures, not JWTs.
	r.Post("/webhooks/stripe", webhooks.StripeWebhookHandler)
	r.Post("/webhooks/clerk", clerkWebhooks.ClerkWebhookHandler)

	// Student-facing endpoints require a Clerk JWT.
	r.Group(func(r chi.Router) {
		r.Use(ClerkAuthMiddleware(jwksURL))

		r.Get("/me/enrollments", h.ListMyEnrollmentsHandler)
	})

	// Server-to-server endpoints for support and reconciliation tooling.
	r.Group(func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalAPIKey))

		r.Get("/internal/purchases/{id}", h.GetPurchaseHandler)
	})

	return r
}
