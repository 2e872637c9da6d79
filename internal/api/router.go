/**
 * @description
 * This file sets up the HTTP router for the payout-service. It defines the API
 * endpoints, associates them with their handlers, and applies middleware for
 * logging, panic recovery, timeouts and actor resolution.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes creates and returns the router for the payout service.
func Routes(h *PayoutHandlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Group(func(r chi.Router) {
		r.Use(ActorMiddleware(jwtSecret))

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", h.ListPayoutsHandler)
			r.Post("/", h.CreatePayoutHandler)
			r.Get("/{id}", h.GetPayoutHandler)
			r.Patch("/{id}", h.ChangePayoutStatusHandler)
			r.Delete("/{id}", h.DeletePayoutHandler)
		})

		r.Route("/recipients", func(r chi.Router) {
			r.Post("/", h.CreateRecipientHandler)
			r.Get("/{id}", h.GetRecipientHandler)
			r.Patch("/{id}", h.UpdateRecipientHandler)
			r.Delete("/{id}", h.DeleteRecipientHandler)
		})
	})

	return r
}
