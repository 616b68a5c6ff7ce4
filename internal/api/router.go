/**
 * @description
 * This file sets up the HTTP router for the payout-account-service using the
 * `chi` routing library. It defines all the API routes and applies necessary
 * middleware.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: The routing library.
 * - The service's internal packages for handlers and middleware.
 */
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/payvault/payout-account-service/internal/app"
	"github.com/payvault/payout-account-service/internal/config"
	"github.com/payvault/payout-account-service/pkg/middleware"
)

// NewRouter creates and configures a new HTTP router.
func NewRouter(cfg *config.Config, service *app.BankAccountService) http.Handler {
	r := chi.NewRouter()

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	accountHandler := NewBankAccountHandler(service)
	bankHandler := NewBankHandler(service)

	// Group routes that require authentication
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.JWTSecret))

		r.Route("/bank-accounts", func(r chi.Router) {
			r.Post("/", accountHandler.AddBankAccount)
			r.Get("/", accountHandler.ListBankAccounts)
			r.Post("/{id}/verify", accountHandler.VerifyBankAccount)
			r.Post("/{id}/primary", accountHandler.SetPrimaryBankAccount)
			r.Delete("/{id}", accountHandler.DeleteBankAccount)
		})

		r.Route("/banks", func(r chi.Router) {
			r.Get("/", bankHandler.ListBanks)
			r.Get("/resolve", bankHandler.ResolveAccountName)
		})
	})

	return r
}
