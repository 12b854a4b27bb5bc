// Package http provides the inbound HTTP surface of the service.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Route("/conversations", func(r chi.Router) {
		r.Post("/upload", h.Upload)

		r.Post("/lead", h.CreateObject("Lead"))
		r.Post("/contact", h.CreateObject("Contact"))
		r.Post("/account", h.CreateObject("Account"))
		r.Post("/opportunity", h.CreateObject("Opportunity"))
		r.Post("/task", h.CreateObject("Task"))

		r.Put("/contact/{id}", h.UpdateObject("Contact"))
		r.Put("/account/{id}", h.UpdateObject("Account"))
		r.Put("/opportunity/{id}", h.UpdateObject("Opportunity"))
		r.Put("/task/{id}", h.UpdateObject("Task"))

		r.Get("/query", h.Query)
	})

	return r
}
