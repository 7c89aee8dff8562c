package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes wires customer order endpoints behind authentication
func Routes(handler *Handler, authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", handler.Checkout)
	r.Get("/", handler.List)
	r.Get("/{id}", handler.Get)
	r.Post("/{id}/payment", handler.RequestPayment)

	return r
}

// AdminRoutes wires order administration; the caller mounts them behind
// auth and the admin guard.
func AdminRoutes(handler *Handler, guards ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	for _, guard := range guards {
		r.Use(guard)
	}
	r.Get("/", handler.ListAll)
	r.Put("/{id}/status", handler.UpdateStatus)
	return r
}
