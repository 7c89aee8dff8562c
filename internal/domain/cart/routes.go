package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes wires cart endpoints behind authentication
func Routes(handler *Handler, authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", handler.View)
	r.Delete("/", handler.Clear)
	r.Post("/items", handler.Add)
	r.Put("/items/{productID}", handler.Update)
	r.Delete("/items/{productID}", handler.Remove)

	return r
}
