package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes wires profile endpoints behind authentication. Order history and
// the bonus ledger are mounted alongside by the caller.
func Routes(handler *Handler, authMiddleware func(http.Handler) http.Handler, extra ...func(r chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", handler.GetProfile)
	r.Put("/", handler.UpdateProfile)

	for _, mount := range extra {
		mount(r)
	}

	return r
}
