package bonus

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns bonus router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.Get)
	return r
}
