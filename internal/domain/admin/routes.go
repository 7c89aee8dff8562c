package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes wires admin panel endpoints; the caller mounts them behind auth
// and the admin guard.
func Routes(handler *Handler, guards ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	for _, guard := range guards {
		r.Use(guard)
	}

	r.Get("/users", handler.ListUsers)
	r.Put("/users/{id}/role", handler.UpdateRole)
	r.Post("/users/{id}/block", handler.BlockUser)
	r.Post("/users/{id}/unblock", handler.UnblockUser)
	r.Post("/users/{id}/bonuses", handler.GrantBonus)

	r.Get("/logs", handler.ListLogs)

	return r
}
