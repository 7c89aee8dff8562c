package product

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes wires public catalog endpoints
func Routes(handler *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", handler.List)
	r.Get("/{id}", handler.Get)
	return r
}

// AdminRoutes wires catalog mutation endpoints; the caller mounts them
// behind auth and the admin guard.
func AdminRoutes(handler *Handler, imageHandler *ImageHandler, guards ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	for _, guard := range guards {
		r.Use(guard)
	}
	r.Post("/", handler.Create)
	r.Patch("/{id}", handler.Update)
	r.Delete("/{id}", handler.Delete)
	r.Post("/{id}/image", imageHandler.Upload)
	return r
}
