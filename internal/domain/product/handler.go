package product

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lavka/lavka-api/internal/middleware"
	"github.com/lavka/lavka-api/internal/pkg/response"
	"github.com/lavka/lavka-api/internal/pkg/validator"
)

// Handler serves catalog endpoints
type Handler struct {
	service Service
	audit   Recorder
}

// Recorder is the audit sink for admin catalog mutations. Failures are
// logged, never surfaced to the client.
type Recorder interface {
	RecordAction(adminID uuid.UUID, action, entityType string, entityID uuid.UUID)
}

// NewHandler creates a catalog handler
func NewHandler(service Service, audit Recorder) *Handler {
	return &Handler{service: service, audit: audit}
}

// List returns a catalog page
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	pagination := parsePagination(r)

	products, total, err := h.service.List(r.Context(), pagination)
	if err != nil {
		log.Error().Err(err).Msg("failed to list products")
		response.InternalError(w)
		return
	}

	response.WithMeta(w, ToResponseList(products), response.Meta{
		Total:  total,
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	})
}

// Get returns a single product
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid product id")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			response.NotFound(w, "product not found")
			return
		}
		log.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product")
		response.InternalError(w)
		return
	}

	response.OK(w, ToResponse(p))
}

// Create adds a product to the catalog (admin only)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidPrice) || errors.Is(err, ErrInvalidStock) {
			response.ValidationError(w, map[string]string{"price": err.Error()})
			return
		}
		log.Error().Err(err).Msg("failed to create product")
		response.InternalError(w)
		return
	}

	h.recordAction(r, "product.create", p.ID)
	response.Created(w, ToResponse(p))
}

// Update applies a partial update to a product (admin only)
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid product id")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound):
			response.NotFound(w, "product not found")
		case errors.Is(err, ErrNothingToUpdate):
			response.BadRequest(w, "nothing to update")
		case errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrInvalidStock):
			response.ValidationError(w, map[string]string{"price": err.Error()})
		default:
			log.Error().Err(err).Str("product_id", id.String()).Msg("failed to update product")
			response.InternalError(w)
		}
		return
	}

	h.recordAction(r, "product.update", p.ID)
	response.OK(w, ToResponse(p))
}

// Delete removes a product (admin only)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid product id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			response.NotFound(w, "product not found")
			return
		}
		log.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		response.InternalError(w)
		return
	}

	h.recordAction(r, "product.delete", id)
	response.NoContent(w)
}

func (h *Handler) recordAction(r *http.Request, action string, entityID uuid.UUID) {
	if h.audit == nil {
		return
	}
	adminID, err := middleware.GetUserID(r.Context())
	if err != nil {
		return
	}
	h.audit.RecordAction(adminID, action, "product", entityID)
}

func parsePagination(r *http.Request) Pagination {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}
