package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lavka/lavka-api/internal/middleware"
	"github.com/lavka/lavka-api/internal/pkg/response"
	"github.com/lavka/lavka-api/internal/pkg/validator"
)

// Handler serves cart endpoints
type Handler struct {
	service Service
}

// NewHandler creates a cart handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// View returns the caller's cart with live totals
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	cart, err := h.service.View(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to load cart")
		response.InternalError(w)
		return
	}

	response.OK(w, ToResponse(cart))
}

// Add puts a product in the cart, accumulating quantity on repeats
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.BadRequest(w, "invalid product id")
		return
	}

	if err := h.service.Add(r.Context(), userID, productID, req.Quantity); err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound):
			response.NotFound(w, "product not found")
		case errors.Is(err, ErrInvalidQuantity):
			response.ValidationError(w, map[string]string{"quantity": err.Error()})
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to add to cart")
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

// Update replaces a line's quantity
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
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

	if err := h.service.SetQuantity(r.Context(), userID, productID, req.Quantity); err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			response.NotFound(w, "cart item not found")
		case errors.Is(err, ErrInvalidQuantity):
			response.ValidationError(w, map[string]string{"quantity": err.Error()})
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to update cart")
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

// Remove deletes a line from the cart
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		response.BadRequest(w, "invalid product id")
		return
	}

	if err := h.service.Remove(r.Context(), userID, productID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			response.NotFound(w, "cart item not found")
			return
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to remove from cart")
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

// Clear empties the cart
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	if err := h.service.Clear(r.Context(), userID); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear cart")
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}
