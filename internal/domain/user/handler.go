package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/lavka/lavka-api/internal/middleware"
	"github.com/lavka/lavka-api/internal/pkg/response"
	"github.com/lavka/lavka-api/internal/pkg/validator"
)

// Handler serves profile endpoints
type Handler struct {
	service Service
}

// NewHandler creates a profile handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetProfile returns the caller's account
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	u, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, "user not found")
			return
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to load profile")
		response.InternalError(w)
		return
	}

	response.OK(w, ToProfileResponse(u))
}

// UpdateProfile applies a partial update to the caller's account
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			response.NotFound(w, "user not found")
		case errors.Is(err, ErrLoginAlreadyExists):
			response.Conflict(w, "login already registered")
		case errors.Is(err, ErrEmailAlreadyExists):
			response.Conflict(w, "email already registered")
		case errors.Is(err, ErrPhoneAlreadyExists):
			response.Conflict(w, "phone already registered")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to update profile")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, ToProfileResponse(u))
}
