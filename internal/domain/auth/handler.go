package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/lavka/lavka-api/internal/domain/user"
	"github.com/lavka/lavka-api/internal/middleware"
	"github.com/lavka/lavka-api/internal/pkg/response"
	"github.com/lavka/lavka-api/internal/pkg/validator"
)

// Handler serves authentication endpoints
type Handler struct {
	service *Service
	mailer  Mailer
}

// NewHandler creates auth handler
func NewHandler(service *Service, mailer Mailer) *Handler {
	return &Handler{service: service, mailer: mailer}
}

// Register creates an account and returns a token pair
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrLoginAlreadyExists):
			response.Conflict(w, "login already registered")
		case errors.Is(err, user.ErrEmailAlreadyExists):
			response.Conflict(w, "email already registered")
		case errors.Is(err, user.ErrPhoneAlreadyExists):
			response.Conflict(w, "phone already registered")
		case errors.Is(err, ErrInvalidReferralCode):
			response.ValidationError(w, map[string]string{"referral_code": err.Error()})
		default:
			log.Error().Err(err).Msg("registration failed")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, resp)
}

// Login exchanges credentials for a token pair
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Unauthorized(w, "invalid login or password")
		case errors.Is(err, ErrUserBlocked):
			response.Forbidden(w, "account is blocked")
		default:
			log.Error().Err(err).Msg("login failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, resp)
}

// Refresh rotates a refresh token
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRefreshToken), errors.Is(err, ErrRefreshTokenRequired), errors.Is(err, ErrUserNotFound):
			response.Unauthorized(w, "invalid or expired refresh token")
		case errors.Is(err, ErrUserBlocked):
			response.Forbidden(w, "account is blocked")
		default:
			log.Error().Err(err).Msg("token refresh failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, resp)
}

// Logout invalidates the supplied refresh token
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		log.Error().Err(err).Msg("logout failed")
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

// Me returns the authenticated account
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	resp, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, "user not found")
			return
		}
		log.Error().Err(err).Msg("failed to load current user")
		response.InternalError(w)
		return
	}

	response.OK(w, resp)
}

// ForgotPassword mails a reset code. The response never reveals whether
// the email is registered.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email, h.mailer); err != nil {
		log.Error().Err(err).Msg("forgot password failed")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "sent"})
}

// ResetPassword verifies the emailed code and sets a new password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	if err := h.service.ResetPassword(r.Context(), &req); err != nil {
		if errors.Is(err, ErrInvalidResetCode) {
			response.BadRequestCode(w, "INVALID_RESET_CODE", "invalid or expired reset code")
			return
		}
		log.Error().Err(err).Msg("password reset failed")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "password updated"})
}
