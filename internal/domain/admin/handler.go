package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/lavka/lavka-api/internal/domain/bonus"
	"github.com/lavka/lavka-api/internal/domain/user"
	"github.com/lavka/lavka-api/internal/middleware"
	"github.com/lavka/lavka-api/internal/pkg/response"
	"github.com/lavka/lavka-api/internal/pkg/validator"
)

// Handler serves the admin panel endpoints
type Handler struct {
	service Service
	users   user.Repository
	bonuses bonus.Service
}

// NewHandler creates an admin handler
func NewHandler(service Service, users user.Repository, bonuses bonus.Service) *Handler {
	return &Handler{service: service, users: users, bonuses: bonuses}
}

// ListUsers returns a page of accounts
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)

	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		response.InternalError(w)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, ToUserResponse(&users[i]))
	}
	response.OK(w, out)
}

// UpdateRole changes an account's role
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	if err := h.users.UpdateRole(r.Context(), id, user.Role(req.Role)); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, "user not found")
			return
		}
		log.Error().Err(err).Str("user_id", id.String()).Msg("failed to update role")
		response.InternalError(w)
		return
	}

	h.record(r, "user.role_update", "user", id)
	response.OK(w, map[string]string{"role": req.Role})
}

// BlockUser blocks an account
func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true, "user.block")
}

// UnblockUser unblocks an account
func (h *Handler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false, "user.unblock")
}

func (h *Handler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool, action string) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	if err := h.users.SetBlocked(r.Context(), id, blocked); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, "user not found")
			return
		}
		log.Error().Err(err).Str("user_id", id.String()).Bool("blocked", blocked).Msg("failed to set blocked state")
		response.InternalError(w)
		return
	}

	h.record(r, action, "user", id)
	response.OK(w, map[string]bool{"is_blocked": blocked})
}

// GrantBonus applies a manual ledger entry to an account
func (h *Handler) GrantBonus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	var req GrantBonusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.ValidationError(w, map[string]string{"amount": "must be a decimal number"})
		return
	}

	description := req.Description
	if description == "" {
		description = "manual adjustment"
	}

	tx, err := h.bonuses.Apply(r.Context(), id, amount, bonus.Kind(req.Kind), description)
	if err != nil {
		switch {
		case errors.Is(err, bonus.ErrInvalidAmount), errors.Is(err, bonus.ErrInvalidKind):
			response.ValidationError(w, map[string]string{"amount": err.Error()})
		case errors.Is(err, bonus.ErrInsufficientBalance):
			response.BadRequestCode(w, "INSUFFICIENT_BALANCE", "debit exceeds balance")
		case errors.Is(err, bonus.ErrUserNotFound):
			response.NotFound(w, "user not found")
		default:
			log.Error().Err(err).Str("user_id", id.String()).Msg("failed to apply bonus")
			response.InternalError(w)
		}
		return
	}

	h.record(r, "user.bonus_"+req.Kind, "user", id)
	response.OK(w, map[string]string{
		"transaction_id": tx.ID.String(),
		"amount":         tx.Amount.StringFixed(2),
		"kind":           string(tx.Kind),
	})
}

// ListLogs returns the audit trail, newest first
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)

	logs, total, err := h.service.ListLogs(r.Context(), Pagination{Limit: limit, Offset: offset})
	if err != nil {
		log.Error().Err(err).Msg("failed to list admin logs")
		response.InternalError(w)
		return
	}

	out := make([]LogResponse, 0, len(logs))
	for i := range logs {
		out = append(out, ToLogResponse(&logs[i]))
	}
	response.WithMeta(w, out, response.Meta{Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) record(r *http.Request, action, entityType string, entityID uuid.UUID) {
	adminID, err := middleware.GetUserID(r.Context())
	if err != nil {
		return
	}
	h.service.RecordAction(adminID, action, entityType, entityID)
}

func parsePage(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
