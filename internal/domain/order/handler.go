package order

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lavka/lavka-api/internal/middleware"
	"github.com/lavka/lavka-api/internal/pkg/response"
	"github.com/lavka/lavka-api/internal/pkg/validator"
	"github.com/lavka/lavka-api/internal/pkg/yookassa"
)

// Handler serves order endpoints
type Handler struct {
	service          Service
	defaultReturnURL string
	audit            Recorder
}

// Recorder is the audit sink for admin order mutations
type Recorder interface {
	RecordAction(adminID uuid.UUID, action, entityType string, entityID uuid.UUID)
}

// NewHandler creates an order handler
func NewHandler(service Service, defaultReturnURL string, audit Recorder) *Handler {
	return &Handler{service: service, defaultReturnURL: defaultReturnURL, audit: audit}
}

// Checkout turns the caller's cart into a pending order
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	o, err := h.service.Checkout(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			response.BadRequestCode(w, "EMPTY_CART", "cart is empty")
		case errors.Is(err, ErrInsufficientStock):
			response.BadRequestCode(w, "INSUFFICIENT_STOCK", err.Error())
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("checkout failed")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, ToResponse(o))
}

// List returns the caller's orders, newest first
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	pagination := parsePagination(r)
	orders, total, err := h.service.ListByUser(r.Context(), userID, pagination)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list orders")
		response.InternalError(w)
		return
	}

	response.WithMeta(w, ToResponseList(orders), response.Meta{
		Total:  total,
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	})
}

// Get returns one order; owners see their own, admins see any
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid order id")
		return
	}

	isAdmin := middleware.GetRole(r.Context()) == middleware.RoleAdmin
	o, err := h.service.GetForUser(r.Context(), userID, orderID, isAdmin)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			response.NotFound(w, "order not found")
			return
		}
		log.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		response.InternalError(w)
		return
	}

	response.OK(w, ToResponse(o))
}

// RequestPayment registers the order with YooKassa and returns the
// confirmation URL the client should redirect to
func (h *Handler) RequestPayment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid order id")
		return
	}

	var req PaymentRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
		if fieldErrors := validator.Validate(req); fieldErrors != nil {
			response.ValidationError(w, fieldErrors)
			return
		}
	}
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = h.defaultReturnURL
	}

	o, err := h.service.RequestPayment(r.Context(), userID, orderID, returnURL)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			response.NotFound(w, "order not found")
		case errors.Is(err, ErrAlreadyPaid):
			response.BadRequestCode(w, "ALREADY_PAID", "order is already paid")
		case errors.Is(err, ErrOrderCancelled):
			response.Conflict(w, "order is cancelled")
		case errors.Is(err, yookassa.ErrProviderUnavailable):
			log.Error().Err(err).Str("order_id", orderID.String()).Msg("payment provider failed")
			response.BadGateway(w, "PAYMENT_PROVIDER_ERROR", "payment provider unavailable, try again")
		default:
			log.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to request payment")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, ToResponse(o))
}

// ListAll returns every order (admin only)
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	pagination := parsePagination(r)
	orders, total, err := h.service.ListAll(r.Context(), pagination)
	if err != nil {
		log.Error().Err(err).Msg("failed to list orders")
		response.InternalError(w)
		return
	}

	response.WithMeta(w, ToResponseList(orders), response.Meta{
		Total:  total,
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	})
}

// UpdateStatus moves an order along the lifecycle (admin only)
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid order id")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	o, err := h.service.UpdateStatus(r.Context(), orderID, Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			response.NotFound(w, "order not found")
		case errors.Is(err, ErrInvalidTransition):
			response.BadRequestCode(w, "INVALID_TRANSITION", err.Error())
		default:
			log.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to update order status")
			response.InternalError(w)
		}
		return
	}

	if h.audit != nil {
		if adminID, err := middleware.GetUserID(r.Context()); err == nil {
			h.audit.RecordAction(adminID, "order.status_update", "order", o.ID)
		}
	}

	response.OK(w, ToResponse(o))
}

// Webhook receives YooKassa payment notifications. Mounted without auth;
// a malformed or unknown notification is rejected, a replay is a no-op.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		response.BadRequestCode(w, "INVALID_WEBHOOK", "malformed notification")
		return
	}

	notification, err := yookassa.ParseNotification(body)
	if err != nil {
		response.BadRequestCode(w, "INVALID_WEBHOOK", "malformed notification")
		return
	}

	if err := h.service.HandlePaymentNotification(r.Context(), *notification); err != nil {
		if errors.Is(err, ErrInvalidWebhook) {
			response.BadRequestCode(w, "INVALID_WEBHOOK", "unknown payment or unexpected status")
			return
		}
		log.Error().Err(err).Str("payment_id", notification.Object.ID).Msg("webhook processing failed")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
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
