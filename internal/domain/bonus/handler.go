package bonus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lavka/lavka-api/internal/middleware"
	"github.com/lavka/lavka-api/internal/pkg/response"
)

// Handler handles bonus HTTP requests
type Handler struct {
	service Service
}

// NewHandler creates bonus handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// TransactionResponse represents a ledger row in API responses
type TransactionResponse struct {
	ID          uuid.UUID `json:"id"`
	Amount      string    `json:"amount"`
	Kind        string    `json:"kind"`
	Description string    `json:"description,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

// BalanceResponse represents the account's bonus state
type BalanceResponse struct {
	Balance      string                `json:"balance"`
	Transactions []TransactionResponse `json:"transactions"`
}

// Get handles GET /bonuses, returning the balance plus a ledger page
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		if err == ErrUserNotFound {
			response.NotFound(w, "User not found")
			return
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to get bonus balance")
		response.InternalError(w)
		return
	}

	transactions, err := h.service.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list bonus transactions")
		response.InternalError(w)
		return
	}

	resp := BalanceResponse{
		Balance:      balance.String(),
		Transactions: make([]TransactionResponse, 0, len(transactions)),
	}
	for _, t := range transactions {
		resp.Transactions = append(resp.Transactions, TransactionResponse{
			ID:          t.ID,
			Amount:      t.Amount.String(),
			Kind:        string(t.Kind),
			Description: t.Description,
			CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		})
	}

	response.OK(w, resp)
}
