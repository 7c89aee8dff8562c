package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.yookassa.ru/v3"

// ErrProviderUnavailable is returned when YooKassa rejects or fails the call
var ErrProviderUnavailable = errors.New("payment provider unavailable")

// Config holds YooKassa credentials
type Config struct {
	ShopID    string
	SecretKey string
	BaseURL   string // overridable for tests
	Timeout   time.Duration
}

// Client is a YooKassa payments API client
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new YooKassa client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreatePaymentRequest represents a payment creation request
type CreatePaymentRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	ReturnURL   string
}

// CreatePaymentResponse carries the provider payment id and redirect URL
type CreatePaymentResponse struct {
	PaymentID       string
	ConfirmationURL string
	Status          string
}

type amountPayload struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type confirmationPayload struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type createPaymentPayload struct {
	Amount       amountPayload       `json:"amount"`
	Confirmation confirmationPayload `json:"confirmation"`
	Capture      bool                `json:"capture"`
	Description  string              `json:"description"`
}

type paymentObject struct {
	ID           string               `json:"id"`
	Status       string               `json:"status"`
	Confirmation *confirmationPayload `json:"confirmation,omitempty"`
}

// CreatePayment registers a payment with YooKassa and returns the redirect URL.
// Each call carries a fresh Idempotence-Key, so a retried HTTP request cannot
// register the payment twice on the provider side.
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("yookassa: amount must be positive")
	}
	if strings.TrimSpace(c.config.ShopID) == "" || strings.TrimSpace(c.config.SecretKey) == "" {
		return nil, fmt.Errorf("yookassa: shop credentials are not configured")
	}

	currency := req.Currency
	if currency == "" {
		currency = "RUB"
	}

	payload := createPaymentPayload{
		Amount: amountPayload{
			Value:    req.Amount.StringFixed(2),
			Currency: currency,
		},
		Confirmation: confirmationPayload{
			Type:      "redirect",
			ReturnURL: req.ReturnURL,
		},
		Capture:     true,
		Description: req.Description,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("yookassa: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/payments", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("yookassa: build request: %w", err)
	}
	httpReq.SetBasicAuth(c.config.ShopID, c.config.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotence-Key", uuid.New().String())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrProviderUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var obj paymentObject
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrProviderUnavailable, err)
	}
	if obj.ID == "" || obj.Confirmation == nil || obj.Confirmation.ConfirmationURL == "" {
		return nil, fmt.Errorf("%w: incomplete payment object", ErrProviderUnavailable)
	}

	return &CreatePaymentResponse{
		PaymentID:       obj.ID,
		ConfirmationURL: obj.Confirmation.ConfirmationURL,
		Status:          obj.Status,
	}, nil
}
