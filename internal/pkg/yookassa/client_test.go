package yookassa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCreatePayment(t *testing.T) {
	var captured createPaymentPayload
	var idempotenceKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "shop-1" || pass != "secret" {
			t.Errorf("bad basic auth: %s / %s", user, pass)
		}
		idempotenceKey = r.Header.Get("Idempotence-Key")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode payload: %v", err)
		}

		json.NewEncoder(w).Encode(paymentObject{
			ID:     "2e8b7f7a-000f-5000-9000-1e54e8aa0001",
			Status: StatusPending,
			Confirmation: &confirmationPayload{
				Type:            "redirect",
				ConfirmationURL: "https://yookassa.test/confirm/abc",
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{ShopID: "shop-1", SecretKey: "secret", BaseURL: server.URL})

	resp, err := client.CreatePayment(context.Background(), CreatePaymentRequest{
		Amount:      decimal.RequireFromString("1234.5"),
		Description: "Order test",
		ReturnURL:   "https://shop.test/return",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if resp.PaymentID != "2e8b7f7a-000f-5000-9000-1e54e8aa0001" {
		t.Errorf("payment id = %s", resp.PaymentID)
	}
	if resp.ConfirmationURL != "https://yookassa.test/confirm/abc" {
		t.Errorf("confirmation url = %s", resp.ConfirmationURL)
	}
	if captured.Amount.Value != "1234.50" {
		t.Errorf("amount = %s, want 1234.50", captured.Amount.Value)
	}
	if captured.Amount.Currency != "RUB" {
		t.Errorf("currency = %s, want RUB", captured.Amount.Currency)
	}
	if !captured.Capture {
		t.Error("capture not set")
	}
	if captured.Confirmation.ReturnURL != "https://shop.test/return" {
		t.Errorf("return url = %s", captured.Confirmation.ReturnURL)
	}
	if idempotenceKey == "" {
		t.Error("idempotence key missing")
	}
}

func TestCreatePaymentProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{ShopID: "shop-1", SecretKey: "secret", BaseURL: server.URL})

	_, err := client.CreatePayment(context.Background(), CreatePaymentRequest{
		Amount: decimal.NewFromInt(100),
	})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestCreatePaymentRejectsNonPositiveAmount(t *testing.T) {
	client := NewClient(Config{ShopID: "shop-1", SecretKey: "secret"})

	_, err := client.CreatePayment(context.Background(), CreatePaymentRequest{Amount: decimal.Zero})
	if err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestParseNotification(t *testing.T) {
	raw := []byte(`{
		"type": "notification",
		"event": "payment.succeeded",
		"object": {"id": "pay-1", "status": "succeeded"}
	}`)

	n, err := ParseNotification(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !n.Succeeded() {
		t.Error("expected succeeded notification")
	}
	if n.Object.ID != "pay-1" {
		t.Errorf("payment id = %s", n.Object.ID)
	}
}

func TestParseNotificationRejectsMalformed(t *testing.T) {
	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`{}`),
		[]byte(`{"event":"payment.succeeded","object":{"id":"","status":"succeeded"}}`),
		[]byte(`{"event":"payment.succeeded","object":{"id":"pay-1","status":""}}`),
	}
	for i, raw := range cases {
		if _, err := ParseNotification(raw); !errors.Is(err, ErrMalformedNotification) {
			t.Errorf("case %d: expected ErrMalformedNotification, got %v", i, err)
		}
	}
}

func TestNotificationSucceeded(t *testing.T) {
	var n Notification
	n.Event = EventPaymentSucceeded
	n.Object.Status = StatusCanceled
	if n.Succeeded() {
		t.Error("canceled status reported succeeded")
	}

	n.Object.Status = StatusSucceeded
	n.Event = "payment.waiting_for_capture"
	if n.Succeeded() {
		t.Error("wrong event reported succeeded")
	}
}
