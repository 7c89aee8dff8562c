package yookassa

import (
	"encoding/json"
	"errors"
)

// Payment statuses reported by YooKassa
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusCanceled  = "canceled"
)

// EventPaymentSucceeded is the webhook event for a captured payment
const EventPaymentSucceeded = "payment.succeeded"

// ErrMalformedNotification is returned for payloads that do not carry a payment object
var ErrMalformedNotification = errors.New("malformed yookassa notification")

// Notification is the inbound webhook payload
type Notification struct {
	Type   string `json:"type"`
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"object"`
}

// ParseNotification decodes and minimally validates a webhook body
func ParseNotification(body []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, ErrMalformedNotification
	}
	if n.Object.ID == "" || n.Object.Status == "" {
		return nil, ErrMalformedNotification
	}
	return &n, nil
}

// Succeeded reports whether the notification confirms a captured payment
func (n *Notification) Succeeded() bool {
	return n.Event == EventPaymentSucceeded && n.Object.Status == StatusSucceeded
}
