package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Mailer sends transactional email
type Mailer interface {
	SendPasswordResetCode(ctx context.Context, to, code string) error
}

// SendGridConfig holds SendGrid configuration
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridClient sends emails via the SendGrid API
type SendGridClient struct {
	config     SendGridConfig
	httpClient *http.Client
}

// NewSendGridClient creates a new SendGrid email client
func NewSendGridClient(config SendGridConfig) *SendGridClient {
	return &SendGridClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmail             `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

type sendGridPersonalization struct {
	To []sendGridEmail `json:"to"`
}

type sendGridEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// SendPasswordResetCode emails a short-lived password reset code
func (c *SendGridClient) SendPasswordResetCode(ctx context.Context, to, code string) error {
	body := fmt.Sprintf("Your password reset code is %s. It expires in 15 minutes.", code)
	return c.send(ctx, to, "Password reset code", body)
}

func (c *SendGridClient) send(ctx context.Context, to, subject, textBody string) error {
	if c.config.APIKey == "" {
		// Development mode: log instead of sending
		log.Info().Str("to", to).Str("subject", subject).Msg("SendGrid disabled, skipping email")
		return nil
	}

	payload := sendGridRequest{
		Personalizations: []sendGridPersonalization{{To: []sendGridEmail{{Email: to}}}},
		From:             sendGridEmail{Email: c.config.FromEmail, Name: c.config.FromName},
		Subject:          subject,
		Content:          []sendGridContent{{Type: "text/plain", Value: textBody}},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sendgrid: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.sendgrid.com/v3/mail/send", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("sendgrid: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d", resp.StatusCode)
	}
	return nil
}
