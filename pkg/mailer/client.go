package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/marisca-pt/marisca-backend/pkg/config"
)

// Message is a single outbound transactional email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client delivers email through SendGrid.
type Client struct {
	api         *sendgrid.Client
	fromName    string
	fromAddress string
}

// New builds a SendGrid-backed mailer from configuration.
func New(cfg config.SendgridConfig) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	from := strings.TrimSpace(cfg.DefaultFrom)
	if from == "" {
		return nil, fmt.Errorf("sendgrid default from address is required")
	}
	return &Client{
		api:         sendgrid.NewSendClient(apiKey),
		fromName:    strings.TrimSpace(cfg.FromName),
		fromAddress: from,
	}, nil
}

// Send delivers a single email and fails on non-2xx responses.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c == nil || c.api == nil {
		return fmt.Errorf("mailer not initialized")
	}
	if strings.TrimSpace(msg.ToAddress) == "" {
		return fmt.Errorf("recipient address is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("subject is required")
	}

	from := mail.NewEmail(c.fromName, c.fromAddress)
	to := mail.NewEmail(msg.ToName, msg.ToAddress)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.PlainBody, msg.HTMLBody)

	resp, err := c.api.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected email: status %d", resp.StatusCode)
	}
	return nil
}
