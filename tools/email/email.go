package email

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/tools/email/sendgrid"
)

// Sender dispatches one message through a transactional email capability.
type Sender interface {
	Send(ctx context.Context, from, to, subject, htmlBody string) (string, error)
}

var ErrNotConfigured = errors.New("email sender not configured")

// NewSender builds the configured sender. Only SendGrid is wired today.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.Enabled {
		return nil, ErrNotConfigured
	}
	return sendgrid.Sender{ApiKey: cfg.APIKey, Timeout: cfg.Timeout}, nil
}
