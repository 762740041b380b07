package sendgrid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const apiURL = "https://api.sendgrid.com/v3/mail/send"

type Sender struct {
	ApiKey  string
	BaseURL string // test override
	Timeout time.Duration
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mail struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Send dispatches one HTML email via the SendGrid v3 API and returns the
// delivery status line.
func (s Sender) Send(ctx context.Context, from, to, subject, htmlBody string) (string, error) {
	// https://www.twilio.com/docs/sendgrid/api-reference/mail-send
	payload := mail{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: from},
		Subject:          subject,
		Content:          []content{{Type: "text/html", Value: htmlBody}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal mail: %w", err)
	}
	endpoint := s.BaseURL
	if endpoint == "" {
		endpoint = apiURL
	}
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.ApiKey)

	timeout := s.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid status %d", resp.StatusCode)
	}
	return resp.Status, nil
}
