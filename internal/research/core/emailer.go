package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/helpers"
	"github.com/mohammad-safakhou/researcher/tools/email"
)

// Emailer delivers a finished report as a formatted HTML email.
type Emailer struct {
	cfg    config.EmailConfig
	sender email.Sender
	logger *log.Logger
}

// NewEmailer creates a report emailer around the given sender.
func NewEmailer(cfg config.EmailConfig, sender email.Sender) *Emailer {
	return &Emailer{
		cfg:    cfg,
		sender: sender,
		logger: log.New(log.Writer(), "[EMAIL] ", log.LstdFlags),
	}
}

// Notify renders the report to sanitized HTML and sends it. Every failure is
// wrapped in a *NotificationError so callers can treat delivery as best
// effort.
func (e *Emailer) Notify(ctx context.Context, report ReportData) error {
	body, err := helpers.MarkdownToEmailHTML(report.MarkdownReport)
	if err != nil {
		return &NotificationError{Err: err}
	}

	var html strings.Builder
	html.WriteString("<html><body>")
	if s := helpers.SanitizeHTMLStrict(report.ShortSummary); s != "" {
		fmt.Fprintf(&html, "<p><em>%s</em></p><hr>", s)
	}
	html.WriteString(body)
	if len(report.FollowUpQuestions) > 0 {
		html.WriteString("<hr><h3>Follow-up questions</h3><ul>")
		for _, q := range report.FollowUpQuestions {
			fmt.Fprintf(&html, "<li>%s</li>", helpers.SanitizeHTMLStrict(q))
		}
		html.WriteString("</ul>")
	}
	html.WriteString("</body></html>")

	status, err := e.sender.Send(ctx, e.cfg.From, e.cfg.To, subjectFor(report), html.String())
	if err != nil {
		return &NotificationError{Err: err}
	}
	e.logger.Printf("report emailed to %s: %s", e.cfg.To, status)
	return nil
}

// subjectFor derives an email subject from the report's short summary.
func subjectFor(report ReportData) string {
	summary := strings.TrimSpace(report.ShortSummary)
	if summary == "" {
		return "Your research report"
	}
	if i := strings.IndexAny(summary, ".\n"); i > 0 {
		summary = summary[:i]
	}
	const maxSubject = 120
	if len(summary) > maxSubject {
		summary = summary[:maxSubject]
	}
	return "Research report: " + summary
}
