// Package mail sends transactional email over SMTP. Delivery is best effort:
// callers treat a send failure as a logged soft failure, never as a reason to
// fail the triggering request.
package mail

import (
	"context"
	"fmt"
	"html"

	gomail "github.com/wneessen/go-mail"

	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/domain"
)

// Mailer sends notification emails. Implementations must be safe for
// concurrent use.
type Mailer interface {
	// SendTodoShared notifies the recipient address that a task was shared
	// with them.
	SendTodoShared(ctx context.Context, recipientEmail string, sender *domain.User, todo *domain.Todo) error
}

// SMTPMailer delivers mail through an SMTP relay using go-mail. Construct it
// only when SMTP settings are present; see config.SMTPConfig.Enabled.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer builds a mailer from SMTP configuration.
func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &SMTPMailer{client: client, from: from}, nil
}

// SendTodoShared implements Mailer.
func (m *SMTPMailer) SendTodoShared(ctx context.Context, recipientEmail string, sender *domain.User, todo *domain.Todo) error {
	senderName := sender.Name
	if senderName == "" {
		senderName = sender.Email
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(recipientEmail); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject(fmt.Sprintf("%s shared a task with you", senderName))
	msg.SetBodyString(gomail.TypeTextPlain, sharedTaskTextBody(senderName, todo))
	msg.AddAlternativeString(gomail.TypeTextHTML, sharedTaskHTMLBody(senderName, todo))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send share email to %s: %w", recipientEmail, err)
	}
	return nil
}

func sharedTaskTextBody(senderName string, todo *domain.Todo) string {
	body := fmt.Sprintf("%s shared the task %q with you.\n", senderName, todo.Title)
	if todo.Description != "" {
		body += "\n" + todo.Description + "\n"
	}
	body += "\nSign in to view the task.\n"
	return body
}

func sharedTaskHTMLBody(senderName string, todo *domain.Todo) string {
	body := fmt.Sprintf("<p><strong>%s</strong> shared the task <strong>%s</strong> with you.</p>",
		html.EscapeString(senderName), html.EscapeString(todo.Title))
	if todo.Description != "" {
		body += fmt.Sprintf("<p>%s</p>", html.EscapeString(todo.Description))
	}
	body += "<p>Sign in to view the task.</p>"
	return body
}
