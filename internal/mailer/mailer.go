package mailer

import (
	"context"
	"fmt"
	"log/slog"
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail %q has no recipient", msg.Subject)
	}
	m.logger.InfoContext(ctx, "mail queued",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}

func VerifyMessage(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Verify your account",
		Body:    "Finish registering by following this link: " + link,
	}
}

func PasswordResetMessage(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Reset your password",
		Body:    "A password reset was requested for this address. Choose a new password here: " + link,
	}
}

func EmailChangeMessage(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Confirm your new email address",
		Body:    "Confirm this address for your account by following this link: " + link,
	}
}
