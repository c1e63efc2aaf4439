package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"racestats/lib/telemetry"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("racestats.internal.report")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Message struct {
	Subject    string
	Body       string
	Recipients []string
	// Attachments are file paths, ex. rendered charts.
	Attachments []string
}

type sendFunc = func(mail *email.Email, addr string, auth smtp.Auth) error

type Mailer struct {
	config SmtpConfig
	send   sendFunc
}

func NewMailer(config SmtpConfig) Mailer {
	return Mailer{
		config: config,
		send: func(mail *email.Email, addr string, auth smtp.Auth) error {
			return mail.Send(addr, auth)
		},
	}
}

func (m Mailer) Send(ctx context.Context, msg Message) error {
	ctx, span := tracer.Start(ctx, "Send")
	defer span.End()
	span.SetAttributes(attribute.Int("recipients", len(msg.Recipients)))

	if m.config.Server == "" || m.config.EmailAddress == "" {
		return errors.New("smtp server and email address must be configured")
	}
	if len(msg.Recipients) == 0 {
		return errors.New("no recipients")
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("racestats <%s>", m.config.EmailAddress)
	mail.To = msg.Recipients
	mail.Subject = msg.Subject
	mail.Text = []byte(msg.Body)
	for _, path := range msg.Attachments {
		_, err := mail.AttachFile(path)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to attach file")
			return err
		}
	}

	port := m.config.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", m.config.Server, port)

	err := m.send(
		mail,
		addr,
		smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		slog.DebugContext(ctx, "smtp server does not support auth, retrying without", "server", addr)
		err = m.send(mail, addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}

	slog.InfoContext(ctx, "sent report", "recipients", strings.Join(msg.Recipients, ", "))
	return nil
}
