// Package mailer delivers the service's outbound email.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTP sends through a relay with PLAIN auth when credentials are set.
type SMTP struct {
	addr string
	host string
	from string
	auth smtp.Auth
}

func NewSMTP(host string, port int, user, pass, from string) *SMTP {
	s := &SMTP{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		host: host,
		from: from,
	}
	if user != "" {
		s.auth = smtp.PlainAuth("", user, pass, host)
	}
	return s
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := smtp.SendMail(s.addr, s.auth, envelopeAddress(s.from), []string{msg.To}, compose(s.from, msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// compose renders a plain-text RFC 5322 message
func compose(from string, msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return b.Bytes()
}

// envelopeAddress strips a display name: "Name <a@b>" -> "a@b".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}

// Log writes messages to the log instead of delivering them. Used when no
// SMTP relay is configured.
type Log struct{}

func (Log) Send(ctx context.Context, msg Message) error {
	logger.Info("Outbound email (not delivered)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	logger.Debug("Outbound email body", zap.String("body", msg.Body))
	return nil
}

// PasswordReset builds the reset email carrying token, redeemable at
// resetURL.
func PasswordReset(to, token, resetURL string) Message {
	return Message{
		To:      to,
		Subject: "Your password reset token (valid for 10 min)",
		Body: "Your reset token is: " + token + "\n\n" +
			"Submit a PATCH request with your new password and passwordConfirm to:\n" +
			resetURL + "\n\nIf you didn't forget your password, please ignore this email.",
	}
}
