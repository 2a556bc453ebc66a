package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	raw := string(compose("FastMemo <noreply@x.com>", Message{
		To:      "a@x.com",
		Subject: "Hi",
		Body:    "line1\nline2",
	}))

	assert.True(t, strings.HasPrefix(raw, "From: FastMemo <noreply@x.com>\r\n"))
	assert.Contains(t, raw, "To: a@x.com\r\n")
	assert.Contains(t, raw, "Subject: Hi\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nline1\r\nline2"))
}

func TestEnvelopeAddress(t *testing.T) {
	assert.Equal(t, "noreply@x.com", envelopeAddress("FastMemo <noreply@x.com>"))
	assert.Equal(t, "noreply@x.com", envelopeAddress("noreply@x.com"))
}

func TestPasswordReset(t *testing.T) {
	msg := PasswordReset("a@x.com", "abc", "http://host/api/v1/users/resetPassword/abc")
	assert.Equal(t, "a@x.com", msg.To)
	assert.Contains(t, msg.Body, "Your reset token is: abc")
	assert.Contains(t, msg.Body, "/resetPassword/abc")
}

func TestSMTPHonoursCancelledContext(t *testing.T) {
	s := NewSMTP("127.0.0.1", 1, "", "", "noreply@x.com")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Send(ctx, Message{To: "a@x.com"}), context.Canceled)
}
