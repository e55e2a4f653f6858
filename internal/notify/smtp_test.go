package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("auth@example.com", "alice@example.com", "Your code", "123456"))

	assert.True(t, strings.HasPrefix(msg, "From: auth@example.com\r\n"))
	assert.Contains(t, msg, "To: alice@example.com\r\n")
	assert.Contains(t, msg, "Subject: Your code\r\n")
	assert.Contains(t, msg, "\r\n\r\n123456\r\n")
}

func TestSend_CancelledContext(t *testing.T) {
	n := NewSMTPNotifier("localhost", 25, "", "", "auth@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.Send(ctx, "alice@example.com", "s", "b")
	assert.Error(t, err)
}
