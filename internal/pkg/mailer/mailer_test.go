package mailer_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/mailer"
)

func TestBuildPasswordReset(t *testing.T) {
	link := "https://app.beautypro.com/redefinir-senha?token=abc.def"

	msg, err := mailer.BuildPasswordReset("nao-responda@beautypro.com", "maria@example.com", link)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "maria@example.com")
	assert.Contains(t, out, link)
}

func TestBuildPasswordReset_InvalidRecipient(t *testing.T) {
	_, err := mailer.BuildPasswordReset("nao-responda@beautypro.com", "não é email", "x")

	assert.Error(t, err)
}

func TestLogMailer(t *testing.T) {
	var s mailer.Sender = mailer.LogMailer{Logger: logger.NewNop()}

	assert.NoError(t, s.SendPasswordReset(context.Background(), "a@b.com", "link"))
}
