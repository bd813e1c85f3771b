package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pure-golang/mailtester/mail/noop"
	"github.com/pure-golang/mailtester/mail/smtp"
	"github.com/pure-golang/mailtester/sendmail"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("MAIL_DEFAULT_NAME=From File\n"), 0o600))

	t.Setenv("SMTP_USER", "account@example.com")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("WEBSERVER_PORT", "8081")
	t.Setenv("MAIL_PROVIDER", "noop")

	cfg, err := loadConfig(file)
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Unsetenv("MAIL_DEFAULT_NAME") })

	assert.Equal(t, "noop", cfg.Mail.Provider)
	assert.Equal(t, sendmail.Credentials{User: "account@example.com", Password: "secret"}, cfg.Credentials)
	assert.Equal(t, "account@example.com", cfg.SMTP.Username)
	assert.Equal(t, "gmail", cfg.SMTP.Service)
	assert.True(t, cfg.SMTP.TLS)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "From File", cfg.Web.DefaultName)
	assert.Equal(t, "Email template testing", cfg.Web.DefaultSubject)
	assert.Equal(t, int64(sendmail.DefaultMaxBodyBytes), cfg.Handler.MaxBodyBytes)
	assert.Equal(t, []string{"*"}, cfg.Router.AllowedOrigins)
	assert.False(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Tracing.Enabled())
}

func TestTransportFactory(t *testing.T) {
	creds := sendmail.Credentials{User: "account@example.com", Password: "secret"}

	t.Run("smtp", func(t *testing.T) {
		factory, err := transportFactory("smtp", smtp.Config{Service: "gmail", TLS: true})
		require.NoError(t, err)

		sender := factory(creds)
		assert.IsType(t, &smtp.Sender{}, sender)
		require.NoError(t, sender.Close())
	})

	t.Run("empty provider means smtp", func(t *testing.T) {
		factory, err := transportFactory("", smtp.Config{Host: "mail.example.com"})
		require.NoError(t, err)
		assert.IsType(t, &smtp.Sender{}, factory(creds))
	})

	t.Run("noop", func(t *testing.T) {
		factory, err := transportFactory(" NOOP ", smtp.Config{})
		require.NoError(t, err)
		assert.IsType(t, &noop.Sender{}, factory(creds))
	})

	t.Run("bad smtp service", func(t *testing.T) {
		_, err := transportFactory("smtp", smtp.Config{Service: "pigeon"})
		require.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := transportFactory("carrier", smtp.Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown mail provider")
	})
}
