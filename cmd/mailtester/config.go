package main

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/pure-golang/mailtester/env"
	"github.com/pure-golang/mailtester/httpserver/std"
	"github.com/pure-golang/mailtester/logger"
	"github.com/pure-golang/mailtester/mail"
	"github.com/pure-golang/mailtester/mail/noop"
	"github.com/pure-golang/mailtester/mail/smtp"
	"github.com/pure-golang/mailtester/metrics"
	"github.com/pure-golang/mailtester/router"
	"github.com/pure-golang/mailtester/sendmail"
	"github.com/pure-golang/mailtester/tracing/jaeger"
	"github.com/pure-golang/mailtester/web"
)

const (
	providerSMTP = "smtp"
	providerNoop = "noop"
)

type mailConfig struct {
	Provider string `envconfig:"MAIL_PROVIDER" default:"smtp"`
}

type config struct {
	Mail        mailConfig
	Credentials sendmail.Credentials
	SMTP        smtp.Config
	Handler     sendmail.HandlerConfig
	Web         web.Config
	Router      router.Config
	Server      std.Config
	Logger      logger.Config
	Metrics     metrics.Config
	Tracing     jaeger.Config
}

// loadConfig fills every section separately so that each keeps the exact
// variable names declared on its own struct.
func loadConfig(files ...string) (config, error) {
	var c config
	sections := []struct {
		name string
		ptr  any
	}{
		{"mail", &c.Mail},
		{"credentials", &c.Credentials},
		{"smtp", &c.SMTP},
		{"handler", &c.Handler},
		{"web", &c.Web},
		{"router", &c.Router},
		{"server", &c.Server},
		{"logger", &c.Logger},
		{"metrics", &c.Metrics},
		{"tracing", &c.Tracing},
	}
	for _, s := range sections {
		if err := env.InitConfig(s.ptr, files...); err != nil {
			return config{}, errors.Wrapf(err, "failed to load %s config", s.name)
		}
	}
	return c, nil
}

// transportFactory returns the factory the dispatcher uses to open one
// transport per request.
func transportFactory(provider string, base smtp.Config) (sendmail.TransportFactory, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", providerSMTP:
		if _, err := base.Resolve(); err != nil {
			return nil, errors.Wrap(err, "invalid smtp config")
		}
		return func(creds sendmail.Credentials) mail.Sender {
			cfg := base
			cfg.Username = creds.User
			cfg.Password = creds.Password
			return smtp.NewSender(cfg, nil)
		}, nil
	case providerNoop:
		return func(sendmail.Credentials) mail.Sender {
			return noop.NewSender().WithLogger(slog.Default())
		}, nil
	default:
		return nil, errors.Errorf("unknown mail provider %q", provider)
	}
}
