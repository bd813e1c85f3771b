// Command mailtester serves the mail template tester: an HTML editor with live
// preview and an endpoint that sends the template as a test email.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/pure-golang/mailtester/httpserver"
	"github.com/pure-golang/mailtester/httpserver/std"
	"github.com/pure-golang/mailtester/logger"
	"github.com/pure-golang/mailtester/metrics"
	"github.com/pure-golang/mailtester/preview"
	"github.com/pure-golang/mailtester/router"
	"github.com/pure-golang/mailtester/sendmail"
	"github.com/pure-golang/mailtester/tracing"
	"github.com/pure-golang/mailtester/tracing/jaeger"
	"github.com/pure-golang/mailtester/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Default().Error("mailtester stopped", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger.InitDefault(cfg.Logger)
	log := slog.Default()

	metricsCloser, err := metrics.InitDefault(cfg.Metrics)
	if err != nil {
		return errors.Wrap(err, "failed to init metrics")
	}
	defer closeLogged(log, "metrics", metricsCloser)

	if cfg.Tracing.Enabled() {
		provider, err := tracing.Init(jaeger.NewProviderBuilder(cfg.Tracing))
		if err != nil {
			log.Warn("tracing disabled", "error", err.Error())
		}
		defer closeLogged(log, "tracing", provider)
	}

	if !cfg.Credentials.Complete() {
		log.Warn("SMTP_USER or SMTP_PASSWORD is not set, every send will fail")
	}

	factory, err := transportFactory(cfg.Mail.Provider, cfg.SMTP)
	if err != nil {
		return err
	}

	page, err := web.NewHandler(cfg.Web)
	if err != nil {
		return err
	}

	dispatcher := sendmail.NewDispatcher(cfg.Credentials, factory)
	handler := router.New(cfg.Router, router.Handlers{
		Page:     page,
		SendMail: sendmail.NewHandler(dispatcher, cfg.Handler),
		Preview:  preview.NewHandler(cfg.Handler.MaxBodyBytes),
	})

	return serve(ctx, std.NewDefault(cfg.Server, handler))
}

// serve runs the server until ctx is done or the server stops on its own.
// A server that fails to start ends the process with its error.
func serve(ctx context.Context, server httpserver.Provider) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err == nil {
			err = errors.New("webserver stopped unexpectedly")
		}
		return errors.Wrap(err, "webserver failed")
	case <-ctx.Done():
		slog.Default().Info("shutting down")
		return server.Close()
	}
}

func closeLogged(log *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+name, "error", err.Error())
	}
}
