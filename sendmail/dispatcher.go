package sendmail

import (
	"context"
	stdErr "errors"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/pure-golang/mailtester/logger"
	"github.com/pure-golang/mailtester/mail"
	"github.com/pure-golang/mailtester/preview"
)

var (
	// ErrConfigMissing means the account credentials are not configured.
	ErrConfigMissing = errors.New("mail account credentials are not configured")
	// ErrDeliveryFailed means the transport could not deliver the message.
	ErrDeliveryFailed = errors.New("mail delivery failed")
)

var (
	meter = otel.GetMeterProvider().Meter("github.com/pure-golang/mailtester/sendmail")
	// nolint:errcheck // Sync OpenTelemetry instruments never return errors
	dispatchCount, _ = meter.Int64Counter("mail.dispatch_count")
	tracer           = otel.Tracer("github.com/pure-golang/mailtester/sendmail")
)

const (
	outcomeSent          = "sent"
	outcomeFailed        = "failed"
	outcomeConfigMissing = "config_missing"
)

// Credentials identify the mail account used as the sender.
type Credentials struct {
	User     string `envconfig:"SMTP_USER"`     // account identifier, also the envelope sender
	Password string `envconfig:"SMTP_PASSWORD"` // password or app token
}

// Complete reports whether both values are present.
func (c Credentials) Complete() bool {
	return c.User != "" && c.Password != ""
}

// TransportFactory opens a transport authenticated with the given
// credentials. It is called once per dispatch; the Dispatcher closes the
// returned sender before Dispatch returns.
type TransportFactory func(Credentials) mail.Sender

// Dispatcher sends validated requests, one delivery attempt each.
type Dispatcher struct {
	creds        Credentials
	newTransport TransportFactory
}

// NewDispatcher creates a Dispatcher. Incomplete credentials are accepted
// here and reported on every Dispatch call instead.
func NewDispatcher(creds Credentials, factory TransportFactory) *Dispatcher {
	return &Dispatcher{
		creds:        creds,
		newTransport: factory,
	}
}

// Dispatch makes exactly one delivery attempt for req, which must already be
// valid. The returned result is always usable; the error carries the cause
// for logging and wraps ErrConfigMissing or ErrDeliveryFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, req MailRequest) (MailResult, error) {
	ctx, span := tracer.Start(ctx, "Dispatcher.Dispatch")
	defer span.End()

	if !d.creds.Complete() || d.newTransport == nil {
		span.SetStatus(codes.Error, ErrConfigMissing.Error())
		record(ctx, outcomeConfigMissing)
		return internalError(), ErrConfigMissing
	}

	transport := d.newTransport(d.creds)
	defer func() {
		if err := transport.Close(); err != nil {
			logger.FromContextWithErr(ctx, err).Warn("failed to close mail transport")
		}
	}()

	email := compose(d.creds.User, req)
	span.SetAttributes(
		attribute.Int("mail.html_len", len(req.HTMLBody)),
		attribute.String("mail.subject", req.Subject),
	)

	if err := transport.Send(ctx, email); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrDeliveryFailed.Error())
		record(ctx, outcomeFailed)
		return deliveryFailed(), stdErr.Join(ErrDeliveryFailed, errors.Wrap(err, "transport.Send"))
	}

	logger.FromContext(ctx).Info("mail sent",
		slog.String("to", req.ToEmail),
		slog.String("subject", req.Subject),
	)
	span.SetStatus(codes.Ok, "")
	record(ctx, outcomeSent)
	return sent(), nil
}

// compose maps a request onto the outgoing email. The account is the
// envelope sender; the display name only decorates the From header.
func compose(account string, req MailRequest) mail.Email {
	return mail.Email{
		From:    mail.Address{Name: req.DisplayName, Address: account},
		To:      []mail.Address{{Address: req.ToEmail}},
		Subject: req.Subject,
		Body:    preview.PlainText(req.HTMLBody),
		HTML:    req.HTMLBody,
	}
}

func record(ctx context.Context, outcome string) {
	dispatchCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
