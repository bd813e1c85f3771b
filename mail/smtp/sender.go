package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/smtp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/mailtester/mail"
)

var _ mail.Sender = (*Sender)(nil)

var tracer = otel.Tracer("github.com/pure-golang/mailtester/mail/smtp")

// Sender implements mail.Sender using net/smtp.
// Every email is delivered over its own connection which is closed before
// Send returns, so a Sender can be shared by concurrent callers.
type Sender struct {
	cfg    Config
	closed atomic.Bool
	now    func() time.Time
}

// SenderOptions contains options for creating a Sender.
type SenderOptions struct {
	// Now overrides the clock used for the Date header.
	Now func() time.Time
}

// NewSender creates a new SMTP Sender. Host and Port are resolved from the
// service preset; an unresolvable config surfaces on the first Send.
func NewSender(cfg Config, options *SenderOptions) *Sender {
	if resolved, err := cfg.Resolve(); err == nil {
		cfg = resolved
	}

	s := &Sender{
		cfg: cfg,
		now: time.Now,
	}
	if options != nil && options.Now != nil {
		s.now = options.Now
	}

	return s
}

// Send sends one or more emails, stopping at the first failure.
func (s *Sender) Send(ctx context.Context, emails ...mail.Email) error {
	for _, email := range emails {
		if err := s.send(ctx, email); err != nil {
			return err
		}
	}
	return nil
}

// send sends a single email.
func (s *Sender) send(ctx context.Context, email mail.Email) error {
	ctx, span := tracer.Start(ctx, "SMTP.Send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("smtp.subject", email.Subject),
		attribute.Int("smtp.to_count", len(email.To)),
		attribute.Int("smtp.cc_count", len(email.Cc)),
		attribute.Int("smtp.bcc_count", len(email.Bcc)),
		attribute.String("smtp.host", s.cfg.Host),
		attribute.Int("smtp.port", s.cfg.Port),
		attribute.Bool("smtp.tls", s.cfg.TLS),
	)

	if s.closed.Load() {
		span.SetStatus(codes.Error, "sender is closed")
		return errors.New("sender is closed")
	}

	if s.cfg.Host == "" {
		span.SetStatus(codes.Error, "no host")
		return errors.New("no smtp host configured")
	}

	from := email.From.Address
	if from == "" {
		from = s.cfg.From
	}
	if from == "" {
		span.SetStatus(codes.Error, "no from address")
		return errors.New("no from address specified")
	}
	email.From.Address = from
	span.SetAttributes(attribute.String("smtp.from", from))

	recipients := email.Recipients()
	if len(recipients) == 0 {
		span.SetStatus(codes.Error, "no recipients")
		return errors.New("no recipients specified")
	}

	msg := s.buildMessage(email)

	if err := s.deliver(ctx, from, recipients, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.Wrap(err, "failed to send email")
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// deliver runs one full SMTP dialog: dial, optional STARTTLS, auth,
// MAIL/RCPT/DATA and QUIT. The connection never outlives the call.
func (s *Sender) deliver(ctx context.Context, from string, recipients []string, msg []byte) error {
	ctx, span := tracer.Start(ctx, "SMTP.Deliver")
	defer span.End()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	span.SetAttributes(
		attribute.String("smtp.address", addr),
		attribute.Int("smtp.recipients_count", len(recipients)),
		attribute.Bool("smtp.auth", s.cfg.Username != ""),
	)

	// Cancellation is only honoured before the dialog starts.
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "context canceled")
		return err
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to connect")
		return errors.Wrap(err, "failed to connect to SMTP server")
	}
	defer client.Close() //nolint:errcheck // connection is discarded either way

	if s.cfg.TLS {
		ok, _ := client.Extension("STARTTLS")
		span.SetAttributes(attribute.Bool("smtp.starttls", ok))
		if ok {
			tlsConfig := &tls.Config{
				ServerName:         s.cfg.Host,
				InsecureSkipVerify: s.cfg.Insecure, // #nosec G402 -- controlled by config
			}
			if err := client.StartTLS(tlsConfig); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to start TLS")
				return errors.Wrap(err, "failed to start TLS")
			}
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to authenticate")
			return errors.Wrap(err, "failed to authenticate")
		}
	}

	if err := client.Mail(from); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set sender")
		return errors.Wrap(err, "failed to set sender")
	}

	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to set recipient")
			return errors.Wrapf(err, "failed to set recipient: %s", rcpt)
		}
	}

	writer, err := client.Data()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get data writer")
		return errors.Wrap(err, "failed to get data writer")
	}

	if _, err := writer.Write(msg); err != nil {
		_ = writer.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write message")
		return errors.Wrap(err, "failed to write message")
	}

	// Close reports the server's verdict on the message.
	if err := writer.Close(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "message rejected")
		return errors.Wrap(err, "message rejected by server")
	}

	if err := client.Quit(); err != nil {
		// The message is already accepted at this point.
		span.RecordError(err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// buildMessage builds the raw email message.
func (s *Sender) buildMessage(email mail.Email) []byte {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s\r\n", formatAddress(email.From)))

	if len(email.To) > 0 {
		msg.WriteString(fmt.Sprintf("To: %s\r\n", formatAddressList(email.To)))
	}

	if len(email.Cc) > 0 {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", formatAddressList(email.Cc)))
	}

	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject)))
	msg.WriteString(fmt.Sprintf("Message-ID: %s\r\n", messageID(email.From.Address)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", s.now().Format(time.RFC1123Z)))

	for k, v := range email.Headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}

	if email.HTML != "" {
		boundary := "boundary_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%s\r\n", boundary))
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		writePart(&msg, "text/plain", email.Body)

		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		writePart(&msg, "text/html", email.HTML)

		msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	} else {
		writePart(&msg, "text/plain", email.Body)
	}

	return []byte(msg.String())
}

// writePart writes the part headers and the quoted-printable body, which keeps
// every line under the 998 octet limit and the body 7bit clean.
func writePart(msg *strings.Builder, contentType, body string) {
	msg.WriteString(fmt.Sprintf("Content-Type: %s; charset=UTF-8\r\n", contentType))
	msg.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	qp := quotedprintable.NewWriter(msg)
	_, _ = qp.Write([]byte(body)) // strings.Builder never fails
	_ = qp.Close()

	msg.WriteString("\r\n")
}

// messageID returns a unique Message-ID in the sender's domain.
func messageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

func formatAddress(addr mail.Address) string {
	if addr.Name != "" {
		return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", addr.Name), addr.Address)
	}
	return addr.Address
}

func formatAddressList(addrs []mail.Address) string {
	formatted := make([]string, len(addrs))
	for i, addr := range addrs {
		formatted[i] = formatAddress(addr)
	}
	return strings.Join(formatted, ", ")
}

// Close closes the sender. Further Send calls fail.
func (s *Sender) Close() error {
	s.closed.Store(true)
	return nil
}
