package noop

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/pure-golang/mailtester/mail"
)

var _ mail.Sender = (*Sender)(nil)

// Sender is a mail sender that never touches the network. It keeps every
// accepted email so dry runs and tests can inspect what would have been sent.
type Sender struct {
	mx     sync.Mutex
	sent   []mail.Email
	closed bool
	err    error
	logger *slog.Logger
}

// NewSender creates a new no-op Sender.
func NewSender() *Sender {
	return &Sender{}
}

// NewFailingSender creates a Sender whose Send always returns err.
func NewFailingSender(err error) *Sender {
	return &Sender{err: err}
}

// WithLogger makes the sender log every accepted email at INFO level.
func (n *Sender) WithLogger(l *slog.Logger) *Sender {
	n.logger = l
	return n
}

// Send records emails instead of delivering them.
func (n *Sender) Send(ctx context.Context, emails ...mail.Email) error {
	n.mx.Lock()
	defer n.mx.Unlock()

	if n.closed {
		return errors.New("sender is closed")
	}
	if n.err != nil {
		return n.err
	}

	for _, email := range emails {
		n.sent = append(n.sent, email)
		if n.logger != nil {
			n.logger.InfoContext(ctx, "dry run: email not delivered",
				slog.Any("to", email.Recipients()),
				slog.String("subject", email.Subject),
				slog.Int("html_len", len(email.HTML)),
			)
		}
	}
	return nil
}

// Sent returns a copy of every email accepted so far.
func (n *Sender) Sent() []mail.Email {
	n.mx.Lock()
	defer n.mx.Unlock()

	return append([]mail.Email(nil), n.sent...)
}

// Closed reports whether Close was called.
func (n *Sender) Closed() bool {
	n.mx.Lock()
	defer n.mx.Unlock()

	return n.closed
}

// Close marks the sender closed.
func (n *Sender) Close() error {
	n.mx.Lock()
	defer n.mx.Unlock()

	n.closed = true
	return nil
}
