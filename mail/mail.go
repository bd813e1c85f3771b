package mail

import (
	"context"
	"io"
)

// Sender delivers emails through some transport. A Sender may hold a
// connection, so callers Close it once they are done.
type Sender interface {
	Send(ctx context.Context, emails ...Email) error
	io.Closer
}

// Email represents an email message.
type Email struct {
	// Envelope
	From    Address
	To      []Address
	Cc      []Address
	Bcc     []Address
	Subject string

	// Headers
	Headers map[string]string

	// Body
	Body string // Plain text body, used as the text/plain alternative when HTML is set
	HTML string // HTML body (optional)
}

// Address represents an email address.
type Address struct {
	Name    string // "Mail Tester"
	Address string // "tester@example.com"
}

// Recipients returns every envelope recipient address (To, Cc and Bcc).
func (e Email) Recipients() []string {
	out := make([]string, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	for _, list := range [][]Address{e.To, e.Cc, e.Bcc} {
		for _, a := range list {
			out = append(out, a.Address)
		}
	}
	return out
}
