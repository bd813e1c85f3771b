package sendmail

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pure-golang/mailtester/mail"
	"github.com/pure-golang/mailtester/mail/noop"
)

// factoryProbe counts transport creations and hands out a fresh sender each time.
type factoryProbe struct {
	mx      sync.Mutex
	calls   int
	creds   []Credentials
	senders []*noop.Sender
	sendErr error
}

func (p *factoryProbe) factory(c Credentials) mail.Sender {
	p.mx.Lock()
	defer p.mx.Unlock()

	p.calls++
	p.creds = append(p.creds, c)
	s := noop.NewSender()
	if p.sendErr != nil {
		s = noop.NewFailingSender(p.sendErr)
	}
	p.senders = append(p.senders, s)
	return s
}

func (p *factoryProbe) sent() []mail.Email {
	p.mx.Lock()
	defer p.mx.Unlock()

	var out []mail.Email
	for _, s := range p.senders {
		out = append(out, s.Sent()...)
	}
	return out
}

var testCreds = Credentials{User: "account@example.com", Password: "app-token"}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Run("sends one email built from the request", func(t *testing.T) {
		probe := &factoryProbe{}
		d := NewDispatcher(testCreds, probe.factory)

		result, err := d.Dispatch(context.Background(), validRequest())

		require.NoError(t, err)
		assert.Equal(t, MailResult{Status: http.StatusOK, Message: "Mail sent successfully"}, result)
		assert.True(t, result.OK())

		require.Equal(t, 1, probe.calls)
		assert.Equal(t, testCreds, probe.creds[0])

		sent := probe.sent()
		require.Len(t, sent, 1)
		assert.Equal(t, mail.Address{Name: "X", Address: "account@example.com"}, sent[0].From)
		assert.Equal(t, []mail.Address{{Address: "a@b.com"}}, sent[0].To)
		assert.Equal(t, "S", sent[0].Subject)
		assert.Equal(t, "<p>hi</p>", sent[0].HTML)
		assert.Equal(t, "hi", sent[0].Body)
	})

	t.Run("closes the transport after sending", func(t *testing.T) {
		probe := &factoryProbe{}
		d := NewDispatcher(testCreds, probe.factory)

		_, err := d.Dispatch(context.Background(), validRequest())

		require.NoError(t, err)
		assert.True(t, probe.senders[0].Closed())
	})

	t.Run("missing user never opens a transport", func(t *testing.T) {
		probe := &factoryProbe{}
		d := NewDispatcher(Credentials{Password: "app-token"}, probe.factory)

		result, err := d.Dispatch(context.Background(), validRequest())

		assert.ErrorIs(t, err, ErrConfigMissing)
		assert.Equal(t, http.StatusInternalServerError, result.Status)
		assert.Equal(t, "Internal Server Error", result.Message)
		assert.Zero(t, probe.calls)
	})

	t.Run("missing password never opens a transport", func(t *testing.T) {
		probe := &factoryProbe{}
		d := NewDispatcher(Credentials{User: "account@example.com"}, probe.factory)

		result, err := d.Dispatch(context.Background(), validRequest())

		assert.ErrorIs(t, err, ErrConfigMissing)
		assert.Equal(t, http.StatusInternalServerError, result.Status)
		assert.Zero(t, probe.calls)
	})

	t.Run("nil factory is a configuration error", func(t *testing.T) {
		d := NewDispatcher(testCreds, nil)

		result, err := d.Dispatch(context.Background(), validRequest())

		assert.ErrorIs(t, err, ErrConfigMissing)
		assert.Equal(t, http.StatusInternalServerError, result.Status)
	})

	t.Run("transport failure", func(t *testing.T) {
		cause := errors.New("535 authentication failed")
		probe := &factoryProbe{sendErr: cause}
		d := NewDispatcher(testCreds, probe.factory)

		result, err := d.Dispatch(context.Background(), validRequest())

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDeliveryFailed)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, MailResult{Status: http.StatusInternalServerError, Message: "Failed to send mail"}, result)
		assert.Equal(t, 1, probe.calls)
		assert.True(t, probe.senders[0].Closed())
	})

	t.Run("identical requests send identical duplicates", func(t *testing.T) {
		probe := &factoryProbe{}
		d := NewDispatcher(testCreds, probe.factory)

		for i := 0; i < 2; i++ {
			result, err := d.Dispatch(context.Background(), validRequest())
			require.NoError(t, err)
			require.True(t, result.OK())
		}

		sent := probe.sent()
		require.Len(t, sent, 2)
		assert.Equal(t, sent[0], sent[1])
		assert.Equal(t, 2, probe.calls)
	})

	t.Run("concurrent dispatches each get their own transport", func(t *testing.T) {
		probe := &factoryProbe{}
		d := NewDispatcher(testCreds, probe.factory)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := d.Dispatch(context.Background(), validRequest())
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 8, probe.calls)
		assert.Len(t, probe.sent(), 8)
	})
}

func TestCredentials_Complete(t *testing.T) {
	assert.True(t, testCreds.Complete())
	assert.False(t, Credentials{}.Complete())
	assert.False(t, Credentials{User: "u"}.Complete())
	assert.False(t, Credentials{Password: "p"}.Complete())
}
