package tracing

import (
	"io"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Provider interface {
	trace.TracerProvider
	io.Closer
}

// ProviderBuilder wraps all realization details of a constructor (ex. config struct).
type ProviderBuilder func() (Provider, error)

// Init builds a provider and installs it globally together with the W3C
// trace context propagator. On failure a NoopProvider is returned alongside
// the error so callers can keep running without tracing.
func Init(creator ProviderBuilder) (Provider, error) {
	provider, err := creator()
	if err != nil || provider == nil {
		if err == nil {
			err = errors.New("builder returned no provider")
		}
		return NoopProvider{}, errors.Wrapf(err, "failed to load tracing provider")
	}

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return provider, nil
}

// NoopProvider discards all spans.
type NoopProvider struct{ noop.TracerProvider }

func (NoopProvider) Close() error { return nil }
