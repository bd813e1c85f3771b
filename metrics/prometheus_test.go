package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitPrometheus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode")
	}

	prev := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	require.NoError(t, InitPrometheus())

	meter := otel.GetMeterProvider().Meter("github.com/pure-golang/mailtester/metrics")
	counter, err := meter.Int64Counter("mail.test_count")
	require.NoError(t, err)
	assert.NotNil(t, counter)
}

func TestInitPrometheus_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode")
	}

	require.NoError(t, InitPrometheus())
	require.NoError(t, InitPrometheus())
}
