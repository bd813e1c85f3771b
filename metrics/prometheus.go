package metrics

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

var (
	initOnce sync.Once
	initErr  error
)

// InitPrometheus installs a meter provider backed by the prometheus exporter
// as the global otel provider and starts runtime metrics. The exporter
// registers itself with the default prometheus registry, so only the first
// call does the work; later calls return its result.
func InitPrometheus() error {
	initOnce.Do(func() {
		exporter, err := prometheus.New()
		if err != nil {
			initErr = errors.Wrap(err, "failed to create prometheus exporter")
			return
		}
		provider := metric.NewMeterProvider(metric.WithReader(exporter))

		otel.SetMeterProvider(provider)

		err = runtime.Start(
			runtime.WithMeterProvider(provider),
			runtime.WithMinimumReadMemStatsInterval(15*time.Second),
		)
		if err != nil {
			initErr = errors.Wrap(err, "failed to start runtime metrics")
		}
	})

	return initErr
}
