package metrics

import (
	"context"
	"fmt"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/storacha/sizetracker/internal/failure"
)

var log = logging.Logger("metrics")

var (
	// SamplesRecorded counts the size samples appended to the history table
	SamplesRecorded metric.Int64Counter

	// BucketSizeBytes is the total size measured by the last sample
	BucketSizeBytes metric.Int64Gauge

	// BucketObjects is the object count measured by the last sample
	BucketObjects metric.Int64Gauge

	// PlotsRendered counts plot images uploaded to the bucket
	PlotsRendered metric.Int64Counter

	// Failures counts failed invocations by component and failure kind
	Failures metric.Int64Counter
)

func init() {
	// instruments are usable, and discard everything, until Init is called
	if err := createInstruments(noop.NewMeterProvider().Meter("noop")); err != nil {
		panic(err)
	}
}

var (
	initOnce sync.Once
	initErr  error
)

// Init initializes the OpenTelemetry metrics with Prometheus exporter. Only
// the first call has any effect.
func Init() error {
	initOnce.Do(func() {
		initErr = initProvider()
	})
	return initErr
}

func initProvider() error {
	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	// Create a MeterProvider with the Prometheus exporter
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	// Set the global MeterProvider
	otel.SetMeterProvider(provider)

	if err := createInstruments(provider.Meter("github.com/storacha/sizetracker")); err != nil {
		return err
	}

	log.Info("OpenTelemetry metrics initialized with Prometheus exporter")
	return nil
}

func createInstruments(meter metric.Meter) error {
	var err error

	SamplesRecorded, err = meter.Int64Counter(
		"sizetracker_samples_recorded_total",
		metric.WithDescription("Total number of size samples recorded per bucket"),
	)
	if err != nil {
		return fmt.Errorf("failed to create SamplesRecorded counter: %w", err)
	}

	BucketSizeBytes, err = meter.Int64Gauge(
		"sizetracker_bucket_size_bytes",
		metric.WithDescription("Total bucket size measured by the last sample"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("failed to create BucketSizeBytes gauge: %w", err)
	}

	BucketObjects, err = meter.Int64Gauge(
		"sizetracker_bucket_objects",
		metric.WithDescription("Object count measured by the last sample"),
	)
	if err != nil {
		return fmt.Errorf("failed to create BucketObjects gauge: %w", err)
	}

	PlotsRendered, err = meter.Int64Counter(
		"sizetracker_plots_rendered_total",
		metric.WithDescription("Total number of plots rendered and uploaded per bucket"),
	)
	if err != nil {
		return fmt.Errorf("failed to create PlotsRendered counter: %w", err)
	}

	Failures, err = meter.Int64Counter(
		"sizetracker_failures_total",
		metric.WithDescription("Total number of failed invocations per component and kind"),
	)
	if err != nil {
		return fmt.Errorf("failed to create Failures counter: %w", err)
	}

	return nil
}

// RecordFailure increments the failure counter for a component.
func RecordFailure(ctx context.Context, component string, err error) {
	attributes := attribute.NewSet(
		attribute.String("component", component),
		attribute.String("kind", string(failure.KindOf(err))),
	)
	Failures.Add(ctx, 1, metric.WithAttributeSet(attributes))
}
