package observability

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"fairbook/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const exportInterval = 60 * time.Second

// MetricsProvider manages OpenTelemetry metrics for the fairbook service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	betsPlacedCounter          metric.Int64Counter
	betsBlockedCounter         metric.Int64Counter
	poolsActiveGauge           metric.Int64UpDownCounter
	poolsSettledCounter        metric.Int64Counter
	alertsRaisedCounter        metric.Int64Counter
	rewardsDistributedCounter  metric.Int64Counter
	transfersCounter           metric.Int64Counter
	storeOperationsCounter     metric.Int64Counter
	storeOperationDurationHist metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Println("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Println("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Println("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.Printf("Using OTLP metric exporter: %s", mp.config.OTelEndpoint)

	case "none":
		log.Println("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(exportInterval),
			),
		),
	)

	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("fairbook")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Println("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.betsPlacedCounter, err = mp.meter.Int64Counter(
		BetsPlacedTotal,
		metric.WithDescription("Total number of accepted bets"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create bets placed counter: %w", err)
	}

	mp.betsBlockedCounter, err = mp.meter.Int64Counter(
		BetsBlockedTotal,
		metric.WithDescription("Total number of bets blocked by the monitor"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create bets blocked counter: %w", err)
	}

	mp.poolsActiveGauge, err = mp.meter.Int64UpDownCounter(
		PoolsActive,
		metric.WithDescription("Current number of active betting pools"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create pools active gauge: %w", err)
	}

	mp.poolsSettledCounter, err = mp.meter.Int64Counter(
		PoolsSettledTotal,
		metric.WithDescription("Total number of settled pools"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create pools settled counter: %w", err)
	}

	mp.alertsRaisedCounter, err = mp.meter.Int64Counter(
		AlertsRaisedTotal,
		metric.WithDescription("Total number of suspicious-activity alerts"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create alerts raised counter: %w", err)
	}

	mp.rewardsDistributedCounter, err = mp.meter.Int64Counter(
		RewardsDistributedTotal,
		metric.WithDescription("Total number of reward distribution rounds"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rewards distributed counter: %w", err)
	}

	mp.transfersCounter, err = mp.meter.Int64Counter(
		TransfersTotal,
		metric.WithDescription("Total number of settlement transfers"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create transfers counter: %w", err)
	}

	mp.storeOperationsCounter, err = mp.meter.Int64Counter(
		StoreOperationsTotal,
		metric.WithDescription("Total number of store operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create store operations counter: %w", err)
	}

	mp.storeOperationDurationHist, err = mp.meter.Float64Histogram(
		StoreOperationDuration,
		metric.WithDescription("Duration of store operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create store operation duration histogram: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordBetPlaced records an accepted bet
func (mp *MetricsProvider) RecordBetPlaced(outcomeID string) {
	if !mp.isEnabled() {
		return
	}

	mp.betsPlacedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelOutcome, outcomeID),
		),
	)
}

// RecordBetBlocked records a bet blocked by the anti-manipulation monitor
func (mp *MetricsProvider) RecordBetBlocked() {
	if !mp.isEnabled() {
		return
	}

	mp.betsBlockedCounter.Add(context.Background(), 1)
}

// UpdateActivePools updates the count of active pools (increment/decrement)
func (mp *MetricsProvider) UpdateActivePools(delta int64) {
	if !mp.isEnabled() {
		return
	}

	mp.poolsActiveGauge.Add(context.Background(), delta)
}

// RecordPoolSettled records a pool settlement
func (mp *MetricsProvider) RecordPoolSettled(selectionMode string) {
	if !mp.isEnabled() {
		return
	}

	mp.poolsSettledCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelType, selectionMode),
		),
	)
}

// RecordAlertRaised records a suspicious-activity alert
func (mp *MetricsProvider) RecordAlertRaised(alertType, severity string) {
	if !mp.isEnabled() {
		return
	}

	mp.alertsRaisedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelAlertType, alertType),
			attribute.String(LabelSeverity, severity),
		),
	)
}

// RecordRewardDistribution records a completed distribution round
func (mp *MetricsProvider) RecordRewardDistribution(distributionType string) {
	if !mp.isEnabled() {
		return
	}

	mp.rewardsDistributedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelType, distributionType),
		),
	)
}

// RecordTransfer records one settlement transfer outcome
func (mp *MetricsProvider) RecordTransfer(outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.transfersCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelOutcome, outcome),
		),
	)
}

// RecordStoreOperation records a store operation with duration
func (mp *MetricsProvider) RecordStoreOperation(backend, method string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelBackend, backend),
		attribute.String(LabelMethod, method),
	)

	mp.storeOperationsCounter.Add(context.Background(), 1, attrs)
	mp.storeOperationDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.config.OTelEnabled && mp.meter != nil
}
