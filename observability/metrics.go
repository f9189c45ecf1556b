package observability

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"monkeybet/config"
	"monkeybet/events"
	"monkeybet/models"
)

// MetricsProvider records ledger activity as OpenTelemetry counters
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.Mutex

	roundsCounter      metric.Int64Counter
	transactionCounter metric.Int64Counter
	withdrawalCounter  metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up a periodic stdout exporter
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return fmt.Errorf("failed to create console exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(mp.config.MetricsInterval))
	return mp.initializeWithReader(reader)
}

func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName("monkeybet"),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	mp.meter = mp.meterProvider.Meter("monkeybet")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.roundsCounter, err = mp.meter.Int64Counter(
		RoundsSettledTotal,
		metric.WithDescription("Total number of settled game rounds"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rounds counter: %w", err)
	}

	mp.transactionCounter, err = mp.meter.Int64Counter(
		LedgerTransactionsTotal,
		metric.WithDescription("Total number of ledger transactions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create transactions counter: %w", err)
	}

	mp.withdrawalCounter, err = mp.meter.Int64Counter(
		WithdrawalTransitionTotal,
		metric.WithDescription("Total number of withdrawal status changes"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal counter: %w", err)
	}

	return nil
}

// Subscribe records committed events from the bus
func (mp *MetricsProvider) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(mp.record)
}

func (mp *MetricsProvider) record(ctx context.Context, event events.Event) {
	if !mp.isInitialized() {
		return
	}

	switch e := event.(type) {
	case events.RoundSettledEvent:
		outcome := OutcomeLoss
		if e.Win {
			outcome = OutcomeWin
		}
		mp.roundsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(LabelGame, string(e.Game)),
			attribute.String(LabelOutcome, outcome),
		))
	case events.BalanceChangeEvent:
		mp.transactionCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(LabelKind, string(e.TransactionKind)),
		))
	case events.WithdrawalRequestedEvent:
		mp.withdrawalCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(LabelStatus, string(models.WithdrawalStatusPending)),
		))
	case events.WithdrawalStatusChangedEvent:
		mp.withdrawalCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(LabelStatus, string(e.NewStatus)),
		))
	}
}

func (mp *MetricsProvider) isInitialized() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.initialized
}

// Shutdown flushes pending metrics and stops the exporter
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider == nil {
		return nil
	}
	if err := mp.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	mp.initialized = false
	return nil
}
