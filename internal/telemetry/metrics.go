package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/Xepelin-BizOps/Cotizador-OV"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Server side
	LoginsTotal         metric.Int64Counter
	SessionProbesTotal  metric.Int64Counter
	ResolverProbesTotal metric.Int64Counter
	TenantDeniedTotal   metric.Int64Counter

	// Client side
	MessagesRejectedTotal metric.Int64Counter
	HandshakesTotal       metric.Int64Counter
	HandshakeDuration     metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments. Instruments are
// bound to the global meter provider, which is a no-op until InitTelemetry
// installs an exporter.
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.LoginsTotal, _ = meter.Int64Counter(
		"cotizador.auth.logins.total",
		metric.WithDescription("Total number of sessions issued by the login endpoint"),
		metric.WithUnit("{session}"),
	)

	m.SessionProbesTotal, _ = meter.Int64Counter(
		"cotizador.auth.probes.total",
		metric.WithDescription("Total number of session probe requests"),
		metric.WithUnit("{request}"),
	)

	m.ResolverProbesTotal, _ = meter.Int64Counter(
		"cotizador.auth.resolver.probes.total",
		metric.WithDescription("Company resolution attempts per strategy and outcome"),
		metric.WithUnit("{probe}"),
	)

	m.TenantDeniedTotal, _ = meter.Int64Counter(
		"cotizador.auth.tenant.denied.total",
		metric.WithDescription("Tenant-scoped requests rejected for a missing session or company"),
		metric.WithUnit("{request}"),
	)

	m.MessagesRejectedTotal, _ = meter.Int64Counter(
		"cotizador.handshake.messages.rejected.total",
		metric.WithDescription("Inbound window messages dropped before a handshake started"),
		metric.WithUnit("{message}"),
	)

	m.HandshakesTotal, _ = meter.Int64Counter(
		"cotizador.handshake.total",
		metric.WithDescription("Completed handshakes by outcome"),
		metric.WithUnit("{handshake}"),
	)

	m.HandshakeDuration, _ = meter.Float64Histogram(
		"cotizador.handshake.duration",
		metric.WithDescription("Duration of the login and probe exchange"),
		metric.WithUnit("ms"),
	)

	return m
}
