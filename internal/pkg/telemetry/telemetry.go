/*
Package telemetry wires OpenTelemetry metrics for the chat core.

When no OTLP endpoint is configured the global no-op meter provider stays in place,
so instruments can always be recorded without nil checks.
*/
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"playchat/internal/pkg/logx"
)

const meterName = "playchat/chat"

// Shutdown flushes and stops the meter provider.
type Shutdown func(context.Context) error

// Init installs an OTLP/gRPC meter provider pointed at endpoint.
// An empty endpoint leaves metrics disabled and returns a no-op Shutdown.
func Init(ctx context.Context, serviceName, endpoint string) (Shutdown, error) {
	if endpoint == "" {
		logx.Info("OTLP endpoint not configured, metrics export disabled")
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logx.Info("OpenTelemetry metrics initialized", "service", serviceName, "endpoint", endpoint)

	return mp.Shutdown, nil
}

// Metrics holds the instruments recorded by the chat hub.
type Metrics struct {
	ConnectionsOpened metric.Int64Counter
	OnlineUsers       metric.Int64UpDownCounter
	MessagesSent      metric.Int64Counter
	DeliveryFailures  metric.Int64Counter
	PresenceEvictions metric.Int64Counter
	StatusBroadcasts  metric.Int64Counter
}

// NewMetrics creates the chat instruments from the global meter provider.
// Instrument creation errors fall back to no-op instruments returned by the SDK.
func NewMetrics() *Metrics {
	meter := otel.Meter(meterName)

	connections, _ := meter.Int64Counter("chat_connections_total",
		metric.WithDescription("Total authenticated WebSocket connections"))
	online, _ := meter.Int64UpDownCounter("chat_online_users",
		metric.WithDescription("Users currently present in the registry"))
	sent, _ := meter.Int64Counter("chat_messages_sent_total",
		metric.WithDescription("Messages persisted and fanned out"))
	failures, _ := meter.Int64Counter("chat_delivery_failures_total",
		metric.WithDescription("Message sends rejected or failed, by error kind"))
	evictions, _ := meter.Int64Counter("chat_presence_evictions_total",
		metric.WithDescription("Presence entries evicted by the liveness sweeper"))
	broadcasts, _ := meter.Int64Counter("chat_status_broadcasts_total",
		metric.WithDescription("user:status events delivered to online relations"))

	return &Metrics{
		ConnectionsOpened: connections,
		OnlineUsers:       online,
		MessagesSent:      sent,
		DeliveryFailures:  failures,
		PresenceEvictions: evictions,
		StatusBroadcasts:  broadcasts,
	}
}
