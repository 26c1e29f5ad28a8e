package otel

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelglobal "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const meterName = "github.com/ovokpus/PostAssist"

// InitMeterProvider initializes the global MeterProvider with a Prometheus exporter
// and returns an http.Handler that serves /metrics. Call once at process startup.
// If init fails, returns (nil, err); caller can fall back to running without metrics.
func InitMeterProvider(ctx context.Context, serviceName string) (http.Handler, error) {
	if serviceName == "" {
		serviceName = "postassist"
	}
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otelglobal.SetMeterProvider(provider)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}), nil
}

// Meter returns the global meter (after InitMeterProvider).
func Meter() metric.Meter {
	return otelglobal.Meter(meterName)
}

// Tracer returns the global tracer used to wrap TeamGraph/MetaGraph node
// transitions in spans (§4.6). No SDK span exporter is wired in this module —
// nothing in the retrieval pack pulls one in — so this defaults to the no-op
// global TracerProvider until a caller installs a real one; the span calls
// themselves stay in place so wiring an exporter later is a one-line change.
func Tracer() trace.Tracer {
	return otelglobal.Tracer(meterName)
}

// Common attribute keys for metrics and span attributes.
var (
	AttrTeam   = attribute.Key("team")
	AttrAgent  = attribute.Key("agent")
	AttrStatus = attribute.Key("status")
	AttrStage  = attribute.Key("stage")
	AttrRoute  = attribute.Key("http.route")
	AttrTool   = attribute.Key("tool")
	AttrOutcome = attribute.Key("outcome")
	AttrKind   = attribute.Key("kind")
)
