package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const (
	ProtocolHttp = "http"
	ProtocolGrpc = "grpc"
)

// DefaultMetricInterval is short since a scrape usually finishes in seconds.
const DefaultMetricInterval = 2 * time.Second

// Endpoint is where one kind of signal is exported to.
type Endpoint struct {
	// Url of the collector, exporting this signal is disabled when empty.
	Url string `json:"url"`
	// Protocol is "http" (default) or "grpc".
	Protocol string            `json:"protocol"`
	Headers  map[string]string `json:"headers"`
}

func (e Endpoint) enabled() bool {
	return e.Url != ""
}

func (e Endpoint) protocol() (string, error) {
	switch p := strings.ToLower(e.Protocol); p {
	case "", ProtocolHttp:
		return ProtocolHttp, nil
	case ProtocolGrpc:
		return ProtocolGrpc, nil
	default:
		return "", fmt.Errorf("unknown otlp protocol %q, expected http or grpc", e.Protocol)
	}
}

// Config is the contents of telemetry.json5.
type Config struct {
	Traces  Endpoint `json:"traces"`
	Metrics Endpoint `json:"metrics"`
	// MetricIntervalSeconds is how often metrics are pushed.
	MetricIntervalSeconds int `json:"metric_interval_seconds"`
}

func (c Config) metricInterval() time.Duration {
	if c.MetricIntervalSeconds <= 0 {
		return DefaultMetricInterval
	}
	return time.Duration(c.MetricIntervalSeconds) * time.Second
}

// exporterFor builds the exporter matching the endpoint's protocol.
func exporterFor[T any](
	ctx context.Context,
	signal string,
	e Endpoint,
	overHttp, overGrpc func(context.Context, Endpoint) (T, error),
) (T, error) {
	var empty T
	protocol, err := e.protocol()
	if err != nil {
		return empty, fmt.Errorf("%s: %w", signal, err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	slog.Debug(
		"otlp exporter initialized",
		"signal", signal,
		"protocol", protocol,
		"url", e.Url,
		"headers", len(e.Headers) > 0,
	)
	if protocol == ProtocolGrpc {
		return overGrpc(ctx, e)
	}
	return overHttp(ctx, e)
}

func newTraceProvider(ctx context.Context, r *resource.Resource, config Config) (*trace.TracerProvider, error) {
	exporter, err := exporterFor(ctx, "traces", config.Traces,
		func(ctx context.Context, e Endpoint) (trace.SpanExporter, error) {
			return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(e.Url), otlptracehttp.WithHeaders(e.Headers))
		},
		func(ctx context.Context, e Endpoint) (trace.SpanExporter, error) {
			return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(e.Url), otlptracegrpc.WithHeaders(e.Headers))
		},
	)
	if err != nil {
		return nil, err
	}
	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

func newMetricProvider(ctx context.Context, r *resource.Resource, config Config) (*metric.MeterProvider, error) {
	exporter, err := exporterFor(ctx, "metrics", config.Metrics,
		func(ctx context.Context, e Endpoint) (metric.Exporter, error) {
			return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(e.Url), otlpmetrichttp.WithHeaders(e.Headers))
		},
		func(ctx context.Context, e Endpoint) (metric.Exporter, error) {
			return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpointURL(e.Url), otlpmetricgrpc.WithHeaders(e.Headers))
		},
	)
	if err != nil {
		return nil, err
	}
	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(config.metricInterval()))),
		metric.WithResource(r),
	), nil
}
