package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"profile-service/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init installs global tracer and meter providers. Export is disabled when
// no OTLP endpoint is configured; propagation is always installed.
func Init(ctx context.Context, cfg config.Config) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tcfg := cfg.Telemetry
	if tcfg.OTLPEndpoint == "" && tcfg.OTLPTracesEndpoint == "" && tcfg.OTLPMetricsEndpoint == "" {
		log.Println("OpenTelemetry disabled: OTEL_EXPORTER_OTLP_ENDPOINT is empty")
		return noopShutdown, nil
	}

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(tcfg.ServiceName),
			semconv.ServiceVersion(tcfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.AppEnv),
			attribute.String("profile.table", cfg.Store.TableName()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	p, err := newProviders(ctx, tcfg, res)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(p.tracer)
	if p.meter != nil {
		otel.SetMeterProvider(p.meter)
	}
	log.Printf("OpenTelemetry enabled: protocol=%s service=%s metrics=%t", tcfg.OTLPProtocol, tcfg.ServiceName, p.meter != nil)

	return p.shutdown, nil
}

type providers struct {
	tracer *trace.TracerProvider
	meter  *metric.MeterProvider
}

func newProviders(ctx context.Context, tcfg config.TelemetryConfig, res *resource.Resource) (providers, error) {
	useHTTP, err := httpProtocol(tcfg.OTLPProtocol)
	if err != nil {
		return providers{}, err
	}
	traceEndpoint, metricEndpoint := endpoints(tcfg)

	traceExporter, err := newTraceExporter(ctx, tcfg, traceEndpoint, useHTTP)
	if err != nil {
		return providers{}, fmt.Errorf("create trace exporter: %w", err)
	}
	p := providers{
		tracer: trace.NewTracerProvider(
			trace.WithBatcher(traceExporter),
			trace.WithResource(res),
		),
	}
	if !tcfg.MetricsEnabled {
		return p, nil
	}

	metricExporter, err := newMetricExporter(ctx, tcfg, metricEndpoint, useHTTP)
	if err != nil {
		_ = p.tracer.Shutdown(ctx)
		return providers{}, fmt.Errorf("create metric exporter: %w", err)
	}
	p.meter = metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(
			metricExporter,
			metric.WithInterval(tcfg.MetricExportInterval),
		)),
	)
	return p, nil
}

func (p providers) shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := p.tracer.Shutdown(ctx)
	if p.meter != nil {
		err = errors.Join(err, p.meter.Shutdown(ctx))
	}
	return err
}

// WrapHandler adds server spans and HTTP metrics to every request.
func WrapHandler(handler http.Handler, serviceName string) http.Handler {
	return otelhttp.NewHandler(handler, serviceName)
}

func endpoints(tcfg config.TelemetryConfig) (string, string) {
	traceEndpoint := tcfg.OTLPEndpoint
	if tcfg.OTLPTracesEndpoint != "" {
		traceEndpoint = tcfg.OTLPTracesEndpoint
	}
	metricEndpoint := tcfg.OTLPEndpoint
	if tcfg.OTLPMetricsEndpoint != "" {
		metricEndpoint = tcfg.OTLPMetricsEndpoint
	}
	return traceEndpoint, metricEndpoint
}

func httpProtocol(protocol string) (bool, error) {
	switch protocol {
	case "", "grpc":
		return false, nil
	case "http/protobuf", "http":
		return true, nil
	default:
		return false, fmt.Errorf("unsupported OTLP protocol: %s", protocol)
	}
}

func newTraceExporter(ctx context.Context, tcfg config.TelemetryConfig, endpoint string, useHTTP bool) (trace.SpanExporter, error) {
	if useHTTP {
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithHeaders(tcfg.OTLPHeaders),
			otlptracehttp.WithTimeout(tcfg.ExportTimeout),
		}
		if tcfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithHeaders(tcfg.OTLPHeaders),
		otlptracegrpc.WithTimeout(tcfg.ExportTimeout),
	}
	if tcfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

func newMetricExporter(ctx context.Context, tcfg config.TelemetryConfig, endpoint string, useHTTP bool) (metric.Exporter, error) {
	if useHTTP {
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithHeaders(tcfg.OTLPHeaders),
			otlpmetrichttp.WithTimeout(tcfg.ExportTimeout),
		}
		if tcfg.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithHeaders(tcfg.OTLPHeaders),
		otlpmetricgrpc.WithTimeout(tcfg.ExportTimeout),
	}
	if tcfg.OTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	return otlpmetricgrpc.New(ctx, opts...)
}
