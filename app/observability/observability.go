package observability

import (
	"log"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	UploadsTotal         metric.Int64Counter
	UploadBytesTotal     metric.Int64Counter
	DownloadsTotal       metric.Int64Counter
	AuthFailuresTotal    metric.Int64Counter
	UploadDurationSecond metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// Init configures the tracer/meter providers with a Prometheus
// exporter and serves /metrics on the given port.
func Init(metricsPort string, logger *slog.Logger) {
	tp := trace.NewTracerProvider(
		trace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("docvault"),
		)),
	)
	otel.SetTracerProvider(tp)

	exporter, err := prometheus.New()
	if err != nil {
		log.Fatal(err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		logger.Info("Serving metrics", slog.String("port", metricsPort))
		if err := http.ListenAndServe(":"+metricsPort, mux); err != nil {
			logger.Error("Metrics server stopped", slog.Any("error", err))
		}
	}()
}

// Metrics initializes the instruments once and returns them.
func Metrics() *AppMetrics {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("docvault")
		m := &AppMetrics{}
		var err error

		m.UploadsTotal, err = meter.Int64Counter(
			"document_uploads_total",
			metric.WithDescription("Total number of document uploads attempted"),
			metric.WithUnit("{upload}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create document_uploads_total: %v", err)
		}

		m.UploadBytesTotal, err = meter.Int64Counter(
			"document_upload_bytes_total",
			metric.WithDescription("Total bytes accepted for upload"),
			metric.WithUnit("By"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create document_upload_bytes_total: %v", err)
		}

		m.DownloadsTotal, err = meter.Int64Counter(
			"document_downloads_total",
			metric.WithDescription("Total number of document downloads served"),
			metric.WithUnit("{download}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create document_downloads_total: %v", err)
		}

		m.AuthFailuresTotal, err = meter.Int64Counter(
			"auth_failures_total",
			metric.WithDescription("Total number of rejected authentication attempts"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create auth_failures_total: %v", err)
		}

		m.UploadDurationSecond, err = meter.Float64Histogram(
			"document_upload_duration_seconds",
			metric.WithDescription("Duration of the store-then-register upload sequence"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create document_upload_duration_seconds: %v", err)
		}

		appMetrics = m
	})
	return appMetrics
}
