package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"textembedder/internal/application/common/slogger"
	"textembedder/internal/config"
	"textembedder/internal/version"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// newMeterProvider creates an SDK meter provider exporting to a private
// Prometheus registry, and the handler serving that registry.
func newMeterProvider() (*sdkmetric.MeterProvider, http.Handler, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", version.ApplicationName),
		attribute.String("service.version", version.Get().Short()),
	)
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	return provider, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// startMetricsServer serves /metrics when enabled and returns the provider
// to record on. The returned function stops the server and flushes the provider.
func startMetricsServer(cfg config.MetricsConfig) (metric.MeterProvider, func(context.Context) error, error) {
	if !cfg.Enabled {
		return otel.GetMeterProvider(), func(context.Context) error { return nil }, nil
	}

	provider, handler, err := newMeterProvider()
	if err != nil {
		return nil, nil, err
	}
	otel.SetMeterProvider(provider)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", handler)
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, nil, fmt.Errorf("metrics server: %w", err)
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.ErrorWithErrorNoCtx(err, "Metrics server stopped", slogger.Fields{"address": server.Addr})
		}
	}()
	slogger.InfoNoCtx("Metrics server listening", slogger.Fields{"address": listener.Addr().String()})

	return provider, func(ctx context.Context) error {
		return errors.Join(server.Shutdown(ctx), provider.Shutdown(ctx))
	}, nil
}
