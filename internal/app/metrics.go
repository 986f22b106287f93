package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/randalmurphal/flowchat/pkg/flowgraph"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/config"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/observability"
)

type metrics struct {
	addr       string
	runOptions []flowgraph.RunOption
	shutdowns  []func(context.Context) error
}

// newMetrics sets up the configured recorder. "prometheus" serves
// /metrics on s.Addr; "otel" records through SDK providers that exporters
// can be attached to.
func newMetrics(s config.MetricsSettings, logger *slog.Logger) (*metrics, error) {
	m := &metrics{}
	switch s.Kind {
	case "prometheus":
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rec, err := observability.NewPrometheusRecorder(reg)
		if err != nil {
			return nil, err
		}
		srv, addr, err := serveMetrics(s.Addr, reg, logger)
		if err != nil {
			return nil, err
		}
		m.addr = addr
		m.runOptions = append(m.runOptions, flowgraph.WithMetricsRecorder(rec))
		m.shutdowns = append(m.shutdowns, srv.Shutdown)

	case "otel":
		mp := sdkmetric.NewMeterProvider()
		tp := sdktrace.NewTracerProvider()
		rec, err := observability.NewMetricsRecorderFromMeter(mp.Meter("flowchat"))
		if err != nil {
			return nil, err
		}
		m.runOptions = append(m.runOptions,
			flowgraph.WithMetricsRecorder(rec),
			flowgraph.WithSpanManager(observability.NewSpanManagerFromProvider(tp)),
		)
		m.shutdowns = append(m.shutdowns, mp.Shutdown, tp.Shutdown)
	}
	return m, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen metrics %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))
	return srv, ln.Addr().String(), nil
}

func (m *metrics) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for _, fn := range m.shutdowns {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}
