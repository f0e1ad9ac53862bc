package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vuvietnguyenit/gpu-kernel-trace/metrics"
)

func startPrometheusExporter(ctx context.Context, g prometheus.Gatherer) {
	slog.Info("Starting Prometheus exporter...", "addr", FlagMetricsAddr)
	if err := metrics.Serve(ctx, FlagMetricsAddr, g); err != nil {
		slog.Error("Prometheus exporter failed", "err", err)
		return
	}
	slog.Debug("Stop exporter")
}
