package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vuvietnguyenit/gpu-kernel-trace/bindings"
	"github.com/vuvietnguyenit/gpu-kernel-trace/config"
	"github.com/vuvietnguyenit/gpu-kernel-trace/metrics"
	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
)

// session wires one tracing run: dispatcher, trace printer and the
// optional exporter.
type session struct {
	d       *Dispatcher
	printer *TracePrinter
	reg     *prometheus.Registry

	// lib backs the bindings handed to the tracker and outlives the run.
	lib *bindings.Library
}

func newSession(out io.Writer, cfg config.Config, b tracker.Bindings) (*session, error) {
	printer, err := NewTracePrinter(out, cfg)
	if err != nil {
		return nil, err
	}
	s := &session{printer: printer}

	opts := []tracker.Option{
		tracker.WithLogger(slog.Default()),
		tracker.WithSink(printer),
	}
	if FlagExportMetrics && !FlagDebug {
		s.reg = prometheus.NewRegistry()
		s.reg.MustRegister(collectors.NewGoCollector())
		opts = append(opts, tracker.WithObserver(metrics.NewCollector(s.reg)))
	}
	s.d = NewDispatcher(Options{Config: cfg, Bindings: b}, opts...)

	for _, name := range bindings.DefaultSymbols {
		if addr, ok := s.d.Tracker.Binding(name); ok {
			slog.Debug("bound symbol", "symbol", name, "addr", fmt.Sprintf("%#x", addr))
		}
	}
	return s, nil
}

// start launches the background workers of the session on wg.
func (s *session) start(ctx context.Context, wg *WG) {
	if s.reg != nil {
		wg.Go(func() { startPrometheusExporter(ctx, s.reg) })
	}
}

// finish prints the execution summary, releases the dump file and unloads
// the traced library.
func (s *session) finish(out io.Writer) error {
	records, rejected := s.d.Stats()
	slog.Info("tracing done",
		"records", humanize.Comma(int64(records)),
		"rejected", rejected,
		"shadowed", humanize.IBytes(s.d.Store.Bytes()))

	if FlagTopN > 0 && !FlagDebug {
		top := NewTopKernels(FlagTopN)
		top.Collect(s.d.Tracker)
		top.PrintTable(out)
	}
	var result *multierror.Error
	if err := s.printer.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if s.lib != nil {
		if err := s.lib.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("closing %s: %w", s.lib.Path, err))
		}
		s.lib = nil
	}
	return result.ErrorOrNil()
}
