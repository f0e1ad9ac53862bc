package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vuvietnguyenit/gpu-kernel-trace/config"
)

func validateFlags() error {
	if FlagPrintEvents && !FlagDebug {
		return fmt.Errorf("--print-events requires --debug")
	}
	if _, err := parseLevel(FlagVerbose); err != nil {
		return fmt.Errorf("--log-verbose: %w", err)
	}
	if FlagTopN < 0 {
		return fmt.Errorf("--top must not be negative, got %d", FlagTopN)
	}
	if FlagMetricsAddr == "" && FlagExportMetrics {
		return fmt.Errorf("--export-metrics requires --metrics-addr")
	}
	return nil
}

func addProdFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&FlagVerbose, "log-verbose", slog.LevelInfo.String(), "Log verbosity level (DEBUG, INFO, WARN, ERROR)")
	cmd.PersistentFlags().StringVar(&FlagConfigPath, "config", "", "Path to a YAML config file")

	cmd.PersistentFlags().BoolVar(&FlagExportMetrics, "export-metrics", false, "Export metrics as Prometheus exporter")
	cmd.PersistentFlags().StringVar(&FlagMetricsAddr, "metrics-addr", ":9400", "Listen address of the Prometheus exporter")
	cmd.PersistentFlags().IntVar(&FlagTopN, "top", 10, "Number of kernels in the execution summary (0 disables it)")

	config.AddFlags(cmd.PersistentFlags(), &flagConfig)
}
