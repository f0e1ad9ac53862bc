package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vuvietnguyenit/gpu-kernel-trace/config"
)

var (
	// Global flags
	FlagVerbose    string
	FlagConfigPath string

	// Debug flags
	FlagDebug       bool
	FlagPrintEvents bool

	// Prod/runtime flags
	FlagExportMetrics bool
	FlagMetricsAddr   string
	FlagTopN          int

	// flagConfig receives the tracing options given on the command line;
	// only the ones actually set override the config file.
	flagConfig config.Config

	// appConfig is the effective configuration, resolved before any
	// subcommand runs.
	appConfig config.Config
)

func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "gpu-kernel-trace",
		Short:        "GPU kernel argument tracer",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFlags(); err != nil {
				return err
			}
			if err := initLogger(); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			appConfig = cfg
			slog.Debug("configuration loaded", "path", FlagConfigPath, "rank", cfg.Rank, "output", cfg.OutputEnabled())
			return nil
		},
	}

	flagConfig = config.Default()
	addDebugFlags(rootCmd)
	addProdFlags(rootCmd)

	rootCmd.AddCommand(replayCmd(), attachCmd(), symbolsCmd())
	return rootCmd
}

func Execute() {
	if err := RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, when given, and applies the tracing
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if FlagConfigPath != "" {
		var err error
		if cfg, err = config.Load(FlagConfigPath); err != nil {
			return config.Config{}, err
		}
	}
	config.Override(&cfg, &flagConfig, cmd.Flags())
	cfg.Rank = config.DetectRank()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	// Events arrive after the fact, so there is no device to wait on.
	if cfg.ForceFinish {
		return config.Config{}, errors.New("force_finish needs an in-process device sync and cannot be used by replay or attach")
	}
	return cfg, nil
}
