package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vuvietnguyenit/gpu-kernel-trace/bindings"
	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
)

var (
	FlagMapPath string
	FlagLibPath string
)

func attachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Trace kernels from a pinned ring buffer until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAttach(ctx, cmd, FlagMapPath)
		},
	}
	cmd.Flags().StringVar(&FlagMapPath, "map", "/sys/fs/bpf/gpu_kernel_trace/events", "Path of the pinned ring buffer map")
	cmd.Flags().StringVar(&FlagLibPath, "lib", "", "Native library to resolve API symbols from")
	return cmd
}

// resolveBindings loads the API symbols of the traced library, if one was
// given. A library that cannot be loaded only costs the bindings. The
// returned library stays loaded so the addresses remain valid; the caller
// closes it when tracing ends.
func resolveBindings() (*bindings.Library, tracker.Bindings) {
	if FlagLibPath == "" {
		return nil, nil
	}
	lib, err := bindings.Open(FlagLibPath)
	if err != nil {
		slog.Warn("cannot load library, continuing without bindings", "err", err)
		return nil, nil
	}

	b, missing := lib.Resolve(bindings.DefaultSymbols)
	if len(missing) > 0 {
		slog.Warn("unresolved symbols", "lib", lib.Path, "missing", missing)
	}
	slog.Info("resolved symbols", "lib", lib.Path, "count", len(b))
	return lib, b
}
