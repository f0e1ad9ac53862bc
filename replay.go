package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vuvietnguyenit/gpu-kernel-trace/wire"
)

var FlagInput string

func replayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Trace kernels from a captured record file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runReplay(ctx, cmd.OutOrStdout(), FlagInput)
		},
	}
	cmd.Flags().StringVarP(&FlagInput, "input", "i", "", "Record file to replay (- for stdin)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runReplay(ctx context.Context, out io.Writer, path string) error {
	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open records: %w", err)
		}
		defer f.Close()
		in = f
	}

	s, err := newSession(out, appConfig, nil)
	if err != nil {
		return err
	}
	var wg WG
	ctx, cancel := context.WithCancel(ctx)
	s.start(ctx, &wg)

	err = replayRecords(ctx, wire.NewReader(in), s.d)
	cancel()
	wg.Wait()
	if ferr := s.finish(out); err == nil {
		err = ferr
	}
	return err
}

func replayRecords(ctx context.Context, r *wire.Reader, d *Dispatcher) error {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Stopping replay...")
			return nil
		default:
		}

		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", r.Count(), err)
		}
		if err := d.Apply(rec); err != nil {
			slog.Warn("failed to apply record", "err", err)
		}
	}
}
