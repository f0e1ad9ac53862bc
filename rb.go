//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/ringbuf"
	"github.com/cilium/ebpf/rlimit"
	"github.com/spf13/cobra"

	"github.com/vuvietnguyenit/gpu-kernel-trace/wire"
)

type RingBuffer struct {
	Events     *ebpf.Map
	Dispatcher *Dispatcher
}

func (r *RingBuffer) RbReserve(ctx context.Context) error {
	rd, err := ringbuf.NewReader(r.Events)
	if err != nil {
		return fmt.Errorf("failed to read ring buffer: %w", err)
	}
	defer rd.Close()

	records := make(chan ringbuf.Record)
	errs := make(chan error, 1)

	go func() {
		for {
			record, err := rd.Read()
			if err != nil {
				errs <- err
				return
			}
			select {
			case records <- record:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			rd.Close()
			slog.Debug("Stopping consume ringbuffer...")
			return nil
		case err := <-errs:
			if errors.Is(err, ringbuf.ErrClosed) {
				slog.Debug("Ringbuffer reader closed")
				return nil
			}
			return fmt.Errorf("ringbuf read failed: %w", err)
		case record := <-records:
			rec, err := wire.Decode(record.RawSample)
			if err != nil {
				slog.Warn("failed to parse record", "err", err)
				continue
			}
			if err := r.Dispatcher.Apply(rec); err != nil {
				slog.Warn("failed to apply record", "err", err)
			}
		}
	}
}

func runAttach(ctx context.Context, cmd *cobra.Command, path string) error {
	if err := rlimit.RemoveMemlock(); err != nil {
		return fmt.Errorf("failed to remove memlock: %w", err)
	}
	events, err := ebpf.LoadPinnedMap(path, nil)
	if err != nil {
		return fmt.Errorf("loading pinned map %s: %w", path, err)
	}
	defer events.Close()
	if events.Type() != ebpf.RingBuf {
		return fmt.Errorf("pinned map %s is a %s, not a ring buffer", path, events.Type())
	}

	out := cmd.OutOrStdout()
	lib, b := resolveBindings()
	s, err := newSession(out, appConfig, b)
	if err != nil {
		if lib != nil {
			_ = lib.Close()
		}
		return err
	}
	s.lib = lib

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg WG
	s.start(ctx, &wg)

	slog.Info("Reading kernel events... Press Ctrl+C to exit.", "map", path)
	start := time.Now()
	rb := RingBuffer{
		Events:     events,
		Dispatcher: s.d,
	}
	err = rb.RbReserve(ctx)

	slog.Info("Shutting down gracefully...", "uptime", time.Since(start).Round(time.Second))
	cancel()
	wg.Wait()
	if ferr := s.finish(out); err == nil {
		err = ferr
	}
	return err
}
