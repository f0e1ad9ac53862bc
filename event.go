package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vuvietnguyenit/gpu-kernel-trace/config"
	"github.com/vuvietnguyenit/gpu-kernel-trace/shadow"
	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
	"github.com/vuvietnguyenit/gpu-kernel-trace/wire"
)

// Options are the tracker inputs shared by the commands.
type Options struct {
	Config   config.Config
	Bindings tracker.Bindings
}

// Dispatcher feeds decoded records to the tracker. Host transfers are kept
// in a shadow store that serves buffer contents back to the tracker.
type Dispatcher struct {
	Tracker *tracker.Tracker
	Store   *shadow.Store

	// Clock converts record timestamps; traces are stamped with the time
	// of the record that produced them.
	Clock func(tsNs uint64) time.Time

	now      time.Time
	records  int
	rejected int
}

// NewDispatcher builds the tracker with opts and a shadow store as its
// content source.
func NewDispatcher(o Options, opts ...tracker.Option) *Dispatcher {
	d := &Dispatcher{
		Store: shadow.NewStore(),
		Clock: KtimeToTime,
	}
	opts = append(opts, tracker.WithClock(func() time.Time { return d.now }))
	d.Tracker = tracker.New(o.Config, tracker.Callbacks{Fetch: d.Store}, o.Bindings, opts...)
	return d
}

// Apply replays one record.
func (d *Dispatcher) Apply(rec *wire.Record) error {
	d.records++
	if rec.TsNs != 0 {
		d.now = d.Clock(rec.TsNs)
	} else {
		d.now = time.Now()
	}
	if FlagPrintEvents {
		slog.Debug(rec.String())
	}

	h := tracker.Handle(rec.Handle)
	switch rec.Type {
	case wire.BufferCreated:
		d.Store.Forget(h)
		d.Tracker.CreateBuffer(h, rec.Size, tracker.AccessFlags(rec.Flags))
	case wire.SubBufferCreated:
		d.Store.Forget(h)
		d.Tracker.CreateSubBuffer(h, tracker.Handle(rec.Ref), rec.Offset, rec.Size, tracker.AccessFlags(rec.Flags))
	case wire.BufferCopy:
		if b := d.Tracker.Buffer(h); b != nil && !b.Released {
			d.shadowCopy(b, rec.Offset, rec.Payload)
		}
		d.Tracker.BufferCopy(h, tracker.CopyDirection(rec.Flags), rec.Payload, rec.Offset)
	case wire.BufferReleased:
		d.Tracker.BufferReleased(h)
	case wire.KernelCreated:
		name, params, err := rec.Kernel()
		if err != nil {
			d.rejected++
			return err
		}
		d.Tracker.CreateKernel(h, name, params)
	case wire.ScalarArg:
		d.Tracker.SetScalarArg(h, int(rec.Index), rec.Payload)
	case wire.BufferArg:
		d.Tracker.SetBufferArg(h, int(rec.Index), tracker.Handle(rec.Ref), rec.Offset)
	case wire.KernelExecuted:
		d.Tracker.KernelExecuted(h, rec.Work(), int(rec.WorkDim))
	case wire.KernelFinished:
		d.Tracker.KernelFinished(h, rec.Work(), int(rec.WorkDim))
	default:
		d.rejected++
		return fmt.Errorf("record %d: unknown type %s", d.records, rec.Type)
	}
	return nil
}

// shadowCopy keeps the part of a copy that falls inside the buffer.
func (d *Dispatcher) shadowCopy(b *tracker.Buffer, offset uint64, data []byte) {
	if offset >= b.Size {
		slog.Warn("copy starts past the buffer end", "uid", b.UID, "offset", offset, "size", b.Size)
		return
	}
	if rest := b.Size - offset; uint64(len(data)) > rest {
		slog.Warn("copy runs past the buffer end", "uid", b.UID, "offset", offset, "len", len(data), "size", b.Size)
		data = data[:rest]
	}
	d.Store.Record(b, offset, data)
}

// Stats returns the number of records applied and how many were rejected.
func (d *Dispatcher) Stats() (records, rejected int) {
	return d.records, d.rejected
}
