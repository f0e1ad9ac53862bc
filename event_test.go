package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vuvietnguyenit/gpu-kernel-trace/config"
	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
	"github.com/vuvietnguyenit/gpu-kernel-trace/wire"
)

func f32s(vals ...float32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

var vaddDecls = []tracker.ParamDecl{
	{Name: "a", Type: "__global float*"},
	{Name: "b", Type: "__global const float*"},
	{Name: "n", Type: "int"},
}

// vaddRecords is a capture of one launch of vadd with its first argument
// bound, the second never set and the scalar size.
func vaddRecords() []*wire.Record {
	work := tracker.WorkSize{Local: [3]uint64{4}, Global: [3]uint64{16}}
	return []*wire.Record{
		wire.NewBufferCreated(0x10, 16, tracker.ReadWrite),
		wire.NewBufferCopy(0x10, tracker.Write, 0, f32s(1, 2, 3, 4)),
		wire.NewKernelCreated(0x20, "vadd", vaddDecls),
		wire.NewBufferArg(0x20, 0, 0x10, 0),
		wire.NewScalarArg(0x20, 2, u32(4)),
		wire.NewKernelExecuted(0x20, work, 1),
		wire.NewBufferCopy(0x10, tracker.Read, 0, f32s(2, 4, 6, 8)),
		wire.NewKernelFinished(0x20, work, 1),
		wire.NewBufferReleased(0x10),
	}
}

func encodeRecords(t *testing.T, recs []*wire.Record) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	for _, r := range recs {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Flush())
	return &buf
}

func newTestDispatcher(cfg config.Config) (*Dispatcher, *[]*tracker.Trace) {
	var traces []*tracker.Trace
	d := NewDispatcher(Options{Config: cfg},
		tracker.WithSink(tracker.SinkFunc(func(tr *tracker.Trace) { traces = append(traces, tr) })),
		tracker.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return d, &traces
}

func TestDispatcherReplay(t *testing.T) {
	d, traces := newTestDispatcher(config.Default())

	buf := encodeRecords(t, vaddRecords())
	require.NoError(t, replayRecords(context.Background(), wire.NewReader(buf), d))

	records, rejected := d.Stats()
	require.Equal(t, 9, records)
	require.Equal(t, 0, rejected)
	require.Len(t, *traces, 2)

	before := (*traces)[0]
	require.Equal(t, tracker.PhaseBefore, before.Phase)
	require.Equal(t, "vadd", before.Kernel)
	require.Equal(t, []uint64{16}, before.GlobalSize())
	require.Equal(t, "1", before.Params[0].Value)
	require.Equal(t, []string{"1", "2", "3", "4"}, before.Params[0].Dump)
	require.Equal(t, tracker.ValueUnset, before.Params[1].Value)
	require.Equal(t, "4", before.Params[2].Value)

	// the read back after the launch is what the finished trace shows
	after := (*traces)[1]
	require.Equal(t, tracker.PhaseAfter, after.Phase)
	require.Equal(t, uint32(1), after.Exec)
	require.Equal(t, []string{"2", "4", "6", "8"}, after.Params[0].Dump)

	b := d.Tracker.Buffer(0x10)
	require.NotNil(t, b)
	require.True(t, b.Released)
}

func TestDispatcherTimestamps(t *testing.T) {
	d, traces := newTestDispatcher(config.Default())
	d.Clock = func(ts uint64) time.Time { return time.Unix(0, int64(ts)) }

	rec := wire.NewKernelCreated(0x20, "noop", nil)
	require.NoError(t, d.Apply(rec))
	rec = wire.NewKernelExecuted(0x20, tracker.WorkSize{}, 1)
	rec.TsNs = 5_000_000_000
	require.NoError(t, d.Apply(rec))

	require.Len(t, *traces, 1)
	require.Equal(t, time.Unix(5, 0), (*traces)[0].Time)
}

func TestDispatcherSubBuffer(t *testing.T) {
	d, traces := newTestDispatcher(config.Default())

	recs := []*wire.Record{
		wire.NewBufferCreated(0x10, 32, tracker.ReadWrite),
		wire.NewSubBufferCreated(0x11, 0x10, 16, 16, tracker.ReadOnly),
		wire.NewBufferCopy(0x10, tracker.Write, 0, f32s(1, 2, 3, 4, 5, 6, 7, 8)),
		wire.NewKernelCreated(0x20, "tail", []tracker.ParamDecl{{Name: "x", Type: "__global float*"}}),
		wire.NewBufferArg(0x20, 0, 0x11, 0),
		wire.NewKernelExecuted(0x20, tracker.WorkSize{}, 1),
	}
	for _, r := range recs {
		require.NoError(t, d.Apply(r))
	}
	require.Len(t, *traces, 1)
	require.Equal(t, []string{"5", "6", "7", "8"}, (*traces)[0].Params[0].Dump)
}

func TestDispatcherHandleReuseForgetsContents(t *testing.T) {
	d, traces := newTestDispatcher(config.Default())

	recs := []*wire.Record{
		wire.NewBufferCreated(0x10, 4, tracker.ReadWrite),
		wire.NewBufferCopy(0x10, tracker.Write, 0, f32s(1)),
		wire.NewBufferReleased(0x10),
		wire.NewBufferCreated(0x10, 4, tracker.ReadWrite),
		wire.NewKernelCreated(0x20, "k", []tracker.ParamDecl{{Name: "x", Type: "__global float*"}}),
		wire.NewBufferArg(0x20, 0, 0x10, 0),
		wire.NewKernelExecuted(0x20, tracker.WorkSize{}, 1),
	}
	for _, r := range recs {
		require.NoError(t, d.Apply(r))
	}
	require.Equal(t, tracker.ValueUnavailable, (*traces)[0].Params[0].Value)
}

func TestDispatcherCopyAfterRelease(t *testing.T) {
	d, _ := newTestDispatcher(config.Default())

	require.NoError(t, d.Apply(wire.NewBufferCreated(0x10, 4, tracker.ReadWrite)))
	require.NoError(t, d.Apply(wire.NewBufferReleased(0x10)))
	require.NoError(t, d.Apply(wire.NewBufferCopy(0x10, tracker.Write, 0, f32s(1))))
	require.Equal(t, 0, d.Store.Len())
}

func TestDispatcherCopyOutsideBuffer(t *testing.T) {
	d, traces := newTestDispatcher(config.Default())

	recs := []*wire.Record{
		wire.NewBufferCreated(0x10, 16, tracker.ReadWrite),
		wire.NewBufferCopy(0x10, tracker.Write, math.MaxUint64-1, []byte{1, 2, 3, 4}),
		wire.NewBufferCopy(0x10, tracker.Write, 1<<40, []byte{1, 2, 3, 4}),
		wire.NewBufferCopy(0x10, tracker.Write, 8, f32s(1, 2, 3, 4)),
		wire.NewKernelCreated(0x20, "k", []tracker.ParamDecl{{Name: "x", Type: "__global float*"}}),
		wire.NewBufferArg(0x20, 0, 0x10, 8),
		wire.NewKernelExecuted(0x20, tracker.WorkSize{}, 1),
	}
	for _, r := range recs {
		require.NotPanics(t, func() { require.NoError(t, d.Apply(r)) })
	}

	// only the part inside the buffer was kept
	require.Equal(t, uint64(8), d.Store.Bytes())
	require.Equal(t, []string{"1", "2"}, (*traces)[0].Params[0].Dump)
}

func TestDispatcherRejects(t *testing.T) {
	d, _ := newTestDispatcher(config.Default())

	require.Error(t, d.Apply(&wire.Record{Header: wire.Header{Type: 42}}))
	require.Error(t, d.Apply(&wire.Record{Header: wire.Header{Type: wire.KernelCreated}}))

	short := wire.NewKernelCreated(0x20, "vadd", vaddDecls)
	short.Size = 2
	require.Error(t, d.Apply(short))
	require.Nil(t, d.Tracker.Kernel(0x20))

	records, rejected := d.Stats()
	require.Equal(t, 3, records)
	require.Equal(t, 3, rejected)
}

func TestReplayTruncated(t *testing.T) {
	d, _ := newTestDispatcher(config.Default())
	buf := encodeRecords(t, vaddRecords())
	buf.Truncate(buf.Len() - 3)

	err := replayRecords(context.Background(), wire.NewReader(buf), d)
	require.ErrorIs(t, err, wire.ErrShortRecord)
}

func TestReplayCancelled(t *testing.T) {
	d, _ := newTestDispatcher(config.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, replayRecords(ctx, wire.NewReader(encodeRecords(t, vaddRecords())), d))
	records, _ := d.Stats()
	require.Zero(t, records)
}
