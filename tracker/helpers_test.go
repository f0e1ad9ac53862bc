package tracker

import (
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/vuvietnguyenit/gpu-kernel-trace/config"
	"github.com/vuvietnguyenit/gpu-kernel-trace/typeinfo"
)

type recorder struct {
	traces []*Trace
}

func (r *recorder) Emit(tr *Trace) { r.traces = append(r.traces, tr) }

func (r *recorder) last(t *testing.T) *Trace {
	t.Helper()
	if len(r.traces) == 0 {
		t.Fatal("no trace emitted")
	}
	return r.traces[len(r.traces)-1]
}

// memory is a fake device: one byte slice per buffer handle.
type memory struct {
	data  map[Handle][]byte
	calls int
}

func newMemory() *memory { return &memory{data: make(map[Handle][]byte)} }

func (m *memory) Fetch(b *Buffer, dst []byte, offset uint64) error {
	m.calls++
	src, ok := m.data[b.Handle]
	if !ok || offset+uint64(len(dst)) > uint64(len(src)) {
		return io.ErrUnexpectedEOF
	}
	copy(dst, src[offset:])
	return nil
}

type counters struct {
	NopObserver
	full      []string
	untracked []string
	fetchErrs int
	executed  int
}

func (c *counters) RegistryFull(table string)  { c.full = append(c.full, table) }
func (c *counters) Untracked(event string)     { c.untracked = append(c.untracked, event) }
func (c *counters) FetchFailed(*Buffer, error) { c.fetchErrs++ }
func (c *counters) KernelExecuted(*Kernel)     { c.executed++ }

var testTime = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newTestTracker(cfg config.Config, fetch Fetcher) (*Tracker, *recorder, *counters) {
	rec := &recorder{}
	obs := &counters{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr := New(cfg, Callbacks{Fetch: fetch}, Bindings{"clSetKernelArg": 0x1000},
		WithSink(rec),
		WithObserver(obs),
		WithLogger(logger),
		WithClock(func() time.Time { return testTime }),
	)
	return tr, rec, obs
}

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

var longFormat = typeinfo.Info{Key: "wide_t", Format: "x%099d", Size: 1, Category: typeinfo.Uint}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
