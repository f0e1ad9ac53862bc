// Package tracker keeps debug metadata for the buffers and kernels of an
// observed heterogeneous-compute application and traces kernel executions.
//
// The interception layer calls the event methods (CreateBuffer, BufferCopy,
// SetScalarArg, KernelExecuted, ...) in the order the application issued the
// native calls. A Tracker does no locking: when the application calls the
// API from several threads, the caller must serialize every event method
// behind one lock. Event methods never fail; a handle that is not tracked
// makes them a no-op.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/vuvietnguyenit/gpu-kernel-trace/config"
	"github.com/vuvietnguyenit/gpu-kernel-trace/registry"
)

// ErrNotTracked is returned by lookups of unknown handles.
var ErrNotTracked = errors.New("handle not tracked")

// Fetcher reads live buffer contents. Fetch copies len(dst) bytes starting
// at offset of the buffer's backing store into dst. It may block, for
// instance on a device synchronization.
type Fetcher interface {
	Fetch(b *Buffer, dst []byte, offset uint64) error
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(b *Buffer, dst []byte, offset uint64) error

func (f FetcherFunc) Fetch(b *Buffer, dst []byte, offset uint64) error { return f(b, dst, offset) }

// Callbacks are the hooks into the native API.
type Callbacks struct {
	// Fetch is the only path to buffer contents. Without it buffer
	// arguments show as UNAVAILABLE.
	Fetch Fetcher

	// Sync waits for the device to go idle. Called before finished events
	// when Config.ForceFinish is set.
	Sync func() error
}

// Bindings maps native API symbol names to the address of the real
// implementation, as resolved by the interception layer.
type Bindings map[string]uintptr

// Launch identifies one execution of a kernel.
type Launch struct {
	Kernel Handle
	Exec   uint32
}

// Tracker is the tracing context. Its tables live as long as it does.
type Tracker struct {
	cfg      config.Config
	cb       Callbacks
	bindings Bindings

	buffers *registry.Table[Handle, Buffer]
	kernels *registry.Table[Handle, Kernel]
	nextUID uint32

	log      *slog.Logger
	sink     Sink
	observer Observer
	now      func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for reports and warnings.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// WithSink sets where kernel traces go.
func WithSink(s Sink) Option {
	return func(t *Tracker) { t.sink = s }
}

// WithObserver sets the activity observer.
func WithObserver(o Observer) Option {
	return func(t *Tracker) { t.observer = o }
}

// WithClock overrides the trace timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a Tracker with empty tables sized from cfg.
func New(cfg config.Config, cb Callbacks, bindings Bindings, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:      cfg,
		cb:       cb,
		bindings: bindings,
		buffers:  registry.New[Handle, Buffer]("buffers", cfg.BufferCapacity),
		kernels:  registry.New[Handle, Kernel]("kernels", cfg.KernelCapacity),
		log:      slog.Default(),
		sink:     discardSink{},
		observer: NopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if !cfg.OutputEnabled() {
		t.sink = discardSink{}
	}
	return t
}

// Config returns the configuration the Tracker was built with.
func (t *Tracker) Config() config.Config { return t.cfg }

// Binding returns the address bound to a native symbol.
func (t *Tracker) Binding(name string) (uintptr, bool) {
	addr, ok := t.bindings[name]
	return addr, ok
}

// Buffer returns the tracked buffer bound to h, or nil.
func (t *Tracker) Buffer(h Handle) *Buffer { return t.buffers.Find(h) }

// BufferByID returns the buffer with the given registry id, or nil.
func (t *Tracker) BufferByID(id int) *Buffer { return t.buffers.Get(id) }

// Kernel returns the tracked kernel bound to h, or nil.
func (t *Tracker) Kernel(h Handle) *Kernel { return t.kernels.Find(h) }

// KernelByID returns the kernel with the given registry id, or nil.
func (t *Tracker) KernelByID(id int) *Kernel { return t.kernels.Get(id) }

// LookupBuffer is Buffer with an error for untracked handles.
func (t *Tracker) LookupBuffer(h Handle) (*Buffer, error) {
	if b := t.buffers.Find(h); b != nil {
		return b, nil
	}
	return nil, fmt.Errorf("buffer %s: %w", h, ErrNotTracked)
}

// Buffers calls fn for every buffer ever tracked, released ones included.
func (t *Tracker) Buffers(fn func(b *Buffer) bool) {
	t.buffers.Range(func(_ int, _ Handle, b *Buffer) bool { return fn(b) })
}

// Kernels calls fn for every kernel ever tracked.
func (t *Tracker) Kernels(fn func(k *Kernel) bool) {
	t.kernels.Range(func(_ int, _ Handle, k *Kernel) bool { return fn(k) })
}

func (t *Tracker) output() bool { return t.cfg.OutputEnabled() }

// assert logs a failed expectation with its location and lets the caller
// carry on.
func (t *Tracker) assert(ok bool, what string) bool {
	if ok {
		return true
	}
	pc, file, line, _ := runtime.Caller(1)
	fn := "?"
	if f := runtime.FuncForPC(pc); f != nil {
		fn = f.Name()
	}
	t.log.Error("assertion failed",
		"expected", what,
		"at", fmt.Sprintf("%s:%d", filepath.Base(file), line),
		"func", fn)
	return false
}

func (t *Tracker) untracked(event string, h Handle) {
	t.observer.Untracked(event)
	t.log.Debug("event on untracked handle", "event", event, "handle", h)
}
