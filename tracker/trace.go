package tracker

import (
	"time"
)

// Markers shown instead of a value.
const (
	ValueUnset       = "UNSET"
	ValueNull        = "NULL"
	ValueReleased    = "RELEASED"
	ValueUntracked   = "UNTRACKED"
	ValueUnavailable = "UNAVAILABLE"
	ValueOutOfRange  = "OUT_OF_RANGE"
)

// Phase tells whether a trace was taken when a kernel was enqueued or when it
// finished.
type Phase int

const (
	PhaseBefore Phase = iota
	PhaseAfter
)

func (p Phase) String() string {
	if p == PhaseAfter {
		return "after"
	}
	return "before"
}

// ParamTrace is the resolved value of one kernel argument.
type ParamTrace struct {
	Index int
	Name  string
	Type  string
	Value string

	// Set for buffer-bound arguments that resolved to a tracked buffer.
	IsBuffer   bool
	BufferUID  uint32
	BufferSize uint64
	Offset     uint64
	Direction  string

	// Dump holds every element of the buffer from Offset on, when the
	// full dump is enabled and the buffer is small enough.
	Dump []string
}

// Trace is one kernel execution record.
type Trace struct {
	Time    time.Time
	Phase   Phase
	Kernel  string
	Handle  Handle
	Exec    uint32
	Work    WorkSize
	WorkDim int
	Params  []ParamTrace
}

// GlobalSize returns the meaningful global work sizes.
func (t *Trace) GlobalSize() []uint64 { return t.Work.Global[:clampDim(t.WorkDim)] }

// LocalSize returns the meaningful local work sizes.
func (t *Trace) LocalSize() []uint64 { return t.Work.Local[:clampDim(t.WorkDim)] }

func clampDim(dim int) int {
	return min(max(dim, 0), 3)
}

// Sink receives kernel traces.
type Sink interface {
	Emit(tr *Trace)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(tr *Trace)

func (f SinkFunc) Emit(tr *Trace) { f(tr) }

type discardSink struct{}

func (discardSink) Emit(*Trace) {}
