package tracker

import (
	"github.com/vuvietnguyenit/gpu-kernel-trace/registry"
	"github.com/vuvietnguyenit/gpu-kernel-trace/typeinfo"
)

const (
	// DisplayValueSize is the budget of a formatted argument value. At most
	// DisplayValueSize-1 bytes of text are kept.
	DisplayValueSize = 80

	// BinaryValueSize is the size of the raw argument snapshot. Wide
	// vector arguments do not fit and are cut.
	BinaryValueSize = 10
)

// ParamDecl is a kernel parameter as reflected from the kernel source.
type ParamDecl struct {
	Name string
	Type string
}

// WorkSize holds the local and global work sizes of a launch. Only the
// first work_dim entries are meaningful.
type WorkSize struct {
	Local  [3]uint64
	Global [3]uint64
}

type bufferRef struct {
	bound  bool
	null   bool
	handle Handle

	// id is the registry id of the buffer, registry.InvalidID when the
	// handle was not tracked at bind time.
	id int
}

// Param is one argument of a tracked kernel.
type Param struct {
	Name      string
	Type      string
	Info      *typeinfo.Info
	IsPointer bool
	IsConst   bool

	// HasCurrentValue is set for scalar arguments only. Buffer arguments
	// are resolved when the kernel runs.
	HasCurrentValue bool
	Offset          uint64

	ref bufferRef

	display    [DisplayValueSize]byte
	displayLen int
	binary     [BinaryValueSize]byte
	binaryLen  int
}

// Value returns the formatted scalar value, empty when unset.
func (p *Param) Value() string { return string(p.display[:p.displayLen]) }

// Binary returns the raw scalar snapshot.
func (p *Param) Binary() []byte { return p.binary[:p.binaryLen] }

// BufferHandle returns the handle of the bound buffer.
func (p *Param) BufferHandle() (Handle, bool) {
	return p.ref.handle, p.ref.bound
}

// IsBufferBound reports whether the last binding was a buffer.
func (p *Param) IsBufferBound() bool { return p.ref.bound }

func (p *Param) setScalar(value []byte) {
	p.ref = bufferRef{}
	p.Offset = 0
	p.displayLen = copy(p.display[:DisplayValueSize-1], p.Info.FormatValue(value))
	p.binaryLen = copy(p.binary[:], value)
	p.HasCurrentValue = true
}

func (p *Param) setBuffer(ref bufferRef, offset uint64) {
	p.ref = ref
	p.Offset = offset
	p.displayLen = 0
	p.binaryLen = 0
	p.HasCurrentValue = false
}

// Kernel is the tracked state of a kernel object.
type Kernel struct {
	Handle      Handle
	Name        string
	ExecCounter uint32
	Params      []Param

	pending  bool
	lastExec uint32
}

// Pending reports whether the latest execution has not finished yet.
func (k *Kernel) Pending() bool { return k.pending }

func (k *Kernel) param(index int) *Param {
	if index < 0 || index >= len(k.Params) {
		return nil
	}
	return &k.Params[index]
}

func newParams(decls []ParamDecl) []Param {
	params := make([]Param, len(decls))
	for i, d := range decls {
		params[i] = Param{
			Name:      d.Name,
			Type:      d.Type,
			Info:      typeinfo.Resolve(d.Type),
			IsPointer: typeinfo.IsPointer(d.Type),
			IsConst:   typeinfo.IsConst(d.Type),
			ref:       bufferRef{id: registry.InvalidID},
		}
	}
	return params
}
