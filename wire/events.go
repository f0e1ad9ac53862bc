package wire

import (
	"fmt"
	"strings"

	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
)

func NewBufferCreated(h tracker.Handle, size uint64, flags tracker.AccessFlags) *Record {
	return &Record{Header: Header{Type: BufferCreated, Handle: uint64(h), Size: size, Flags: uint32(flags)}}
}

func NewSubBufferCreated(h, parent tracker.Handle, offset, size uint64, flags tracker.AccessFlags) *Record {
	return &Record{Header: Header{
		Type:   SubBufferCreated,
		Handle: uint64(h),
		Ref:    uint64(parent),
		Offset: offset,
		Size:   size,
		Flags:  uint32(flags),
	}}
}

// NewBufferCopy describes a transfer of data between the host and the
// buffer at offset.
func NewBufferCopy(h tracker.Handle, dir tracker.CopyDirection, offset uint64, data []byte) *Record {
	return &Record{
		Header:  Header{Type: BufferCopy, Handle: uint64(h), Flags: uint32(dir), Offset: offset, Size: uint64(len(data))},
		Payload: data,
	}
}

func NewBufferReleased(h tracker.Handle) *Record {
	return &Record{Header: Header{Type: BufferReleased, Handle: uint64(h)}}
}

func NewKernelCreated(h tracker.Handle, name string, params []tracker.ParamDecl) *Record {
	return &Record{
		Header:  Header{Type: KernelCreated, Handle: uint64(h), Size: uint64(len(params))},
		Payload: EncodeKernel(name, params),
	}
}

func NewScalarArg(h tracker.Handle, index int, value []byte) *Record {
	return &Record{
		Header:  Header{Type: ScalarArg, Handle: uint64(h), Index: int32(index), Size: uint64(len(value))},
		Payload: value,
	}
}

func NewBufferArg(h tracker.Handle, index int, buf tracker.Handle, offset uint64) *Record {
	return &Record{Header: Header{Type: BufferArg, Handle: uint64(h), Index: int32(index), Ref: uint64(buf), Offset: offset}}
}

func NewKernelExecuted(h tracker.Handle, work tracker.WorkSize, workDim int) *Record {
	return &Record{Header: Header{Type: KernelExecuted, Handle: uint64(h), WorkDim: uint32(workDim), Local: work.Local, Global: work.Global}}
}

func NewKernelFinished(h tracker.Handle, work tracker.WorkSize, workDim int) *Record {
	return &Record{Header: Header{Type: KernelFinished, Handle: uint64(h), WorkDim: uint32(workDim), Local: work.Local, Global: work.Global}}
}

// EncodeKernel lays out a kernel declaration as its name on the first line
// followed by one "type\tname" line per parameter.
func EncodeKernel(name string, params []tracker.ParamDecl) []byte {
	var sb strings.Builder
	sb.WriteString(name)
	for _, p := range params {
		sb.WriteByte('\n')
		sb.WriteString(p.Type)
		sb.WriteByte('\t')
		sb.WriteString(p.Name)
	}
	return []byte(sb.String())
}

// DecodeKernel parses a payload written by EncodeKernel.
func DecodeKernel(payload []byte) (string, []tracker.ParamDecl, error) {
	lines := strings.Split(string(payload), "\n")
	name := lines[0]
	if name == "" {
		return "", nil, fmt.Errorf("kernel declaration: empty name")
	}
	params := make([]tracker.ParamDecl, 0, len(lines)-1)
	for i, line := range lines[1:] {
		typ, pname, ok := strings.Cut(line, "\t")
		if !ok {
			return "", nil, fmt.Errorf("kernel %s: parameter %d: missing separator in %q", name, i, line)
		}
		params = append(params, tracker.ParamDecl{Name: pname, Type: typ})
	}
	return name, params, nil
}

// Kernel decodes a KernelCreated record. The parameter count carried in
// Size must match the declarations in the payload.
func (r *Record) Kernel() (string, []tracker.ParamDecl, error) {
	name, params, err := DecodeKernel(r.Payload)
	if err != nil {
		return "", nil, err
	}
	if uint64(len(params)) != r.Size {
		return "", nil, fmt.Errorf("kernel %s: %d parameters declared, header says %d", name, len(params), r.Size)
	}
	return name, params, nil
}
