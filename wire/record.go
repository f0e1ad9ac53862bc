// Package wire is the binary record format the interception layer uses to
// publish API events. Every record is a fixed little-endian Header followed
// by PayloadLen bytes of payload.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
)

// Type is the API event a record describes.
type Type uint32

const (
	BufferCreated Type = iota + 1
	SubBufferCreated
	BufferCopy
	BufferReleased
	KernelCreated
	ScalarArg
	BufferArg
	KernelExecuted
	KernelFinished
)

func (t Type) String() string {
	switch t {
	case BufferCreated:
		return "BUFFER_CREATED"
	case SubBufferCreated:
		return "SUB_BUFFER_CREATED"
	case BufferCopy:
		return "BUFFER_COPY"
	case BufferReleased:
		return "BUFFER_RELEASED"
	case KernelCreated:
		return "KERNEL_CREATED"
	case ScalarArg:
		return "SCALAR_ARG"
	case BufferArg:
		return "BUFFER_ARG"
	case KernelExecuted:
		return "KERNEL_EXECUTED"
	case KernelFinished:
		return "KERNEL_FINISHED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint32(t))
	}
}

const (
	// HeaderSize is the encoded size of Header.
	HeaderSize = 112

	// MaxPayload bounds the payload of a single record.
	MaxPayload = 64 << 20
)

var (
	ErrShortRecord     = errors.New("wire: short record")
	ErrPayloadTooLarge = errors.New("wire: payload too large")
)

// Header is the fixed part of a record. Field meaning depends on Type:
// Flags carries the access flags of created buffers and the direction of
// copies, Ref the parent of a sub-buffer or the buffer bound to an
// argument, Index the argument index.
type Header struct {
	Type       Type
	Flags      uint32
	TsNs       uint64 // CLOCK_MONOTONIC
	Handle     uint64
	Ref        uint64
	Offset     uint64
	Size       uint64
	Index      int32
	WorkDim    uint32
	Local      [3]uint64
	Global     [3]uint64
	PayloadLen uint32
	_          uint32 // padding to keep the header 8 byte aligned
}

// Record is a decoded event.
type Record struct {
	Header
	Payload []byte
}

func (r *Record) String() string {
	return fmt.Sprintf("[%s] handle=%#x ref=%#x offset=%d size=%d index=%d payload=%d",
		r.Type, r.Handle, r.Ref, r.Offset, r.Size, r.Index, len(r.Payload))
}

// Work returns the work sizes of an execution record.
func (r *Record) Work() tracker.WorkSize {
	return tracker.WorkSize{Local: r.Local, Global: r.Global}
}

// Encode writes r to w. PayloadLen is taken from the payload.
func Encode(w io.Writer, r *Record) error {
	if len(r.Payload) > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(r.Payload))
	}
	h := r.Header
	h.PayloadLen = uint32(len(r.Payload))
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(r.Payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// Marshal returns the encoding of r.
func Marshal(r *Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(r.Payload))
	if err := Encode(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses one record from b, as delivered by a ring buffer sample.
// Trailing bytes past the payload are ignored.
func Decode(b []byte) (*Record, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortRecord, len(b))
	}
	var r Record
	if err := binary.Read(bytes.NewReader(b[:HeaderSize]), binary.LittleEndian, &r.Header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	n := int(r.PayloadLen)
	if n > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, n)
	}
	if len(b)-HeaderSize < n {
		return nil, fmt.Errorf("%w: payload %d of %d bytes", ErrShortRecord, len(b)-HeaderSize, n)
	}
	r.Payload = append([]byte(nil), b[HeaderSize:HeaderSize+n]...)
	return &r, nil
}
