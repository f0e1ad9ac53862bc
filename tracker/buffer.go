package tracker

import "fmt"

// Handle is the opaque native identifier of a device object.
type Handle uintptr

// NullHandle is the zero handle. With Config.ZeroIsNull set, a buffer
// argument bound to it is shown as NULL.
const NullHandle Handle = 0

func (h Handle) String() string { return fmt.Sprintf("%#x", uintptr(h)) }

// AccessFlags is how a kernel may access a buffer.
type AccessFlags int

const (
	ReadOnly  AccessFlags = 1
	WriteOnly AccessFlags = 2
	ReadWrite AccessFlags = 4
)

func (f AccessFlags) String() string {
	switch f {
	case ReadOnly:
		return "READ_ONLY"
	case WriteOnly:
		return "WRITE_ONLY"
	case ReadWrite:
		return "READ_WRITE"
	default:
		return "UNKNOWN"
	}
}

// Direction is the data flow arrow between host and device.
func (f AccessFlags) Direction() string {
	switch f {
	case ReadOnly:
		return "--->"
	case WriteOnly:
		return "<---"
	case ReadWrite:
		return "<-->"
	default:
		return "?--?"
	}
}

// CopyDirection is the direction of a host/device transfer.
type CopyDirection int

const (
	// Write copies host memory to the device.
	Write CopyDirection = 0

	// Read copies device memory to the host.
	Read CopyDirection = 1
)

func (d CopyDirection) String() string {
	switch d {
	case Write:
		return "WRITE"
	case Read:
		return "READ"
	default:
		return fmt.Sprintf("CopyDirection(%d)", int(d))
	}
}

// SnapshotSize is the number of leading bytes cached per buffer.
const SnapshotSize = 32

// Buffer is the tracked state of a device buffer or sub-buffer.
type Buffer struct {
	Handle Handle
	UID    uint32
	Size   uint64
	Flags  AccessFlags

	HasValues      bool
	ValuesOutdated bool
	Released       bool

	// Sub-buffers address [Offset, Offset+Size) of Parent.
	IsSub  bool
	Parent Handle
	Offset uint64

	snapshot    [SnapshotSize]byte
	snapshotLen int
}

// Snapshot returns the cached leading bytes. ok is false unless the cache is
// fresh: values were read back, no write happened since, and the buffer is
// not released.
func (b *Buffer) Snapshot() (data []byte, ok bool) {
	if !b.HasValues || b.ValuesOutdated || b.Released {
		return nil, false
	}
	return b.snapshot[:b.snapshotLen], true
}

func (b *Buffer) kind() string {
	if b.IsSub {
		return "sub-buffer"
	}
	return "buffer"
}
