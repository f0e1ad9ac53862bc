package tracker

import (
	"github.com/dustin/go-humanize"

	"github.com/vuvietnguyenit/gpu-kernel-trace/registry"
	"github.com/vuvietnguyenit/gpu-kernel-trace/typeinfo"
)

// CreateBuffer starts tracking a buffer and returns its registry id, or
// registry.InvalidID when the buffer table is full. A buffer that could not
// be registered stays untracked for the rest of the run.
func (t *Tracker) CreateBuffer(h Handle, size uint64, flags AccessFlags) int {
	b, id := t.insertBuffer(h, size, flags)
	if b == nil {
		return id
	}
	t.reportCreated(b)
	return id
}

// CreateSubBuffer starts tracking a view of [offset, offset+size) of the
// parent buffer. The view has its own flags.
func (t *Tracker) CreateSubBuffer(h, parent Handle, offset, size uint64, flags AccessFlags) int {
	b, id := t.insertBuffer(h, size, flags)
	if b == nil {
		return id
	}
	b.IsSub = true
	b.Parent = parent
	b.Offset = offset
	if p := t.buffers.Find(parent); p == nil {
		t.log.Warn("sub-buffer of untracked parent", "uid", b.UID, "parent", parent)
	} else if offset+size > p.Size {
		t.log.Warn("sub-buffer exceeds its parent",
			"uid", b.UID, "parent_uid", p.UID, "offset", offset, "size", size, "parent_size", p.Size)
	}
	t.reportCreated(b)
	return id
}

func (t *Tracker) insertBuffer(h Handle, size uint64, flags AccessFlags) (*Buffer, int) {
	id := t.buffers.Insert(h)
	if id == registry.InvalidID {
		t.observer.RegistryFull(t.buffers.Name())
		t.log.Warn("buffer table full, buffer left untracked",
			"handle", h, "capacity", t.buffers.Cap())
		return nil, id
	}
	b := t.buffers.Get(id)
	*b = Buffer{
		Handle:         h,
		UID:            t.nextUID,
		Size:           size,
		Flags:          flags,
		ValuesOutdated: true,
	}
	t.nextUID++
	return b, id
}

func (t *Tracker) reportCreated(b *Buffer) {
	t.observer.BufferCreated(b)
	if t.cfg.PrintBufferCreation && t.output() {
		args := []any{
			"uid", b.UID,
			"handle", b.Handle,
			"size", humanize.IBytes(b.Size),
			"flags", b.Flags.String(),
		}
		if b.IsSub {
			args = append(args, "parent", b.Parent, "offset", b.Offset)
		}
		t.log.Info(b.kind()+" created", args...)
	}
}

// BufferCopy records a host/device transfer of data at offset. A read at
// offset 0 refreshes the snapshot. A read at another offset leaves it
// alone: those bytes are not represented. A write always marks the
// snapshot outdated. Released buffers are not modified.
func (t *Tracker) BufferCopy(h Handle, dir CopyDirection, data []byte, offset uint64) {
	b := t.buffers.Find(h)
	if b == nil {
		t.untracked("buffer_copy", h)
		return
	}
	if b.Released {
		t.log.Warn("transfer on released buffer ignored", "uid", b.UID, "direction", dir.String())
		return
	}

	switch dir {
	case Read:
		if !t.assert(data != nil, "non-nil host pointer") {
			return
		}
		if offset == 0 {
			b.HasValues = true
			b.ValuesOutdated = false
			b.snapshotLen = copy(b.snapshot[:], data)
		}
	case Write:
		b.ValuesOutdated = true
	default:
		t.log.Warn("unknown transfer direction", "uid", b.UID, "direction", int(dir))
		return
	}
	t.observer.BufferCopied(b, dir, len(data))

	if t.cfg.PrintBufferTransfer && t.output() {
		args := []any{
			"uid", b.UID,
			"direction", dir.String(),
			"size", humanize.IBytes(uint64(len(data))),
			"offset", offset,
		}
		if t.cfg.TransferFirstBytesAsFloat && len(data) > 0 {
			args = append(args, "first_values", typeinfo.FormatFloats(data[:min(len(data), SnapshotSize)]))
		}
		t.log.Info("buffer transfer", args...)
	}
}

// BufferReleased marks the buffer released. The record keeps its slot and
// never changes again.
func (t *Tracker) BufferReleased(h Handle) {
	b := t.buffers.Find(h)
	if b == nil {
		t.untracked("buffer_released", h)
		return
	}
	if b.Released {
		t.log.Debug("buffer released twice", "uid", b.UID)
		return
	}
	b.Released = true
	t.observer.BufferReleased(b)
	if t.cfg.PrintBufferRelease && t.output() {
		t.log.Info(b.kind()+" released", "uid", b.UID, "handle", b.Handle)
	}
}
