package tracker

import (
	"fmt"
)

func (t *Tracker) trace(k *Kernel, phase Phase, work WorkSize, workDim int) *Trace {
	tr := &Trace{
		Time:    t.now(),
		Phase:   phase,
		Kernel:  k.Name,
		Handle:  k.Handle,
		Exec:    k.ExecCounter,
		Work:    work,
		WorkDim: workDim,
	}
	if t.cfg.PrintKernelNameOnly {
		return tr
	}
	tr.Params = make([]ParamTrace, 0, len(k.Params))
	for i := range k.Params {
		p := &k.Params[i]
		if phase == PhaseAfter && t.cfg.AfterExecIgnoreConst && t.readOnly(p) {
			continue
		}
		tr.Params = append(tr.Params, t.resolveParam(i, p))
	}
	return tr
}

// readOnly reports whether a kernel cannot have changed what p refers to.
func (t *Tracker) readOnly(p *Param) bool {
	if !p.ref.bound {
		return true
	}
	if p.IsConst {
		return true
	}
	if b := t.boundBuffer(p); b != nil {
		return b.Flags == ReadOnly
	}
	return false
}

// boundBuffer looks the bound buffer up by id and checks it still carries
// the handle it was bound with.
func (t *Tracker) boundBuffer(p *Param) *Buffer {
	if !p.ref.bound || p.ref.null {
		return nil
	}
	h, ok := t.buffers.Handle(p.ref.id)
	if !ok || h != p.ref.handle {
		return nil
	}
	return t.buffers.Get(p.ref.id)
}

func (t *Tracker) resolveParam(index int, p *Param) ParamTrace {
	pt := ParamTrace{
		Index:  index,
		Name:   p.Name,
		Type:   p.Type,
		Offset: p.Offset,
	}
	switch {
	case p.HasCurrentValue:
		pt.Value = p.Value()
		return pt
	case !p.ref.bound:
		pt.Value = ValueUnset
		return pt
	case p.ref.null:
		pt.Value = ValueNull
		return pt
	}

	b := t.boundBuffer(p)
	if b == nil {
		pt.Value = ValueUntracked
		return pt
	}
	pt.IsBuffer = true
	pt.BufferUID = b.UID
	pt.BufferSize = b.Size
	if t.cfg.PrintBufferDirection {
		pt.Direction = b.Flags.Direction()
	}
	if b.Released {
		pt.Value = ValueReleased
		return pt
	}
	pt.Value, pt.Dump = t.fetchValue(b, p)
	return pt
}

func (t *Tracker) fetchValue(b *Buffer, p *Param) (string, []string) {
	if p.Offset >= b.Size {
		t.log.Warn("argument offset beyond buffer end",
			"uid", b.UID, "offset", p.Offset, "size", b.Size)
		return ValueOutOfRange, nil
	}
	if t.cb.Fetch == nil {
		return ValueUnavailable, nil
	}

	remaining := b.Size - p.Offset
	elem := uint64(max(p.Info.Size, 1))
	full := t.cfg.FullBufferDump && remaining <= t.cfg.FullBufferSizeLimit
	size := min(elem, remaining)
	if full {
		size = remaining
	}

	dst := make([]byte, size)
	if err := t.cb.Fetch.Fetch(b, dst, p.Offset); err != nil {
		t.observer.FetchFailed(b, err)
		t.log.Debug("buffer content unavailable", "uid", b.UID, "offset", p.Offset, "size", size, "err", err)
		return ValueUnavailable, nil
	}

	value := truncate(p.Info.FormatValue(dst))
	if !full {
		return value, nil
	}
	return value, p.Info.FormatElements(dst, 0)
}

func truncate(s string) string {
	if len(s) < DisplayValueSize {
		return s
	}
	return s[:DisplayValueSize-1]
}

// String renders the trace on one line.
func (pt ParamTrace) String() string {
	if pt.Direction != "" {
		return fmt.Sprintf("%s %s %s = %s", pt.Direction, pt.Type, pt.Name, pt.Value)
	}
	return fmt.Sprintf("%s %s = %s", pt.Type, pt.Name, pt.Value)
}
