package tracker

import (
	"github.com/vuvietnguyenit/gpu-kernel-trace/registry"
)

// CreateKernel starts tracking a kernel with the reflected parameter list.
// Every parameter starts unbound. Returns the registry id or
// registry.InvalidID when the kernel table is full.
func (t *Tracker) CreateKernel(h Handle, name string, params []ParamDecl) int {
	id := t.kernels.Insert(h)
	if id == registry.InvalidID {
		t.observer.RegistryFull(t.kernels.Name())
		t.log.Warn("kernel table full, kernel left untracked",
			"handle", h, "name", name, "capacity", t.kernels.Cap())
		return id
	}
	k := t.kernels.Get(id)
	*k = Kernel{
		Handle: h,
		Name:   name,
		Params: newParams(params),
	}
	t.observer.KernelCreated(k)
	t.log.Debug("kernel created", "name", name, "handle", h, "params", len(params))
	return id
}

func (t *Tracker) kernelParam(event string, h Handle, index int) (*Kernel, *Param) {
	k := t.kernels.Find(h)
	if k == nil {
		t.untracked(event, h)
		return nil, nil
	}
	p := k.param(index)
	if p == nil {
		t.log.Warn("argument index out of range",
			"event", event, "kernel", k.Name, "index", index, "params", len(k.Params))
		return k, nil
	}
	return k, p
}

// SetScalarArg binds a by-value argument. The value is formatted right away
// and a raw copy of its first BinaryValueSize bytes is kept. Rebinding an
// index replaces the previous binding.
func (t *Tracker) SetScalarArg(h Handle, index int, value []byte) {
	k, p := t.kernelParam("set_scalar_arg", h, index)
	if p == nil {
		return
	}
	if !t.assert(value != nil, "non-nil argument value") {
		return
	}
	p.setScalar(value)
	t.log.Debug("scalar argument set", "kernel", k.Name, "index", index, "name", p.Name, "value", p.Value())
}

// SetBufferArg binds a buffer argument at offset. Its value is resolved
// each time the kernel runs. Rebinding an index replaces the previous
// binding.
func (t *Tracker) SetBufferArg(h Handle, index int, buf Handle, offset uint64) {
	k, p := t.kernelParam("set_buffer_arg", h, index)
	if p == nil {
		return
	}
	ref := bufferRef{bound: true, handle: buf, id: registry.InvalidID}
	if buf == NullHandle && t.cfg.ZeroIsNull {
		ref.null = true
	} else if ref.id = t.buffers.FindID(buf); ref.id == registry.InvalidID {
		t.log.Debug("argument bound to untracked buffer", "kernel", k.Name, "index", index, "buffer", buf)
	}
	p.setBuffer(ref, offset)
}

// KernelExecuted counts a new execution of the kernel and, when enabled,
// emits a trace of its arguments. The caller must send the matching
// KernelFinished before the next KernelExecuted on the same kernel if
// buffer contents matter; this is not checked beyond a warning.
func (t *Tracker) KernelExecuted(h Handle, work WorkSize, workDim int) Launch {
	k := t.kernels.Find(h)
	if k == nil {
		t.untracked("kernel_executed", h)
		return Launch{Kernel: h}
	}
	if k.pending {
		t.log.Warn("kernel executed again before the previous execution finished",
			"kernel", k.Name, "exec", k.ExecCounter)
	}
	k.ExecCounter++
	k.pending = true
	k.lastExec = k.ExecCounter
	t.observer.KernelExecuted(k)

	if t.cfg.PrintKernelBeforeExec && t.output() {
		t.sink.Emit(t.trace(k, PhaseBefore, work, workDim))
	}
	return Launch{Kernel: h, Exec: k.ExecCounter}
}

// KernelFinished marks the most recent execution of the kernel complete
// and, when enabled, emits a trace with the buffer arguments read again.
func (t *Tracker) KernelFinished(h Handle, work WorkSize, workDim int) {
	k := t.kernels.Find(h)
	if k == nil {
		t.untracked("kernel_finished", h)
		return
	}
	t.finish(k, k.lastExec, work, workDim)
}

// KernelFinishedLaunch is KernelFinished for a specific execution.
func (t *Tracker) KernelFinishedLaunch(l Launch, work WorkSize, workDim int) {
	k := t.kernels.Find(l.Kernel)
	if k == nil {
		t.untracked("kernel_finished", l.Kernel)
		return
	}
	if l.Exec != k.lastExec {
		t.log.Warn("finished execution is not the latest one",
			"kernel", k.Name, "exec", l.Exec, "latest", k.lastExec)
	}
	t.finish(k, l.Exec, work, workDim)
}

func (t *Tracker) finish(k *Kernel, exec uint32, work WorkSize, workDim int) {
	if !k.pending {
		t.log.Warn("kernel finished without a pending execution", "kernel", k.Name, "exec", exec)
	}
	if t.cfg.ForceFinish && t.cb.Sync != nil {
		if err := t.cb.Sync(); err != nil {
			t.log.Warn("device synchronization failed", "kernel", k.Name, "err", err)
		}
	}
	k.pending = false

	if t.cfg.PrintKernelAfterExec && t.output() {
		tr := t.trace(k, PhaseAfter, work, workDim)
		tr.Exec = exec
		t.sink.Emit(tr)
	}
}
