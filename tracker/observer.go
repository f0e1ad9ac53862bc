package tracker

// Observer is notified of tracking activity. It is how metrics are fed;
// implementations must not call back into the Tracker.
type Observer interface {
	BufferCreated(b *Buffer)
	BufferCopied(b *Buffer, dir CopyDirection, n int)
	BufferReleased(b *Buffer)
	KernelCreated(k *Kernel)
	KernelExecuted(k *Kernel)
	RegistryFull(table string)
	Untracked(event string)
	FetchFailed(b *Buffer, err error)
}

// NopObserver ignores everything. Embed it to implement part of Observer.
type NopObserver struct{}

func (NopObserver) BufferCreated(*Buffer)                    {}
func (NopObserver) BufferCopied(*Buffer, CopyDirection, int) {}
func (NopObserver) BufferReleased(*Buffer)                   {}
func (NopObserver) KernelCreated(*Kernel)                    {}
func (NopObserver) KernelExecuted(*Kernel)                   {}
func (NopObserver) RegistryFull(string)                      {}
func (NopObserver) Untracked(string)                         {}
func (NopObserver) FetchFailed(*Buffer, error)               {}
