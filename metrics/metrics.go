// Package metrics exports tracker activity as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
)

const namespace = "gpu_kernel_trace"

// Collector counts tracker events. It implements tracker.Observer.
type Collector struct {
	buffersCreated   prometheus.Counter
	bufferCopies     *prometheus.CounterVec
	buffersReleased  prometheus.Counter
	kernelsCreated   prometheus.Counter
	kernelExecutions *prometheus.CounterVec
	registryFull     *prometheus.CounterVec
	untracked        *prometheus.CounterVec
	fetchFailures    prometheus.Counter
}

var _ tracker.Observer = (*Collector)(nil)

// NewCollector creates the counters and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		buffersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffers_created_total",
			Help:      "Buffers and sub-buffers registered.",
		}),
		bufferCopies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_copies_total",
			Help:      "Host transfers on tracked buffers.",
		}, []string{"direction"}),
		buffersReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffers_released_total",
			Help:      "Tracked buffers released.",
		}),
		kernelsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kernels_created_total",
			Help:      "Kernels registered.",
		}),
		kernelExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kernel_executions_total",
			Help:      "Kernel launches by kernel name.",
		}, []string{"kernel"}),
		registryFull: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_full_total",
			Help:      "Registrations dropped because a table was full.",
		}, []string{"table"}),
		untracked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "untracked_events_total",
			Help:      "Events ignored because their handle was not tracked.",
		}, []string{"event"}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_fetch_failures_total",
			Help:      "Buffer content retrievals that failed.",
		}),
	}
	reg.MustRegister(
		c.buffersCreated,
		c.bufferCopies,
		c.buffersReleased,
		c.kernelsCreated,
		c.kernelExecutions,
		c.registryFull,
		c.untracked,
		c.fetchFailures,
	)
	return c
}

func (c *Collector) BufferCreated(*tracker.Buffer) { c.buffersCreated.Inc() }

func (c *Collector) BufferCopied(_ *tracker.Buffer, dir tracker.CopyDirection, _ int) {
	c.bufferCopies.WithLabelValues(dir.String()).Inc()
}

func (c *Collector) BufferReleased(*tracker.Buffer) { c.buffersReleased.Inc() }

func (c *Collector) KernelCreated(*tracker.Kernel) { c.kernelsCreated.Inc() }

func (c *Collector) KernelExecuted(k *tracker.Kernel) {
	c.kernelExecutions.WithLabelValues(k.Name).Inc()
}

func (c *Collector) RegistryFull(table string) { c.registryFull.WithLabelValues(table).Inc() }

func (c *Collector) Untracked(event string) { c.untracked.WithLabelValues(event).Inc() }

func (c *Collector) FetchFailed(*tracker.Buffer, error) { c.fetchFailures.Inc() }
