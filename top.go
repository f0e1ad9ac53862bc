package main

import (
	"container/heap"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
)

// KernelStat is the execution count of one kernel
type KernelStat struct {
	Handle tracker.Handle
	Name   string
	Params int
	Execs  uint32
}

// ---- Heap implementation ----
type MinHeap []KernelStat

func (h MinHeap) Len() int           { return len(h) }
func (h MinHeap) Less(i, j int) bool { return h[i].Execs < h[j].Execs } // smallest first
func (h MinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *MinHeap) Push(x any)        { *h = append(*h, x.(KernelStat)) }
func (h *MinHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ---- Tracker ----
type TopKernels struct {
	N    int
	heap *MinHeap
}

func NewTopKernels(n int) *TopKernels {
	h := &MinHeap{}
	heap.Init(h)
	return &TopKernels{
		N:    n,
		heap: h,
	}
}

func (t *TopKernels) Add(s KernelStat) {
	if t.N <= 0 {
		return
	}
	if t.heap.Len() < t.N {
		heap.Push(t.heap, s)
	} else if (*t.heap)[0].Execs < s.Execs {
		heap.Pop(t.heap)     // remove smallest
		heap.Push(t.heap, s) // push new one
	}
}

// Collect adds every kernel known to tr.
func (t *TopKernels) Collect(tr *tracker.Tracker) {
	tr.Kernels(func(k *tracker.Kernel) bool {
		t.Add(KernelStat{Handle: k.Handle, Name: k.Name, Params: len(k.Params), Execs: k.ExecCounter})
		return true
	})
}

func (t *TopKernels) TopN() []KernelStat {
	// copy and sort descending
	result := make([]KernelStat, t.heap.Len())
	copy(result, *t.heap)
	sort.Slice(result, func(i, j int) bool {
		if result[i].Execs != result[j].Execs {
			return result[i].Execs > result[j].Execs
		}
		return result[i].Name < result[j].Name
	})
	return result
}

func (t *TopKernels) PrintTable(w io.Writer) {
	table := tablewriter.NewTable(w, tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
		Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
	})))
	table.Header([]string{"KERNEL", "HANDLE", "PARAMS", "EXECUTIONS"})

	for _, s := range t.TopN() {
		row := []string{
			s.Name,
			s.Handle.String(),
			humanize.Comma(int64(s.Params)),
			humanize.Comma(int64(s.Execs)),
		}
		table.Append(row)
	}
	table.Render()
}
