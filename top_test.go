package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vuvietnguyenit/gpu-kernel-trace/config"
	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
)

func TestTopKernelsBasic(t *testing.T) {
	top := NewTopKernels(3)

	stats := []KernelStat{
		{Name: "a", Execs: 100},
		{Name: "b", Execs: 200},
		{Name: "c", Execs: 50},
	}

	for _, s := range stats {
		top.Add(s)
	}

	got := top.TopN()

	if len(got) != 3 {
		t.Fatalf("expected 3 kernels, got %d", len(got))
	}

	// Expect descending order: 200, 100, 50
	want := []uint32{200, 100, 50}
	for i, s := range got {
		if s.Execs != want[i] {
			t.Errorf("unexpected order at %d: got %d, want %d", i, s.Execs, want[i])
		}
	}
}

func TestTopKernelsOverflow(t *testing.T) {
	top := NewTopKernels(3)

	stats := []KernelStat{
		{Name: "a", Execs: 100},
		{Name: "b", Execs: 200},
		{Name: "c", Execs: 50},
		{Name: "d", Execs: 500}, // should kick out 50
	}

	for _, s := range stats {
		top.Add(s)
	}

	got := top.TopN()

	if len(got) != 3 {
		t.Fatalf("expected 3 kernels, got %d", len(got))
	}

	// Expect descending: 500, 200, 100
	want := []uint32{500, 200, 100}
	for i, s := range got {
		if s.Execs != want[i] {
			t.Errorf("unexpected order at %d: got %d, want %d", i, s.Execs, want[i])
		}
	}
}

func TestTopKernelsDisabled(t *testing.T) {
	top := NewTopKernels(0)
	top.Add(KernelStat{Name: "a", Execs: 1})
	if got := top.TopN(); len(got) != 0 {
		t.Fatalf("expected no kernels, got %v", got)
	}
}

func TestTopKernelsCollect(t *testing.T) {
	tr := tracker.New(config.Default(), tracker.Callbacks{}, nil)
	tr.CreateKernel(0x1, "rare", nil)
	tr.CreateKernel(0x2, "hot", []tracker.ParamDecl{{Name: "n", Type: "int"}})
	for range 1500 {
		tr.KernelExecuted(0x2, tracker.WorkSize{}, 1)
		tr.KernelFinished(0x2, tracker.WorkSize{}, 1)
	}
	tr.KernelExecuted(0x1, tracker.WorkSize{}, 1)

	top := NewTopKernels(5)
	top.Collect(tr)
	got := top.TopN()
	if len(got) != 2 || got[0].Name != "hot" || got[0].Execs != 1500 || got[1].Name != "rare" {
		t.Fatalf("unexpected summary: %+v", got)
	}

	var buf bytes.Buffer
	top.PrintTable(&buf)
	if !strings.Contains(buf.String(), "1,500") {
		t.Errorf("expected humanized execution count, got:\n%s", buf.String())
	}
}
