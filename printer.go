package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/vuvietnguyenit/gpu-kernel-trace/config"
	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
)

// TracePrinter renders kernel traces as tables. Full buffer dumps go to a
// separate file when one is configured.
type TracePrinter struct {
	mu        sync.Mutex
	w         io.Writer
	dump      io.Writer
	dumpFile  *os.File
	direction bool
}

func NewTracePrinter(w io.Writer, cfg config.Config) (*TracePrinter, error) {
	p := &TracePrinter{
		w:         w,
		dump:      w,
		direction: cfg.PrintBufferDirection,
	}
	if cfg.FullBufferDump && cfg.FullDumpPath != "" {
		f, err := os.Create(cfg.FullDumpPath)
		if err != nil {
			return nil, fmt.Errorf("open dump file: %w", err)
		}
		p.dump = f
		p.dumpFile = f
	}
	return p, nil
}

func (p *TracePrinter) Emit(tr *tracker.Trace) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "%s [%s] %s exec=%d global=%v local=%v\n",
		tr.Time.Format(time.RFC3339Nano), strings.ToUpper(tr.Phase.String()),
		tr.Kernel, tr.Exec, tr.GlobalSize(), tr.LocalSize())
	if len(tr.Params) == 0 {
		return
	}

	table := tablewriter.NewTable(p.w, tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
		Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
	})))
	header := []string{"#", "TYPE", "NAME", "VALUE", "BUFFER"}
	if p.direction {
		header = append([]string{"DIR"}, header...)
	}
	table.Header(header)

	for _, pt := range tr.Params {
		row := []string{
			strconv.Itoa(pt.Index),
			pt.Type,
			pt.Name,
			pt.Value,
			bufferColumn(pt),
		}
		if p.direction {
			row = append([]string{pt.Direction}, row...)
		}
		table.Append(row)
	}
	if err := table.Render(); err != nil {
		slog.Warn("failed to render trace", "kernel", tr.Kernel, "err", err)
	}

	for _, pt := range tr.Params {
		if len(pt.Dump) > 0 {
			fmt.Fprintf(p.dump, "%s exec=%d %s %s[%d:]: %s\n",
				tr.Kernel, tr.Exec, tr.Phase, pt.Name, pt.Offset, strings.Join(pt.Dump, " "))
		}
	}
}

func bufferColumn(pt tracker.ParamTrace) string {
	if !pt.IsBuffer {
		return ""
	}
	s := fmt.Sprintf("uid=%d size=%s", pt.BufferUID, humanize.IBytes(pt.BufferSize))
	if pt.Offset != 0 {
		s += fmt.Sprintf(" offset=%d", pt.Offset)
	}
	return s
}

func (p *TracePrinter) Close() error {
	if p.dumpFile == nil {
		return nil
	}
	return p.dumpFile.Close()
}
