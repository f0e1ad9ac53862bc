package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/vuvietnguyenit/gpu-kernel-trace/bindings"
	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
)

var FlagSymbolsLib string

func symbolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols [names...]",
		Short: "Resolve the native API entry points of a library",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = bindings.DefaultSymbols
			}
			var paths []string
			if FlagSymbolsLib != "" {
				paths = []string{FlagSymbolsLib}
			}
			lib, err := bindings.Open(paths...)
			if err != nil {
				return err
			}
			defer lib.Close()

			b, missing := lib.Resolve(names)
			printSymbols(cmd.OutOrStdout(), names, b)
			if len(missing) == len(names) {
				return fmt.Errorf("none of %d symbols found in %s", len(names), lib.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&FlagSymbolsLib, "lib", "", "Library to load (default: the system OpenCL loader)")
	return cmd
}

func printSymbols(w io.Writer, names []string, b tracker.Bindings) {
	table := tablewriter.NewTable(w, tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
		Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
	})))
	table.Header([]string{"SYMBOL", "ADDRESS", "STATUS"})

	for _, name := range names {
		row := []string{name, "-", "MISSING"}
		if addr, ok := b[name]; ok {
			row = []string{name, fmt.Sprintf("%#x", addr), "OK"}
		}
		table.Append(row)
	}
	table.Render()
}
