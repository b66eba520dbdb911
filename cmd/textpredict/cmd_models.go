package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"textpredict/internal/bundle"
)

func newModelsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "models [dir]",
		Short: "List model bundles found in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := o.cfg.ModelDir
			if len(args) == 1 {
				dir = args[0]
			}
			entries, err := bundle.Scan(dir)
			if err != nil {
				return fmt.Errorf("scan %s: %w", dir, err)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "no bundles found in %s\n", dir)
				return nil
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("MANIFEST", "FORMAT", "SHARDS", "STATUS")
			for _, e := range entries {
				status := "complete"
				if !e.Complete() {
					status = fmt.Sprintf("missing %d", len(e.Missing))
				}
				format := e.Format
				if format == "" {
					format = "-"
				}
				t.Row(e.ID, format, strconv.Itoa(e.ShardCount), status)
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
}
