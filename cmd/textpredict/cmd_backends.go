package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"textpredict/internal/backend"
)

func newBackendsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List compute backends compiled into this binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range backend.Backends() {
				note := ""
				if name == o.cfg.Backend {
					note = " (selected)"
				}
				if name == backend.LlamaBackendName && !backend.LlamaBuilt() {
					note += " (unavailable: rebuild with -tags llama)"
				}
				fmt.Fprintf(out, "%s%s\n", name, note)
			}
			return nil
		},
	}
}
