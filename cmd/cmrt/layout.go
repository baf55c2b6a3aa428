package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"omibyte.io/cmrt/builder"
)

var (
	layoutOpts commonOpts

	layoutCmd = &cobra.Command{
		Use:   "layout",
		Short: "Print the vector table layout of a target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := layoutOpts.options(nil)
			if err != nil {
				return err
			}
			opts.Verbosity = builder.Quiet

			table, err := builder.Layout(opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s, %d slots, %d bytes\n\n", table.Tier(), table.Len(), table.SizeBytes())
			for _, slot := range table.Slots() {
				fmt.Fprintf(w, "0x%03X  %s\n", slot.Offset(), slot)
			}
			return nil
		},
	}
)

func init() {
	layoutOpts.register(layoutCmd.Flags())
}
