package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"omibyte.io/cmrt/builder"
)

var (
	checkOpts commonOpts

	checkCmd = &cobra.Command{
		Use:   "check [package]",
		Short: "Verify the handlers without writing anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := checkOpts.options(args)
			if err != nil {
				return err
			}

			result, err := builder.Check(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if opts.Verbosity >= builder.Info {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d handlers ok\n", result.PkgPath, len(result.Handlers))
			}
			return nil
		},
	}
)

func init() {
	checkOpts.register(checkCmd.Flags())
}
