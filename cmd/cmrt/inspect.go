package main

import (
	"github.com/spf13/cobra"

	"omibyte.io/cmrt/builder"
	"omibyte.io/cmrt/link"
)

var (
	inspectOpts = struct {
		interrupts int
		binary     string
	}{}

	inspectCmd = &cobra.Command{
		Use:   "inspect <image>",
		Short: "Audit the vector table of a linked image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := link.Inspect(args[0], link.Expect{Interrupts: inspectOpts.interrupts})
			if report != nil {
				report.Print(cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}

			if len(inspectOpts.binary) > 0 {
				toolchain, err := builder.FindToolchain(builder.Environment())
				if err != nil {
					return err
				}
				return toolchain.Binary(cmd.Context(), args[0], inspectOpts.binary)
			}
			return nil
		},
	}
)

func init() {
	inspectCmd.Flags().IntVar(&inspectOpts.interrupts, "interrupts", 0, "largest acceptable number of interrupt slots")
	inspectCmd.Flags().StringVar(&inspectOpts.binary, "bin", "", "also write a raw binary image")
}
