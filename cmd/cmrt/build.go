package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"omibyte.io/cmrt/builder"
)

var (
	buildOpts = struct {
		commonOpts
		output   string
		assemble bool
	}{}

	buildCmd = &cobra.Command{
		Use:   "build [package]",
		Short: "Verify the handlers and generate the runtime",
		Long:  "Verify the handlers of a package, rewrite them into exported wrappers and write the vector table, reset code and linker scripts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildOpts.options(args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				opts.Output = buildOpts.output
			}
			opts.Assemble = buildOpts.assemble

			result, err := builder.Build(cmd.Context(), opts)
			if err != nil {
				if builder.IsVerificationError(err) {
					return fmt.Errorf("build error: %w", err)
				}
				return err
			}

			if opts.Verbosity >= builder.Info {
				for _, name := range result.Files {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
			}
			return nil
		},
	}
)

func init() {
	buildOpts.register(buildCmd.Flags())
	buildCmd.Flags().StringVarP(&buildOpts.output, "output", "o", "build", "output directory")
	buildCmd.Flags().BoolVar(&buildOpts.assemble, "assemble", false, "assemble the generated sources")
}
