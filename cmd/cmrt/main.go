package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "cmrt",
	Short:         "Cortex-M boot and exception-vector runtime",
	Long:          "cmrt verifies the handler declarations of a program and generates the vector table, reset code and linker scripts for a Cortex-M target.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(buildCmd, checkCmd, layoutCmd, inspectCmd, targetsCmd, envCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cmrt:", err)
		os.Exit(1)
	}
}
