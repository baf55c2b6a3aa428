package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"omibyte.io/cmrt/builder"
	"omibyte.io/cmrt/targets"
)

var (
	targetsCmd = &cobra.Command{
		Use:   "targets",
		Short: "List the known targets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			for _, t := range targets.All() {
				fmt.Fprintf(w, "%-10s %-14s %-12s %3d irqs  %s\n", t.Series, t.Cpu, t.Architecture, t.Interrupts, strings.Join(t.Chips, ", "))
			}
		},
	}

	envCmd = &cobra.Command{
		Use:   "env",
		Short: "Print the cmrt environment",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			builder.Environment().Print(cmd.OutOrStdout())
		},
	}
)
