package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"omibyte.io/cmrt/boot"
	"omibyte.io/cmrt/builder"
)

// commonOpts are the flags shared by build, check and layout.
type commonOpts struct {
	target     string
	device     string
	tags       string
	verbose    string
	interrupts int
	stackStart uint32
	lint       bool
	boot       boot.Config
}

func (o *commonOpts) register(flags *pflag.FlagSet) {
	flags.StringVar(&o.target, "target", "", "target chip or series (default $CMRT_TARGET)")
	flags.StringVar(&o.device, "device", "", "SVD description of the device (default $CMRT_DEVICE)")
	flags.StringVarP(&o.tags, "tags", "t", "", "comma separated build tags")
	flags.StringVarP(&o.verbose, "verbose", "v", "", "verbosity level (quiet, info, warning, debug)")
	flags.IntVar(&o.interrupts, "interrupts", 0, "number of interrupt slots without a device description")
	flags.Uint32Var(&o.stackStart, "stack-start", 0, "initial stack pointer (default end of RAM)")
	flags.BoolVar(&o.lint, "lint", false, "report package variables used by the pre-init hook")
	flags.BoolVar(&o.boot.SetSP, "set-sp", false, "reload the main stack pointer in the reset handler")
	flags.BoolVar(&o.boot.SetVTOR, "set-vtor", false, "point VTOR at the vector table in the reset handler")
	flags.BoolVar(&o.boot.SkipDataInit, "skip-data-init", false, "do not copy initialized statics from flash")
	flags.BoolVar(&o.boot.FPU, "fpu", false, "enable the floating-point unit before the entry point")
}

// options merges the flags with cmrt.yaml from the package directory and the
// environment.
func (o *commonOpts) options(args []string) (builder.Options, error) {
	verbosity, err := builder.ParseVerbosity(o.verbose)
	if err != nil {
		return builder.Options{}, err
	}

	opts := builder.Options{
		Target:     o.target,
		Device:     o.device,
		Interrupts: o.interrupts,
		StackStart: o.stackStart,
		Lint:       o.lint,
		Boot:       o.boot,
		Verbosity:  verbosity,
		Stdout:     os.Stdout,
	}
	if len(o.tags) > 0 {
		opts.BuildTags = strings.Split(o.tags, ",")
	}
	if len(args) > 0 {
		opts.Package = args[0]
	}

	dir := opts.Package
	if len(dir) == 0 {
		dir = "."
	}
	project, err := builder.LoadProject(filepath.Clean(dir))
	if err != nil {
		return builder.Options{}, err
	}
	if err := opts.Merge(project, builder.Environment()); err != nil {
		return builder.Options{}, err
	}
	return opts, nil
}
