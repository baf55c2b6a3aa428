package builder

import (
	"fmt"
	"io"
	"strings"

	"omibyte.io/cmrt/boot"
)

type Verbosity int

const (
	Quiet Verbosity = iota
	Info
	Warning
	Debug
)

var verbosityNames = []string{"quiet", "info", "warning", "debug"}

func (v Verbosity) String() string {
	if v >= 0 && int(v) < len(verbosityNames) {
		return verbosityNames[v]
	}
	return fmt.Sprintf("Verbosity(%d)", int(v))
}

// ParseVerbosity accepts the level names. The empty string selects Info.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(s) {
	case "", "verbose":
		return Info, nil
	}
	for i, name := range verbosityNames {
		if name == strings.ToLower(s) {
			return Verbosity(i), nil
		}
	}
	return Quiet, fmt.Errorf("%w: %q", ErrVerbosity, s)
}

type Options struct {
	// Package is the directory of the package holding the handlers.
	Package string
	Output  string

	// Target is a chip or series name from the target catalogue.
	Target string

	// Device is the path of an SVD description. Without one the table is
	// built in device-agnostic mode.
	Device string

	Boot boot.Config

	// Interrupts overrides the number of device-agnostic interrupt slots.
	Interrupts int

	// StackStart overrides the initial stack pointer. Zero selects the end
	// of RAM.
	StackStart uint32

	BuildTags []string
	Lint      bool

	// Assemble runs the discovered assembler over the generated sources.
	Assemble bool

	Verbosity   Verbosity
	Stdout      io.Writer
	Environment Env
}
