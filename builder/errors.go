package builder

import "errors"

var (
	ErrNoTarget             = errors.New("no target specified")
	ErrUnexpectedOutputPath = errors.New("unexpected output path provided")
	ErrNoFPU                = errors.New("target has no floating-point unit")
	ErrVerbosity            = errors.New("unknown verbosity level")
	ErrProjectConfig        = errors.New("invalid project configuration")
	ErrToolchain            = errors.New("no assembler found")
	ErrAssembler            = errors.New("assembler failed")
)
