package vector

import "errors"

var (
	ErrDuplicateDefinition = errors.New("duplicate strong definition")
	ErrMissingEntry        = errors.New("no entry point defined")
	ErrTableOverflow       = errors.New("vector table exceeds the device maximum")
	ErrUndefinedSymbol     = errors.New("undefined symbol")
	ErrUnknownVector       = errors.New("unknown vector")
	ErrInterruptPosition   = errors.New("invalid device interrupt position")
)
