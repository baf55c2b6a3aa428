package link

import "errors"

var (
	ErrRegion         = errors.New("invalid memory region")
	ErrSection        = errors.New("invalid section placement")
	ErrMissingSymbol  = errors.New("symbol missing from image")
	ErrInterruptArray = errors.New("interrupt array larger than the table")
	ErrLayout         = errors.New("vector table layout mismatch")
)
