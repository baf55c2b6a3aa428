package boot

import "errors"

var (
	ErrMisaligned = errors.New("misaligned boundary")
	ErrBounds     = errors.New("region bounds out of order")
	ErrOverlap    = errors.New("regions overlap")
)
