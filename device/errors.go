package device

import "errors"

var (
	ErrDecode         = errors.New("failed to decode device description")
	ErrUnknownParent  = errors.New("peripheral derives from an unknown peripheral")
	ErrInterruptValue = errors.New("interrupt value out of range")
	ErrInterruptName  = errors.New("interrupt name is not a valid identifier")
)
