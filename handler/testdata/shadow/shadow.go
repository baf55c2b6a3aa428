package shadow

import runtimefault "omibyte.io/cmrt/fault"

// Package-level names matching the runtime packages.
var (
	rt    = "rt"
	fault = "fault"
)

//rt:entry
func start() {
	for {
	}
}

//rt:exception
func SysTick() {
	//rt:static
	var count uint32

	count++
}

//rt:exception
//rt:unsafe
func DefaultHandler(irqn int16) {
	_ = rt
}

//rt:exception
//rt:unsafe
func HardFault(frame *runtimefault.ExceptionFrame) {
	_ = fault
	for {
	}
}
