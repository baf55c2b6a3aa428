package rt

import (
	"sync/atomic"

	"omibyte.io/cmrt/cortexm"
	"omibyte.io/cmrt/machine"
)

var bound atomic.Pointer[machine.Machine]

// Bind installs the machine the generated wrappers run on. It is called once
// before the vector table becomes live.
func Bind(m machine.Machine) {
	bound.Store(&m)
}

// Machine returns the bound machine. It panics if Bind was never called.
func Machine() machine.Machine {
	m := bound.Load()
	if m == nil {
		panic("rt: no machine bound")
	}
	return *m
}

// VectActive returns the IRQ number of the exception being serviced. Core
// exceptions yield negative numbers.
func VectActive() int16 {
	return cortexm.NewSCB(Machine()).IRQn()
}

// Halt stops the program: interrupt delivery is disabled and the core sleeps
// forever.
func Halt() {
	m := Machine()
	m.DisableInterrupts()
	for {
		m.WFI()
	}
}
