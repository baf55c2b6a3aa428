package cortexm

import (
	"omibyte.io/cmrt/critical"
	"omibyte.io/cmrt/machine"
)

// Peripherals groups the core peripherals. At most one instance is handed out
// per program.
type Peripherals struct {
	SCB  SCB
	NVIC NVIC
}

var peripherals critical.Singleton[Peripherals]

// Take returns the core peripherals the first time it is called and false on
// every later call.
func Take(m machine.Machine) (*Peripherals, bool) {
	p, ok := peripherals.Take(m)
	if !ok {
		return nil, false
	}
	p.SCB = NewSCB(m)
	p.NVIC = NewNVIC(m)
	return p, true
}

// Steal returns the core peripherals regardless of whether they were taken.
func Steal(m machine.Machine) *Peripherals {
	p := peripherals.Steal()
	p.SCB = NewSCB(m)
	p.NVIC = NewNVIC(m)
	return p
}
