// Package critical implements the interrupt-mask based critical section, the
// only mutual exclusion mechanism available on a single core.
package critical

import "omibyte.io/cmrt/machine"

// RestoreState records whether interrupt delivery was enabled when a critical
// section was acquired.
type RestoreState uint8

const (
	restoreIgnore   RestoreState = 0
	restoreReenable RestoreState = 1
)

// CS is a token proving that a critical section is held. Only this package
// can create one.
type CS struct {
	_ struct{}
}

// Acquire disables interrupt delivery and returns the state needed to undo it.
func Acquire(p machine.Primitives) RestoreState {
	state := restoreIgnore
	if p.InterruptsEnabled() {
		state = restoreReenable
	}
	p.DisableInterrupts()
	return state
}

// Release re-enables interrupt delivery only if it was enabled when the
// matching Acquire ran. Releasing an inner section of a nested pair therefore
// leaves delivery disabled.
func Release(p machine.Primitives, state RestoreState) {
	if state == restoreReenable {
		p.EnableInterrupts()
	}
}

// With runs fn inside a critical section and returns its result.
func With[R any](p machine.Primitives, fn func(cs CS) R) R {
	state := Acquire(p)
	defer Release(p, state)
	return fn(CS{})
}

// Do is With for closures without a result.
func Do(p machine.Primitives, fn func(cs CS)) {
	state := Acquire(p)
	defer Release(p, state)
	fn(CS{})
}
