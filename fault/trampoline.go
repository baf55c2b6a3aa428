// Package fault dispatches the HardFault vector to a user handler together
// with the frame the hardware stacked for the faulting code.
package fault

import "omibyte.io/cmrt/machine"

// EXCReturn is the special value the hardware loads into LR on exception
// entry.
type EXCReturn uint32

const (
	excReturnSPSel    = 1 << 2
	excReturnThread   = 1 << 3
	excReturnStandard = 1 << 4
)

// UsesProcessStack reports whether the frame was stacked on the process stack.
func (e EXCReturn) UsesProcessStack() bool {
	return e&excReturnSPSel != 0
}

// ReturnsToThread reports whether the exception preempted thread mode.
func (e EXCReturn) ReturnsToThread() bool {
	return e&excReturnThread != 0
}

// HasExtendedFrame reports whether floating-point state was stacked after the
// basic frame.
func (e EXCReturn) HasExtendedFrame() bool {
	return e&excReturnStandard == 0
}

// Handler receives the frame of the faulting context. It must not return.
type Handler func(frame *ExceptionFrame)

// StackPointer returns the stack pointer holding the frame stacked on entry,
// as selected by bit 2 of the EXC_RETURN value in LR.
func StackPointer(m machine.Registers) uint32 {
	if EXCReturn(m.LR()).UsesProcessStack() {
		return m.PSP()
	}
	return m.MSP()
}

// Frame returns a live view of the frame stacked at sp.
func Frame(mem machine.Memory, sp uint32) *ExceptionFrame {
	return (*ExceptionFrame)(mem.Words(sp, len(ExceptionFrame{})))
}

// Trampoline returns the routine bound to the HardFault vector. It locates the
// frame on whichever stack was active when the fault occurred and forwards a
// pointer to it.
func Trampoline(m machine.Machine, handler Handler) func() {
	return func() {
		handler(Frame(m, StackPointer(m)))
	}
}

// Direct binds a handler that never looks at the frame. No stack selection
// takes place.
func Direct(handler func()) func() {
	return handler
}
