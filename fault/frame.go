package fault

import "fmt"

// ExceptionFrame is the register snapshot the hardware pushes on the active
// stack on exception entry. Its layout matches the stacked words exactly, so a
// pointer to the stacked frame can be used directly.
type ExceptionFrame [8]uint32

const (
	frameR0 = iota
	frameR1
	frameR2
	frameR3
	frameR12
	frameLR
	framePC
	frameXPSR
)

func (f *ExceptionFrame) R0() uint32   { return f[frameR0] }
func (f *ExceptionFrame) R1() uint32   { return f[frameR1] }
func (f *ExceptionFrame) R2() uint32   { return f[frameR2] }
func (f *ExceptionFrame) R3() uint32   { return f[frameR3] }
func (f *ExceptionFrame) R12() uint32  { return f[frameR12] }
func (f *ExceptionFrame) LR() uint32   { return f[frameLR] }
func (f *ExceptionFrame) PC() uint32   { return f[framePC] }
func (f *ExceptionFrame) XPSR() uint32 { return f[frameXPSR] }

// The setters rewrite the stacked state. When the handler returns, the
// preempted code resumes with the modified values.

func (f *ExceptionFrame) SetR0(value uint32)   { f[frameR0] = value }
func (f *ExceptionFrame) SetR1(value uint32)   { f[frameR1] = value }
func (f *ExceptionFrame) SetR2(value uint32)   { f[frameR2] = value }
func (f *ExceptionFrame) SetR3(value uint32)   { f[frameR3] = value }
func (f *ExceptionFrame) SetR12(value uint32)  { f[frameR12] = value }
func (f *ExceptionFrame) SetLR(value uint32)   { f[frameLR] = value }
func (f *ExceptionFrame) SetPC(value uint32)   { f[framePC] = value }
func (f *ExceptionFrame) SetXPSR(value uint32) { f[frameXPSR] = value }

// String formats the frame the way a fault dump prints it.
func (f *ExceptionFrame) String() string {
	return fmt.Sprintf("R0 = %08x R1 = %08x R2 = %08x R3 = %08x\nR12= %08x LR = %08x PC = %08x PSR= %08x",
		f.R0(), f.R1(), f.R2(), f.R3(), f.R12(), f.LR(), f.PC(), f.XPSR())
}
