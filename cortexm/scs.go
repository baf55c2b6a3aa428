package cortexm

import "omibyte.io/cmrt/machine"

// System control space addresses.
const (
	SCSBase   = 0xE000E000
	SCSLength = 0x1000

	SYSTBase = 0xE000E010
	NVICBase = 0xE000E100
	SCBBase  = 0xE000ED00

	ICSR  = SCBBase + 0x04
	VTOR  = SCBBase + 0x08
	AIRCR = SCBBase + 0x0C
	SHPR1 = SCBBase + 0x18
	SHPR2 = SCBBase + 0x1C
	SHPR3 = SCBBase + 0x20
	SHCSR = SCBBase + 0x24
	CPACR = SCBBase + 0x88
)

const (
	icsrVectActiveMask = 0x1FF
	icsrPendSVSet      = 1 << 28
	icsrPendSVClr      = 1 << 27
	icsrPendSTSet      = 1 << 26
	icsrPendSTClr      = 1 << 25

	vtorMask = 0xFFFFFF80

	// CP10 and CP11 full access for privileged and unprivileged code.
	CPACRFPUEnable = 0b0101 << 20
	CPACRFPUUser   = 0b1010 << 20
	CPACRFPUMask   = CPACRFPUEnable | CPACRFPUUser
)

// SCB is a view of the system control block registers the runtime uses.
type SCB struct {
	mem machine.Memory
}

func NewSCB(mem machine.Memory) SCB {
	return SCB{mem: mem}
}

// VectActive returns the exception number currently being serviced, zero in
// thread mode.
func (s SCB) VectActive() uint16 {
	return uint16(s.mem.Load32(ICSR) & icsrVectActiveMask)
}

// IRQn returns the CMSIS number of the active exception. Core exceptions are
// negative, device interrupts start at zero.
func (s SCB) IRQn() int16 {
	return int16(s.VectActive()) - 16
}

func (s SCB) VTOR() uint32 {
	return s.mem.Load32(VTOR)
}

// SetVTOR relocates the vector table. The low seven bits are ignored by the
// hardware.
func (s SCB) SetVTOR(addr uint32) {
	s.mem.Store32(VTOR, addr&vtorMask)
}

// EnableFPU grants privileged and unprivileged access to the floating-point
// coprocessors. The caller must issue DSB and ISB before any floating-point
// instruction executes.
func (s SCB) EnableFPU() {
	s.mem.Store32(CPACR, s.mem.Load32(CPACR)|CPACRFPUMask)
}

func (s SCB) FPUEnabled() bool {
	return s.mem.Load32(CPACR)&CPACRFPUMask == CPACRFPUMask
}

func (s SCB) SetPendSV() {
	s.mem.Store32(ICSR, icsrPendSVSet)
}

func (s SCB) ClearPendSV() {
	s.mem.Store32(ICSR, icsrPendSVClr)
}

func (s SCB) IsPendSVPending() bool {
	return s.mem.Load32(ICSR)&icsrPendSVSet != 0
}

func (s SCB) SetPendST() {
	s.mem.Store32(ICSR, icsrPendSTSet)
}

func (s SCB) ClearPendST() {
	s.mem.Store32(ICSR, icsrPendSTClr)
}

// SystemPriority returns the priority byte of a configurable core exception
// (4..15) from the SHPR registers.
func (s SCB) SystemPriority(exception uint8) uint8 {
	reg := uint32(SHPR1) + uint32(exception-4)&^3
	shift := uint32(exception%4) * 8
	return uint8(s.mem.Load32(reg) >> shift)
}

func (s SCB) SetSystemPriority(exception uint8, priority uint8) {
	reg := uint32(SHPR1) + uint32(exception-4)&^3
	shift := uint32(exception%4) * 8
	value := s.mem.Load32(reg)
	value &^= 0xFF << shift
	value |= uint32(priority) << shift
	s.mem.Store32(reg, value)
}
