package cortexm

import "omibyte.io/cmrt/machine"

const (
	ISER = NVICBase + 0x000
	ICER = NVICBase + 0x080
	ISPR = NVICBase + 0x100
	ICPR = NVICBase + 0x180
	IPR  = NVICBase + 0x300
)

// Interrupt is a device interrupt number (IRQn >= 0).
type Interrupt int16

func (i Interrupt) word() uint32 {
	return uint32(i>>5) * 4
}

func (i Interrupt) bit() uint32 {
	return 1 << (uint32(i) & 0x1F)
}

// NVIC is a view of the nested vectored interrupt controller.
type NVIC struct {
	mem machine.Memory
}

func NewNVIC(mem machine.Memory) NVIC {
	return NVIC{mem: mem}
}

func (n NVIC) EnableIRQ(i Interrupt) {
	n.mem.Store32(ISER+i.word(), i.bit())
}

func (n NVIC) DisableIRQ(i Interrupt) {
	n.mem.Store32(ICER+i.word(), i.bit())
}

func (n NVIC) IsEnabled(i Interrupt) bool {
	return n.mem.Load32(ISER+i.word())&i.bit() != 0
}

func (n NVIC) Pend(i Interrupt) {
	n.mem.Store32(ISPR+i.word(), i.bit())
}

func (n NVIC) Unpend(i Interrupt) {
	n.mem.Store32(ICPR+i.word(), i.bit())
}

func (n NVIC) IsPending(i Interrupt) bool {
	return n.mem.Load32(ISPR+i.word())&i.bit() != 0
}

func (n NVIC) Priority(i Interrupt) uint8 {
	reg := uint32(IPR) + uint32(i)&^3
	return uint8(n.mem.Load32(reg) >> ((uint32(i) % 4) * 8))
}

func (n NVIC) SetPriority(i Interrupt, priority uint8) {
	reg := uint32(IPR) + uint32(i)&^3
	shift := (uint32(i) % 4) * 8
	value := n.mem.Load32(reg)
	value &^= 0xFF << shift
	value |= uint32(priority) << shift
	n.mem.Store32(reg, value)
}
