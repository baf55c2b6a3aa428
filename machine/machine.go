// Package machine defines the boundary between the runtime and the processor.
//
// Every instruction-level operation the runtime needs is expressed through the
// interfaces in this package. On a device they map one-to-one onto single
// instructions; on a host they are provided by the simulated core in the sim
// package.
package machine

// Primitives are the zero-argument instruction wrappers.
type Primitives interface {
	// DisableInterrupts sets PRIMASK. No memory access that follows the call
	// may be reordered before it.
	DisableInterrupts()

	// EnableInterrupts clears PRIMASK. No memory access that precedes the call
	// may be reordered after it.
	EnableInterrupts()

	// InterruptsEnabled reports whether PRIMASK is clear.
	InterruptsEnabled() bool

	DSB()
	ISB()
	DMB()
	WFE()
	WFI()
	SEV()
	NOP()

	Breakpoint(imm uint8)

	// Udf executes a permanently undefined instruction. It does not return.
	Udf(imm uint8)
}

// Registers gives access to the special registers used during boot and fault
// dispatch.
type Registers interface {
	MSP() uint32
	SetMSP(value uint32)
	PSP() uint32
	SetPSP(value uint32)
	LR() uint32
	SetLR(value uint32)

	// Push stores a word on the active stack, decrementing its pointer first.
	Push(value uint32)
}

// Memory is word-granular access to the address space.
type Memory interface {
	Load32(addr uint32) uint32
	Store32(addr uint32, value uint32)

	// Words returns a live view of count consecutive words starting at addr.
	// Writes through the view are visible to subsequent loads.
	Words(addr uint32, count int) []uint32
}

// Machine is the complete set of operations the runtime consumes.
type Machine interface {
	Primitives
	Registers
	Memory
}
