package machine

import "fmt"

type TrapKind int

const (
	UndefinedInstruction TrapKind = iota
	BusError
	Lockup
	Halted
)

func (k TrapKind) String() string {
	switch k {
	case UndefinedInstruction:
		return "undefined instruction"
	case BusError:
		return "bus error"
	case Lockup:
		return "lockup"
	case Halted:
		return "halted waiting for an event"
	}
	return "unknown trap"
}

// Trap is raised (as a panic value) by machine implementations that cannot
// continue executing the current instruction stream.
type Trap struct {
	Kind    TrapKind
	Address uint32
	Imm     uint8
}

func (t Trap) Error() string {
	switch t.Kind {
	case UndefinedInstruction:
		return fmt.Sprintf("%s (udf #%d)", t.Kind, t.Imm)
	case BusError:
		return fmt.Sprintf("%s at 0x%08X", t.Kind, t.Address)
	}
	return t.Kind.String()
}
