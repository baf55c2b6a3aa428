// Package link writes the linker scripts that place the vector table, the
// reset code and the static regions, and audits the resulting image.
package link

import (
	"fmt"
	"io"
	"strings"

	"omibyte.io/cmrt/targets"
)

// Memory is the content of memory.x: where flash and RAM are, and optionally
// where the stack starts when it should not start at the end of RAM.
type Memory struct {
	Flash targets.Region
	RAM   targets.Region

	// StackStart overrides the initial stack pointer. Zero selects the end of
	// RAM.
	StackStart uint32
}

func (m Memory) Validate() error {
	switch {
	case m.Flash.Length == 0:
		return fmt.Errorf("%w: FLASH is empty", ErrRegion)
	case m.RAM.Length == 0:
		return fmt.Errorf("%w: RAM is empty", ErrRegion)
	case m.Flash.Origin%128 != 0:
		return fmt.Errorf("%w: FLASH origin 0x%08X cannot hold the vector table (128-byte alignment)", ErrRegion, m.Flash.Origin)
	case uint64(m.RAM.Origin)+uint64(m.RAM.Length) > 1<<32:
		return fmt.Errorf("%w: RAM extends past the address space", ErrRegion)
	case m.StackStart != 0 && (m.StackStart <= m.RAM.Origin || m.StackStart > m.RAM.End()):
		return fmt.Errorf("%w: stack start 0x%08X is outside RAM", ErrRegion, m.StackStart)
	case m.StackStart%8 != 0:
		return fmt.Errorf("%w: stack start 0x%08X is not 8-byte aligned", ErrRegion, m.StackStart)
	}
	return nil
}

// StackTop returns the initial stack pointer the image will use.
func (m Memory) StackTop() uint32 {
	if m.StackStart != 0 {
		return m.StackStart
	}
	return m.RAM.End()
}

// WriteMemory emits memory.x.
func WriteMemory(out io.Writer, m Memory) error {
	if err := m.Validate(); err != nil {
		return err
	}

	var w strings.Builder
	w.WriteString("MEMORY\n{\n")
	fmt.Fprintf(&w, "  FLASH : ORIGIN = 0x%08X, LENGTH = %s\n", m.Flash.Origin, m.Flash.Length)
	fmt.Fprintf(&w, "  RAM : ORIGIN = 0x%08X, LENGTH = %s\n", m.RAM.Origin, m.RAM.Length)
	w.WriteString("}\n")
	if m.StackStart != 0 {
		fmt.Fprintf(&w, "\n_stack_start = 0x%08X;\n", m.StackStart)
	}

	_, err := io.WriteString(out, w.String())
	return err
}
