package boot

import (
	"errors"
	"fmt"
)

// Config selects the optional steps of the reset sequence.
type Config struct {
	// SetSP reloads the main stack pointer from the link-time stack start.
	// Debuggers that soft-reset the core may skip the hardware load.
	SetSP bool `yaml:"set-sp"`

	// SetVTOR writes the vector table address into VTOR. Needed when a
	// bootloader jumps to the image without relocating the table.
	SetVTOR bool `yaml:"set-vtor"`

	// SkipDataInit omits the copy of initialized statics. The bootloader must
	// have performed an equivalent copy.
	SkipDataInit bool `yaml:"skip-data-init"`

	// FPU enables the floating-point coprocessors before the entry point runs.
	FPU bool `yaml:"fpu"`
}

// Layout holds the addresses the link step supplies to the reset sequence.
type Layout struct {
	StackStart  uint32
	VectorTable uint32

	// SBSS and EBSS bound the zero-initialized statics.
	SBSS uint32
	EBSS uint32

	// SData and EData bound the initialized statics in RAM. SIData is where
	// their initial values live in flash.
	SData  uint32
	EData  uint32
	SIData uint32
}

// Validate checks the constraints the reset sequence relies on: word aligned
// region bounds, an 8 byte aligned stack, a vector table VTOR can address and
// ordered, disjoint regions.
func (l Layout) Validate() error {
	var errs []error

	aligned := func(name string, addr, align uint32) {
		if addr%align != 0 {
			errs = append(errs, fmt.Errorf("%w: %s (0x%08X) is not %d-byte aligned", ErrMisaligned, name, addr, align))
		}
	}
	aligned("__sbss", l.SBSS, 4)
	aligned("__ebss", l.EBSS, 4)
	aligned("__sdata", l.SData, 4)
	aligned("__edata", l.EData, 4)
	aligned("__sidata", l.SIData, 4)
	aligned("_stack_start", l.StackStart, 8)
	aligned("__vector_table", l.VectorTable, 128)

	if l.EBSS < l.SBSS {
		errs = append(errs, fmt.Errorf("%w: __ebss (0x%08X) precedes __sbss (0x%08X)", ErrBounds, l.EBSS, l.SBSS))
	}
	if l.EData < l.SData {
		errs = append(errs, fmt.Errorf("%w: __edata (0x%08X) precedes __sdata (0x%08X)", ErrBounds, l.EData, l.SData))
	}
	if l.BSSSize() > 0 && l.DataSize() > 0 && l.SBSS < l.EData && l.SData < l.EBSS {
		errs = append(errs, fmt.Errorf("%w: .bss and .data", ErrOverlap))
	}

	return errors.Join(errs...)
}

// DataSize returns the number of bytes copied by the copy-init step.
func (l Layout) DataSize() uint32 {
	return l.EData - l.SData
}

// BSSSize returns the number of bytes cleared by the zero-init step.
func (l Layout) BSSSize() uint32 {
	return l.EBSS - l.SBSS
}
