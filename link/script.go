package link

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"

	"omibyte.io/cmrt/arch"
	"omibyte.io/cmrt/vector"
)

// Placement moves the code of the listed symbols into an output section of
// its own, ahead of the general .text section.
type Placement struct {
	Section string
	Symbols []string
}

var sectionName = regexp.MustCompile(`^\.[A-Za-z_][A-Za-z0-9_.]*$`)

// reservedSections cannot be requested by a placement.
var reservedSections = []string{".vector_table", ".text", ".rodata", ".data", ".bss", ".uninit"}

func (p Placement) Validate() error {
	if !sectionName.MatchString(p.Section) {
		return fmt.Errorf("%w: %q is not a section name", ErrSection, p.Section)
	}
	if slices.Contains(reservedSections, p.Section) {
		return fmt.Errorf("%w: %s is reserved", ErrSection, p.Section)
	}
	return nil
}

// Script describes link.x.
type Script struct {
	Table      *vector.Table
	Placements []Placement
}

// WriteLinkScript emits link.x. The script includes memory.x and, in
// device-provided mode, device.x.
func WriteLinkScript(out io.Writer, s Script) error {
	placements, err := mergePlacements(s.Placements)
	if err != nil {
		return err
	}

	t := s.Table
	var w strings.Builder

	w.WriteString("INCLUDE memory.x\n\n")
	fmt.Fprintf(&w, "ENTRY(%s);\n\n", vector.SymbolReset)

	// Keep the arrays even though nothing references them.
	for _, sym := range []string{vector.SymbolResetVector, vector.SymbolExceptions, vector.SymbolInterrupts} {
		fmt.Fprintf(&w, "EXTERN(%s);\n", sym)
	}
	fmt.Fprintf(&w, "EXTERN(%s);\n", vector.SymbolDefaultHandler)
	fmt.Fprintf(&w, "EXTERN(%s);\n\n", vector.SymbolHardFault)

	for _, e := range arch.Exceptions(t.Tier()) {
		if e == 0 || e == arch.HardFault {
			continue
		}
		fmt.Fprintf(&w, "PROVIDE(%s = %s);\n", e, vector.SymbolDefaultHandler)
	}
	fmt.Fprintf(&w, "\nPROVIDE(%s = ORIGIN(RAM) + LENGTH(RAM));\n\n", vector.SymbolStackStart)

	w.WriteString("SECTIONS\n{\n")
	fmt.Fprintf(&w, `  .vector_table ORIGIN(FLASH) :
  {
    %s = .;
    LONG(%s);
    KEEP(*(%s));
    KEEP(*(%s));
    KEEP(*(%s));
  } > FLASH
`, vector.SymbolVectorTable, vector.SymbolStackStart, vector.SectionResetVector, vector.SectionExceptions, vector.SectionInterrupts)

	for _, p := range placements {
		fmt.Fprintf(&w, "\n  %s : ALIGN(4)\n  {\n", p.Section)
		for _, sym := range p.Symbols {
			fmt.Fprintf(&w, "    KEEP(*(.text.%s .text.%s.*));\n", sym, sym)
		}
		w.WriteString("    . = ALIGN(4);\n  } > FLASH\n")
	}

	fmt.Fprintf(&w, `
  .text : ALIGN(4)
  {
    __stext = .;
    *(%s);
    *(.text .text.*);
    *(%s);
    *(.HardFault.*);
    *(%s);
    . = ALIGN(4);
    __etext = .;
  } > FLASH

  .rodata : ALIGN(4)
  {
    . = ALIGN(4);
    __srodata = .;
    *(.rodata .rodata.*);
    . = ALIGN(4);
    __erodata = .;
  } > FLASH

  .data : ALIGN(4)
  {
    . = ALIGN(4);
    __sdata = .;
    *(.data .data.*);
    . = ALIGN(4);
    __edata = .;
  } > RAM AT>FLASH

  __sidata = LOADADDR(.data);

  .bss (NOLOAD) : ALIGN(4)
  {
    . = ALIGN(4);
    __sbss = .;
    *(.bss .bss.*);
    *(COMMON);
    . = ALIGN(4);
    __ebss = .;
  } > RAM

  .uninit (NOLOAD) : ALIGN(4)
  {
    . = ALIGN(4);
    __suninit = .;
    *(.uninit .uninit.*);
    . = ALIGN(4);
    __euninit = .;
  } > RAM

  PROVIDE(__sheap = __euninit);

  /DISCARD/ :
  {
    *(.ARM.exidx);
    *(.ARM.exidx.*);
    *(.ARM.extab.*);
  }
}
`, vector.SectionReset, vector.SectionHardFaultTramp, vector.SectionPreInit)

	w.WriteString(`
ASSERT(ORIGIN(FLASH) % 128 == 0, "ERROR(cmrt): the vector table must be 128-byte aligned");
ASSERT(_stack_start % 8 == 0, "ERROR(cmrt): stack start address is not 8-byte aligned");
ASSERT(__sdata % 4 == 0 && __edata % 4 == 0, "ERROR(cmrt): .data is not 4-byte aligned");
ASSERT(__sidata % 4 == 0, "ERROR(cmrt): the LMA of .data is not 4-byte aligned");
ASSERT(__sbss % 4 == 0 && __ebss % 4 == 0, "ERROR(cmrt): .bss is not 4-byte aligned");
ASSERT(ADDR(.vector_table) + SIZEOF(.vector_table) <= __stext, "ERROR(cmrt): .text overlaps the vector table");
`)
	fmt.Fprintf(&w, "ASSERT(SIZEOF(.vector_table) <= 0x%X, \"ERROR(cmrt): the vector table is larger than %s allows\");\n",
		(2+arch.CoreSlots+t.Tier().MaxInterrupts())*4, t.Tier())

	if t.Mode() == vector.DeviceProvided {
		fmt.Fprintf(&w, "ASSERT(SIZEOF(.vector_table) == 0x%X, \"ERROR(cmrt): the interrupt vectors do not match the device description\");\n", t.SizeBytes())
		w.WriteString("\nINCLUDE device.x\n")
	}

	_, err = io.WriteString(out, w.String())
	return err
}

// mergePlacements validates the placements and folds those naming the same
// section together, keeping the order of first appearance.
func mergePlacements(in []Placement) ([]Placement, error) {
	var out []Placement
	for _, p := range in {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		i := slices.IndexFunc(out, func(q Placement) bool { return q.Section == p.Section })
		if i < 0 {
			out = append(out, Placement{Section: p.Section, Symbols: slices.Clone(p.Symbols)})
			continue
		}
		out[i].Symbols = append(out[i].Symbols, p.Symbols...)
	}
	return out, nil
}

// WriteDeviceScript emits device.x, binding every device interrupt to
// DefaultHandler unless the program defines it.
func WriteDeviceScript(out io.Writer, t *vector.Table) error {
	if t.Mode() != vector.DeviceProvided {
		return nil
	}

	var w strings.Builder
	for _, s := range t.Interrupts() {
		if s.Kind != vector.SlotInterrupt {
			continue
		}
		fmt.Fprintf(&w, "PROVIDE(%s = %s);\n", s.Name, vector.SymbolDefaultHandler)
	}
	_, err := io.WriteString(out, w.String())
	return err
}
