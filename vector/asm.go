package vector

import (
	"fmt"
	"io"
	"strings"

	"omibyte.io/cmrt/arch"
)

// WriteAssembly emits the GNU assembler source holding the default handlers,
// their weak aliases, the HardFault trampoline when the registry asks for it,
// and the three arrays the linker script places behind the initial stack
// pointer.
func WriteAssembly(out io.Writer, t *Table, reg *Registry) error {
	var w strings.Builder

	w.WriteString(`.syntax unified
.thumb

// Default handler for vectors without a strong definition.
.section .text.DefaultHandler_, "ax", %progbits
.global  DefaultHandler_
.type    DefaultHandler_, %function
.thumb_func
DefaultHandler_:
    wfe
    b    DefaultHandler_
.size DefaultHandler_, .-DefaultHandler_

.weak       DefaultHandler
.thumb_set  DefaultHandler, DefaultHandler_

// Default HardFault handler.
.section .HardFault.default, "ax", %progbits
.global  HardFault_
.type    HardFault_, %function
.thumb_func
HardFault_:
    b    HardFault_
.size HardFault_, .-HardFault_

// Default pre-init hook.
.section .PreInit, "ax", %progbits
.global  DefaultPreInit
.type    DefaultPreInit, %function
.thumb_func
DefaultPreInit:
    bx   lr
.size DefaultPreInit, .-DefaultPreInit

.weak       __pre_init
.thumb_set  __pre_init, DefaultPreInit
`)

	if reg.HardFaultTrampoline() {
		w.WriteString(`
// Forward the frame stacked on whichever stack was active when the fault
// occurred. Bit 2 of EXC_RETURN selects PSP.
.section .HardFaultTrampoline, "ax", %progbits
.global  HardFault
.type    HardFault, %function
.thumb_func
HardFault:
    mov  r0, lr
    movs r1, #4
    tst  r0, r1
    bne  0f
    mrs  r0, MSP
    b    _HardFault
0:
    mrs  r0, PSP
    b    _HardFault
.size HardFault, .-HardFault

.weak       _HardFault
.thumb_set  _HardFault, HardFault_
`)
	} else {
		w.WriteString(`
.weak       HardFault
.thumb_set  HardFault, HardFault_
`)
	}

	slots := t.Slots()

	writeArray(&w, SectionResetVector, SymbolResetVector, func() {
		fmt.Fprintf(&w, "    .long %s\n", SymbolReset)
	})
	writeArray(&w, SectionExceptions, SymbolExceptions, func() {
		for _, s := range slots[2 : 2+arch.CoreSlots] {
			writeSlot(&w, s)
		}
	})
	writeArray(&w, SectionInterrupts, SymbolInterrupts, func() {
		for _, s := range t.interrupts {
			writeSlot(&w, s)
		}
	})

	_, err := io.WriteString(out, w.String())
	return err
}

// writeArray emits one sized data object. The size is what an image audit
// compares against the table.
func writeArray(w *strings.Builder, section, symbol string, body func()) {
	// Must set the "a" flag on the sections.
	fmt.Fprintf(w, "\n.section %s, \"a\", %%progbits\n", section)
	fmt.Fprintf(w, ".global  %s\n", symbol)
	fmt.Fprintf(w, ".type    %s, %%object\n", symbol)
	fmt.Fprintf(w, "%s:\n", symbol)
	body()
	fmt.Fprintf(w, ".size %s, .-%s\n", symbol, symbol)
}

func writeSlot(w *strings.Builder, s Slot) {
	if s.Kind == SlotReserved {
		fmt.Fprintf(w, "    .long 0 /* %d: reserved */\n", s.Index)
		return
	}
	fmt.Fprintf(w, "    .long %s /* %d */\n", s.Name, s.Index)
}
