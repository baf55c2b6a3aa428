package boot

import (
	"fmt"
	"io"
	"strings"

	"omibyte.io/cmrt/arch"
	"omibyte.io/cmrt/cortexm"
)

// WriteAssembly emits the Reset routine for the tier. It performs the same
// steps as Sequencer.Reset using the boundary symbols defined by the linker
// script.
func WriteAssembly(out io.Writer, tier arch.Tier, cfg Config) error {
	if cfg.FPU && !tier.HasFPUOption() {
		return fmt.Errorf("%s has no floating-point unit", tier)
	}

	var w strings.Builder

	w.WriteString(`.syntax unified
.thumb

.section .Reset, "ax", %progbits
.global  Reset
.type    Reset, %function
.thumb_func
Reset:
    ldr   r4, =0xffffffff
    mov   lr, r4
`)

	if cfg.SetSP {
		w.WriteString(`
    ldr   r0, =_stack_start
    msr   msp, r0
`)
	}

	if cfg.SetVTOR {
		fmt.Fprintf(&w, `
    ldr   r0, =0x%08X
    ldr   r1, =__vector_table
    str   r1, [r0]
`, cortexm.VTOR)
	}

	w.WriteString(`
    bl    __pre_init
    mov   lr, r4

    ldr   r0, =__sbss
    ldr   r1, =__ebss
    movs  r2, #0
0:
    cmp   r1, r0
    beq   1f
    stm   r0!, {r2}
    b     0b
1:
`)

	if !cfg.SkipDataInit {
		w.WriteString(`
    ldr   r0, =__sdata
    ldr   r1, =__edata
    ldr   r2, =__sidata
2:
    cmp   r1, r0
    beq   3f
    ldm   r2!, {r3}
    stm   r0!, {r3}
    b     2b
3:
`)
	}

	if cfg.FPU {
		fmt.Fprintf(&w, `
    ldr   r0, =0x%08X
    ldr   r1, [r0]
    ldr   r2, =0x%08X
    orrs  r1, r2
    str   r1, [r0]
    dsb
    isb
`, cortexm.CPACR, cortexm.CPACRFPUMask)
	}

	w.WriteString(`
    push  {lr}
    bl    main
    udf   #0
.size Reset, .-Reset

.ltorg
`)

	_, err := io.WriteString(out, w.String())
	return err
}
