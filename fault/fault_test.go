package fault_test

import (
	"testing"

	"omibyte.io/cmrt/fault"
	"omibyte.io/cmrt/machine/sim"
)

type registers struct {
	msp, psp, lr uint32
}

func (r *registers) MSP() uint32         { return r.msp }
func (r *registers) SetMSP(value uint32) { r.msp = value }
func (r *registers) PSP() uint32         { return r.psp }
func (r *registers) SetPSP(value uint32) { r.psp = value }
func (r *registers) LR() uint32          { return r.lr }
func (r *registers) SetLR(value uint32)  { r.lr = value }
func (r *registers) Push(value uint32)   { r.msp -= 4 }

func TestStackPointer(t *testing.T) {
	tests := []struct {
		name string
		lr   uint32
		want uint32
	}{
		{"handler mode", 0xFFFFFFF1, 0x20001000},
		{"thread main stack", 0xFFFFFFF9, 0x20001000},
		{"thread process stack", 0xFFFFFFFD, 0x20002000},
		{"bit 2 only", 0b0100, 0x20002000},
		{"extended frame on process stack", 0xFFFFFFED, 0x20002000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regs := &registers{msp: 0x20001000, psp: 0x20002000, lr: tt.lr}
			if got := fault.StackPointer(regs); got != tt.want {
				t.Errorf("expected %#x, got %#x", tt.want, got)
			}
		})
	}
}

func TestEXCReturn(t *testing.T) {
	e := fault.EXCReturn(0xFFFFFFED)
	if !e.UsesProcessStack() || !e.ReturnsToThread() || !e.HasExtendedFrame() {
		t.Errorf("unexpected decoding of %#x", uint32(e))
	}
	e = fault.EXCReturn(0xFFFFFFF1)
	if e.UsesProcessStack() || e.ReturnsToThread() || e.HasExtendedFrame() {
		t.Errorf("unexpected decoding of %#x", uint32(e))
	}
}

// installHardFault binds fn to the HardFault vector of the table at address 0.
func installHardFault(core *sim.Core, fn func()) {
	linker := sim.NewLinker(core)
	core.Store32(0x0C, linker.Func("HardFault", fn))
}

func TestTrampoline(t *testing.T) {
	tests := []struct {
		name       string
		useProcess bool
	}{
		{"main stack", false},
		{"process stack", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core := sim.New(sim.DefaultConfig())
			core.SetMSP(0x20008000)
			core.SetPSP(0x20004000)
			core.UseProcessStack(tt.useProcess)
			core.SetContext(sim.Context{R0: 0xAA, R1: 0xBB, PC: 0x1234, XPSR: 1 << 24})

			var (
				got     *fault.ExceptionFrame
				r0, pc  uint32
				invoked int
			)
			installHardFault(core, fault.Trampoline(core, func(frame *fault.ExceptionFrame) {
				invoked++
				got = frame
				r0, pc = frame.R0(), frame.PC()
				frame.SetPC(0x2000)
			}))

			if err := core.Run(func() { core.Raise(3) }); err != nil {
				t.Fatal(err)
			}

			if invoked != 1 {
				t.Fatalf("expected one invocation, got %d", invoked)
			}
			if r0 != 0xAA || pc != 0x1234 {
				t.Errorf("handler saw the wrong frame: r0=%#x pc=%#x", r0, pc)
			}

			stack := uint32(0x20008000)
			if tt.useProcess {
				stack = 0x20004000
			}
			expected := core.Words(stack-32, 8)
			if &got[0] != &expected[0] {
				t.Error("frame does not alias the stacked words")
			}
			if core.Context().PC != 0x2000 {
				t.Errorf("frame mutation not visible after return: pc=%#x", core.Context().PC)
			}
		})
	}
}

func TestDirect(t *testing.T) {
	core := sim.New(sim.DefaultConfig())
	core.SetMSP(0x20008000)

	called := false
	installHardFault(core, fault.Direct(func() { called = true }))

	if err := core.Run(func() { core.Raise(3) }); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("handler not invoked")
	}
}

func TestFrameString(t *testing.T) {
	frame := fault.ExceptionFrame{1, 2, 3, 4, 12, 0xFFFFFFF9, 0x100, 0x01000000}
	if frame.R12() != 12 || frame.LR() != 0xFFFFFFF9 || frame.XPSR() != 0x01000000 {
		t.Error("unexpected accessor values")
	}
	if frame.String() == "" {
		t.Error("empty dump")
	}
}
