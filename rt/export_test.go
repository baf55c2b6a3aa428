package rt_test

import (
	"testing"

	"golang.org/x/exp/slices"

	"omibyte.io/cmrt/fault"
	"omibyte.io/cmrt/machine/sim"
	"omibyte.io/cmrt/rt"
)

func TestExport(t *testing.T) {
	calls := 0
	rt.Export("TestExport_SysTick", func() { calls++ })

	fn, ok := rt.Lookup("TestExport_SysTick")
	if !ok {
		t.Fatal("exported symbol not found")
	}
	fn()
	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}

	if _, ok := rt.Lookup("TestExport_Missing"); ok {
		t.Error("unexported symbol found")
	}
	if !slices.Contains(rt.Exported(), "TestExport_SysTick") {
		t.Errorf("Exported() = %v", rt.Exported())
	}
	if !slices.IsSorted(rt.Exported()) {
		t.Error("Exported() is not sorted")
	}
}

func TestExportFault(t *testing.T) {
	core := sim.New(sim.DefaultConfig())
	core.SetMSP(0x20008000)
	core.SetContext(sim.Context{R0: 0x11, PC: 0x4000, XPSR: 1 << 24})
	rt.Bind(core)

	var pc uint32
	rt.ExportFault("TestExportFault_HardFault", func(frame *fault.ExceptionFrame) {
		pc = frame.PC()
		frame.SetPC(0x4002)
	})
	fn, _ := rt.Lookup("TestExportFault_HardFault")

	linker := sim.NewLinker(core)
	core.Store32(3*4, linker.Func("HardFault", fn))

	if err := core.Run(func() { core.Raise(3) }); err != nil {
		t.Fatal(err)
	}
	if pc != 0x4000 {
		t.Errorf("handler saw pc %#x, want 0x4000", pc)
	}
	if core.Context().PC != 0x4002 {
		t.Errorf("frame mutation lost: pc=%#x", core.Context().PC)
	}
}
