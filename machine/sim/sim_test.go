package sim

import (
	"errors"
	"testing"

	"omibyte.io/cmrt/cortexm"
	"omibyte.io/cmrt/machine"
)

func newTestCore(t *testing.T) (*Core, *Linker) {
	t.Helper()
	core := New(DefaultConfig())
	core.SetMSP(0x20008000)
	return core, NewLinker(core)
}

func TestBusError(t *testing.T) {
	core, _ := newTestCore(t)

	tests := []struct {
		name string
		addr uint32
	}{
		{"unmapped", 0x40000000},
		{"misaligned", 0x20000002},
		{"past ram", 0x20010000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.Run(func() { core.Load32(tt.addr) })
			var trap machine.Trap
			if !errors.As(err, &trap) || trap.Kind != machine.BusError || trap.Address != tt.addr {
				t.Errorf("expected a bus error at %#x, got %v", tt.addr, err)
			}
		})
	}
}

func TestPreemption(t *testing.T) {
	core, linker := newTestCore(t)
	scb := cortexm.NewSCB(core)
	nvic := cortexm.NewNVIC(core)

	var log []string
	core.Store32(14*4, linker.Func("PendSV", func() {
		log = append(log, "pendsv")
	}))
	core.Store32(16*4, linker.Func("IRQ0", func() {
		log = append(log, "irq0 enter")
		// Lower urgency than IRQ0: stays pending until IRQ0 returns.
		scb.SetPendSV()
		log = append(log, "irq0 exit")
	}))

	scb.SetSystemPriority(14, 0xF0)
	nvic.SetPriority(0, 0x10)
	nvic.EnableIRQ(0)

	if err := core.Run(func() { core.RaiseIRQ(0) }); err != nil {
		t.Fatal(err)
	}

	expected := []string{"irq0 enter", "irq0 exit", "pendsv"}
	if len(log) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, log)
	}
	for i := range log {
		if log[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, log)
		}
	}
}

func TestDisabledInterruptNotDelivered(t *testing.T) {
	core, linker := newTestCore(t)
	called := false
	core.Store32(16*4, linker.Func("IRQ0", func() { called = true }))

	core.RaiseIRQ(0)
	if called {
		t.Error("delivered an interrupt that is not enabled")
	}
	if !core.IsPending(16) {
		t.Error("interrupt not left pending")
	}

	cortexm.NewNVIC(core).EnableIRQ(0)
	if !called {
		t.Error("pending interrupt not delivered once enabled")
	}
}

func TestEscalation(t *testing.T) {
	core, linker := newTestCore(t)

	var active []uint16
	core.Store32(3*4, linker.Func("HardFault", func() {
		active = append(active, core.Active()...)
	}))

	// SysTick has no vector.
	if err := core.Run(func() { core.Raise(15) }); err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0] != 3 {
		t.Errorf("expected escalation to HardFault, got %v", active)
	}
}

func TestLockup(t *testing.T) {
	core, _ := newTestCore(t)
	err := core.Run(func() { core.Raise(15) })
	var trap machine.Trap
	if !errors.As(err, &trap) || trap.Kind != machine.Lockup {
		t.Errorf("expected a lockup, got %v", err)
	}
}

func TestExceptionReturnValues(t *testing.T) {
	core, linker := newTestCore(t)
	core.SetPSP(0x20004000)

	var lrs []uint32
	core.Store32(14*4, linker.Func("PendSV", func() {
		lrs = append(lrs, core.LR())
	}))
	core.Store32(15*4, linker.Func("SysTick", func() {
		lrs = append(lrs, core.LR())
		core.Raise(2)
	}))
	core.Store32(2*4, linker.Func("NMI", func() {
		lrs = append(lrs, core.LR())
	}))

	core.Run(func() { core.Raise(15) })
	core.UseProcessStack(true)
	core.Run(func() { core.Raise(14) })

	expected := []uint32{0xFFFFFFF9, 0xFFFFFFF1, 0xFFFFFFFD}
	if len(lrs) != len(expected) {
		t.Fatalf("expected %#x, got %#x", expected, lrs)
	}
	for i := range lrs {
		if lrs[i] != expected[i] {
			t.Errorf("entry %d: expected %#x, got %#x", i, expected[i], lrs[i])
		}
	}
	if core.MSP() != 0x20008000 || core.PSP() != 0x20004000 {
		t.Errorf("stacks not restored: msp=%#x psp=%#x", core.MSP(), core.PSP())
	}
}

func TestResetWithoutVector(t *testing.T) {
	core := New(DefaultConfig())
	if err := core.Reset(); !errors.Is(err, ErrNoResetVector) {
		t.Errorf("expected %v, got %v", ErrNoResetVector, err)
	}
}

func TestResetReturned(t *testing.T) {
	core := New(DefaultConfig())
	linker := NewLinker(core)
	var sp uint32
	core.StoreWords(0, []uint32{0x20001000, linker.Func("Reset", func() { sp = core.MSP() })})

	if err := core.Reset(); !errors.Is(err, ErrResetReturned) {
		t.Errorf("expected %v, got %v", ErrResetReturned, err)
	}
	if sp != 0x20001000 {
		t.Errorf("initial stack pointer not loaded: %#x", sp)
	}
}

func TestLinker(t *testing.T) {
	core := New(DefaultConfig())
	linker := NewLinker(core)

	a := linker.Func("a", func() {})
	b := linker.Func("b", func() {})
	if a&1 == 0 || b&1 == 0 || a == b {
		t.Errorf("unexpected addresses %#x %#x", a, b)
	}
	if again := linker.Func("a", func() {}); again != a {
		t.Error("rebinding moved the symbol")
	}
	linker.Data("__sdata", 0x20000000)
	if addr, ok := linker.Lookup("__sdata"); !ok || addr != 0x20000000 {
		t.Error("data symbol lost")
	}
	names := linker.Symbols()
	if len(names) != 3 || names[0] != "__sdata" {
		t.Errorf("unexpected symbols %v", names)
	}
}
