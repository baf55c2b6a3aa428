package main

import (
	"reflect"
	"testing"

	"omibyte.io/cmrt/machine/sim"
	"omibyte.io/cmrt/rt"
)

func call(t *testing.T, symbol string) func() {
	t.Helper()
	fn, ok := rt.Lookup(symbol)
	if !ok {
		t.Fatalf("%s was not exported", symbol)
	}
	return fn
}

func TestStaticsPersist(t *testing.T) {
	seen = nil
	for _, symbol := range []string{"SysTick", "SysTick", "SysTick", "PendSV", "PendSV"} {
		call(t, symbol)()
	}

	want := []uint32{0, 1, 2, 6, 7}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("handlers observed %v, want %v", seen, want)
	}
}

func TestDefaultHandlerIRQn(t *testing.T) {
	core := sim.New(sim.DefaultConfig())
	core.SetMSP(0x20008000)
	rt.Bind(core)

	linker := sim.NewLinker(core)
	handler := linker.Func("DefaultHandler", call(t, "DefaultHandler"))
	core.Store32(15*4, handler)
	core.Store32(19*4, handler)

	active = nil
	if err := core.Run(func() {
		core.Raise(15)
		core.Store32(0xE000E100, 1<<3)
		core.RaiseIRQ(3)
	}); err != nil {
		t.Fatal(err)
	}

	want := []int16{-1, 3}
	if !reflect.DeepEqual(active, want) {
		t.Errorf("DefaultHandler received %v, want %v", active, want)
	}
}
