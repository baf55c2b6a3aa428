package sim

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// codeBase is where the linker places simulated functions. Code is never
// fetched, so the range only needs to stay clear of mapped memory.
const codeBase = 0x10000000

// Linker assigns addresses to Go functions so that they can be referenced
// from a vector table image loaded into the simulated core.
type Linker struct {
	core    *Core
	next    uint32
	symbols map[string]uint32
}

func NewLinker(core *Core) *Linker {
	return &Linker{
		core:    core,
		next:    codeBase,
		symbols: map[string]uint32{},
	}
}

// Func binds fn under name and returns its Thumb address (low bit set).
func (l *Linker) Func(name string, fn func()) uint32 {
	if addr, ok := l.symbols[name]; ok {
		l.core.Bind(addr, fn)
		return addr
	}
	addr := l.next | 1
	l.next += 4
	l.symbols[name] = addr
	l.core.Bind(addr, fn)
	return addr
}

// Data records the address of a data symbol.
func (l *Linker) Data(name string, addr uint32) {
	l.symbols[name] = addr
}

// Lookup resolves a symbol to its address.
func (l *Linker) Lookup(name string) (uint32, bool) {
	addr, ok := l.symbols[name]
	return addr, ok
}

// Symbols returns the names of every defined symbol in sorted order.
func (l *Linker) Symbols() []string {
	names := maps.Keys(l.symbols)
	slices.Sort(names)
	return names
}

func (l *Linker) String() string {
	return fmt.Sprintf("sim linker (%d symbols)", len(l.symbols))
}
