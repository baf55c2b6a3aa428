package rt

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"omibyte.io/cmrt/fault"
)

var (
	exportsMu sync.Mutex
	exports   = map[string]func(){}
)

// Export records the wrapper generated for a handler under its link symbol.
// The device toolchain binds the symbol through the export directive on the
// wrapper; the table serves hosted runs that link the program against a
// simulated core.
func Export(symbol string, fn func()) {
	exportsMu.Lock()
	defer exportsMu.Unlock()
	exports[symbol] = fn
}

// ExportFault records a HardFault wrapper receiving the stacked frame. The
// frame is located the same way the assembly trampoline does.
func ExportFault(symbol string, fn fault.Handler) {
	Export(symbol, func() {
		m := Machine()
		fn(fault.Frame(m, fault.StackPointer(m)))
	})
}

// Lookup returns the function exported under symbol.
func Lookup(symbol string) (func(), bool) {
	exportsMu.Lock()
	defer exportsMu.Unlock()
	fn, ok := exports[symbol]
	return fn, ok
}

// Exported returns the exported symbol names in sorted order.
func Exported() []string {
	exportsMu.Lock()
	defer exportsMu.Unlock()
	names := maps.Keys(exports)
	slices.Sort(names)
	return names
}
