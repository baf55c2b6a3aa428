package vector

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Kind classifies a handler definition.
type Kind int

const (
	KindEntry Kind = iota
	KindPreInit
	KindDefaultHandler
	KindHardFault
	KindException
	KindInterrupt
)

func (k Kind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindPreInit:
		return "pre_init"
	case KindDefaultHandler:
		return "DefaultHandler"
	case KindHardFault:
		return "HardFault"
	case KindException:
		return "exception"
	case KindInterrupt:
		return "interrupt"
	}
	return "unknown"
}

// Definition is a strong definition of a vector name.
type Definition struct {
	// Name is the vector name as written by the user (SysTick, USART1, ...).
	Name string
	Kind Kind

	// Trampoline is only meaningful for HardFault. When set the vector points
	// at the stack selecting trampoline and the user code is linked under
	// _HardFault.
	Trampoline bool

	// Position is the source location used in diagnostics.
	Position string
}

// Symbol returns the symbol the definition exports.
func (d Definition) Symbol() string {
	switch d.Kind {
	case KindEntry:
		return SymbolEntry
	case KindPreInit:
		return SymbolPreInit
	case KindHardFault:
		if d.Trampoline {
			return SymbolHardFaultUser
		}
		return SymbolHardFault
	}
	return d.Name
}

// key identifies the slot a definition competes for. Both HardFault shapes
// compete for the same vector.
func (d Definition) key() string {
	switch d.Kind {
	case KindEntry:
		return SymbolEntry
	case KindPreInit:
		return SymbolPreInit
	}
	return d.Name
}

// Binding is the outcome of link-time resolution for one vector name.
type Binding struct {
	Vector string

	// Symbol is the code the table slot points at.
	Symbol string

	// Target is the user code reached through a trampoline, if any.
	Target string

	// Strong reports whether a user definition exists for the vector.
	Strong bool
}

// Registry models the two-tier strong/weak symbol resolution the linker
// performs for vector names.
type Registry struct {
	defs map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: map[string]Definition{}}
}

// Define records a strong definition. A second strong definition for the same
// vector is a conflict.
func (r *Registry) Define(def Definition) error {
	if prev, ok := r.defs[def.key()]; ok {
		return fmt.Errorf("%w of %s: %s and %s", ErrDuplicateDefinition, def.key(), prev.Position, def.Position)
	}
	r.defs[def.key()] = def
	return nil
}

// Lookup returns the strong definition of a vector name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Entry returns the entry point definition.
func (r *Registry) Entry() (Definition, bool) {
	return r.Lookup(SymbolEntry)
}

// PreInit returns the pre-init hook definition.
func (r *Registry) PreInit() (Definition, bool) {
	return r.Lookup(SymbolPreInit)
}

// Definitions returns every strong definition ordered by vector name.
func (r *Registry) Definitions() []Definition {
	keys := maps.Keys(r.defs)
	slices.Sort(keys)
	defs := make([]Definition, 0, len(keys))
	for _, k := range keys {
		defs = append(defs, r.defs[k])
	}
	return defs
}

// Validate checks the program-wide constraints that only hold once every
// definition is known.
func (r *Registry) Validate() error {
	if _, ok := r.Entry(); !ok {
		return ErrMissingEntry
	}
	return nil
}

// HardFaultTrampoline reports whether the HardFault vector goes through the
// stack selecting trampoline.
func (r *Registry) HardFaultTrampoline() bool {
	def, ok := r.defs[SymbolHardFault]
	return ok && def.Trampoline
}

// Resolve returns what the linker binds a vector name to.
func (r *Registry) Resolve(name string) Binding {
	def, strong := r.defs[name]

	switch name {
	case SymbolDefaultHandler:
		if strong {
			return Binding{Vector: name, Symbol: SymbolDefaultHandler, Strong: true}
		}
		return Binding{Vector: name, Symbol: SymbolDefaultHandlerLoop}
	case SymbolHardFault:
		switch {
		case strong && def.Trampoline:
			return Binding{Vector: name, Symbol: SymbolHardFault, Target: SymbolHardFaultUser, Strong: true}
		case strong:
			return Binding{Vector: name, Symbol: SymbolHardFault, Strong: true}
		}
		return Binding{Vector: name, Symbol: SymbolHardFaultLoop}
	case SymbolPreInit:
		if strong {
			return Binding{Vector: name, Symbol: SymbolPreInit, Strong: true}
		}
		return Binding{Vector: name, Symbol: SymbolPreInitDefault}
	}

	if strong {
		return Binding{Vector: name, Symbol: def.Symbol(), Strong: true}
	}

	fallback := r.Resolve(SymbolDefaultHandler)
	fallback.Vector = name
	fallback.Strong = false
	return fallback
}
