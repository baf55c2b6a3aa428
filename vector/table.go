// Package vector models the Cortex-M vector table: which symbol every slot
// resolves to, how large the table is for a given architecture tier, and the
// assembly that places it at the start of the image.
package vector

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/slices"

	"omibyte.io/cmrt/arch"
)

// InterruptMode selects where device interrupt names come from.
type InterruptMode int

const (
	// DeviceAgnostic binds every device interrupt slot to DefaultHandler.
	DeviceAgnostic InterruptMode = iota

	// DeviceProvided takes names and positions from a device description.
	// Positions without an interrupt are zero.
	DeviceProvided
)

func (m InterruptMode) String() string {
	if m == DeviceProvided {
		return "device"
	}
	return "agnostic"
}

// Interrupt is one device interrupt line.
type Interrupt struct {
	Name        string
	Value       int
	Description string
}

type Config struct {
	Tier arch.Tier
	Mode InterruptMode

	// Count is the number of device interrupt slots in DeviceAgnostic mode.
	// Zero selects the tier maximum.
	Count int

	// Interrupts lists the device interrupts in DeviceProvided mode.
	Interrupts []Interrupt

	// Max overrides the tier maximum with a device specific limit.
	Max int
}

// SlotKind classifies a vector table entry.
type SlotKind int

const (
	SlotStack SlotKind = iota
	SlotReset
	SlotException
	SlotInterrupt
	SlotReserved
)

// Slot is one word of the vector table.
type Slot struct {
	Index int
	Kind  SlotKind

	// Name is the vector name the slot is bound to. It is empty for reserved
	// slots.
	Name string

	Exception arch.Exception
	IRQ       int
}

// Offset returns the byte offset of the slot from the table base.
func (s Slot) Offset() uint32 {
	return uint32(s.Index) * 4
}

func (s Slot) String() string {
	switch s.Kind {
	case SlotStack:
		return SymbolStackStart
	case SlotReset:
		return SymbolReset
	case SlotReserved:
		return "<reserved>"
	}
	return s.Name
}

// Table is the vector table layout for a tier and interrupt configuration.
type Table struct {
	config     Config
	interrupts []Slot
}

// NewTable lays out the device interrupt slots. Validate must be called
// before the table is emitted.
func NewTable(cfg Config) (*Table, error) {
	t := &Table{config: cfg}

	switch cfg.Mode {
	case DeviceAgnostic:
		count := cfg.Count
		if count == 0 {
			count = t.max()
		}
		if count < 0 {
			return nil, fmt.Errorf("%w: %d", ErrInterruptPosition, count)
		}
		t.interrupts = make([]Slot, count)
		for i := range t.interrupts {
			t.interrupts[i] = Slot{
				Index: arch.FirstInterrupt + i,
				Kind:  SlotInterrupt,
				Name:  SymbolDefaultHandler,
				IRQ:   i,
			}
		}
	case DeviceProvided:
		irqs := slices.Clone(cfg.Interrupts)
		slices.SortStableFunc(irqs, func(a, b Interrupt) bool {
			return a.Value < b.Value
		})

		count := 0
		for i, irq := range irqs {
			if irq.Value < 0 {
				return nil, fmt.Errorf("%w: %s has position %d", ErrInterruptPosition, irq.Name, irq.Value)
			}
			if i > 0 && irqs[i-1].Value == irq.Value {
				return nil, fmt.Errorf("%w: %s and %s share position %d", ErrInterruptPosition, irqs[i-1].Name, irq.Name, irq.Value)
			}
			count = irq.Value + 1
		}

		t.interrupts = make([]Slot, count)
		for i := range t.interrupts {
			t.interrupts[i] = Slot{Index: arch.FirstInterrupt + i, Kind: SlotReserved, IRQ: i}
		}
		for _, irq := range irqs {
			t.interrupts[irq.Value].Kind = SlotInterrupt
			t.interrupts[irq.Value].Name = irq.Name
		}
	default:
		return nil, fmt.Errorf("unknown interrupt mode %d", cfg.Mode)
	}

	return t, nil
}

func (t *Table) max() int {
	if t.config.Max > 0 {
		return t.config.Max
	}
	return t.config.Tier.MaxInterrupts()
}

// Validate rejects a table with more device interrupts than the target
// supports.
func (t *Table) Validate() error {
	if max := t.max(); len(t.interrupts) > max {
		return fmt.Errorf("%w: %d device interrupts (%d bytes) exceed the %s limit of %d (%d bytes)",
			ErrTableOverflow, len(t.interrupts), len(t.interrupts)*4, t.config.Tier, max, max*4)
	}
	return nil
}

func (t *Table) Tier() arch.Tier {
	return t.config.Tier
}

func (t *Table) Mode() InterruptMode {
	return t.config.Mode
}

// Interrupts returns the device interrupt slots.
func (t *Table) Interrupts() []Slot {
	return t.interrupts
}

// Len returns the number of words in the table.
func (t *Table) Len() int {
	return 2 + arch.CoreSlots + len(t.interrupts)
}

// SizeBytes returns the size of the table in bytes.
func (t *Table) SizeBytes() int {
	return t.Len() * 4
}

// Slots returns every entry of the table in order.
func (t *Table) Slots() []Slot {
	slots := make([]Slot, 0, t.Len())
	slots = append(slots,
		Slot{Index: 0, Kind: SlotStack},
		Slot{Index: 1, Kind: SlotReset, Name: SymbolReset},
	)
	for i, e := range arch.Exceptions(t.config.Tier) {
		slot := Slot{Index: 2 + i, Kind: SlotReserved}
		if e != 0 {
			slot.Kind = SlotException
			slot.Name = e.String()
			slot.Exception = e
			slot.IRQ = int(e.IRQn())
		}
		slots = append(slots, slot)
	}
	return append(slots, t.interrupts...)
}

// Has reports whether a vector name occupies a slot of the table.
func (t *Table) Has(name string) bool {
	if name == SymbolDefaultHandler {
		return true
	}
	for _, s := range t.Slots() {
		if s.Kind >= SlotException && s.Name == name {
			return true
		}
	}
	return false
}

// Symbols resolves every slot to the symbol the linker binds it to. Stack and
// reserved slots resolve to their fixed contents.
func (t *Table) Symbols(reg *Registry) []string {
	slots := t.Slots()
	symbols := make([]string, len(slots))
	for i, s := range slots {
		switch s.Kind {
		case SlotStack:
			symbols[i] = SymbolStackStart
		case SlotReset:
			symbols[i] = SymbolReset
		case SlotReserved:
			symbols[i] = ""
		case SlotInterrupt:
			if t.config.Mode == DeviceAgnostic {
				symbols[i] = reg.Resolve(SymbolDefaultHandler).Symbol
				continue
			}
			symbols[i] = reg.Resolve(s.Name).Symbol
		default:
			symbols[i] = reg.Resolve(s.Name).Symbol
		}
	}
	return symbols
}

// Image produces the table contents as little-endian words. lookup returns
// the address of a symbol; reserved slots are zero.
func (t *Table) Image(reg *Registry, lookup func(symbol string) (uint32, bool)) ([]byte, error) {
	symbols := t.Symbols(reg)
	image := make([]byte, len(symbols)*4)
	for i, sym := range symbols {
		if sym == "" {
			continue
		}
		addr, ok := lookup(sym)
		if !ok {
			return nil, fmt.Errorf("%w: %s (slot %d)", ErrUndefinedSymbol, sym, i)
		}
		binary.LittleEndian.PutUint32(image[i*4:], addr)
	}
	return image, nil
}
