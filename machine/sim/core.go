// Package sim provides a simulated single Cortex-M core implementing the
// machine interfaces. It exists so that boot, fault and handler dispatch logic
// can run on a development host.
package sim

import (
	"errors"
	"fmt"

	"omibyte.io/cmrt/cortexm"
	"omibyte.io/cmrt/machine"
)

var (
	ErrResetReturned = errors.New("reset routine returned")
	ErrNoResetVector = errors.New("reset vector does not point at bound code")
)

type Config struct {
	FlashBase uint32
	FlashSize uint32
	RAMBase   uint32
	RAMSize   uint32

	// BootAddress is where the core fetches the initial stack pointer and the
	// reset vector. It defaults to FlashBase.
	BootAddress *uint32
}

// DefaultConfig models a part with 256KiB of flash at 0x0 and 64KiB of RAM at
// 0x20000000.
func DefaultConfig() Config {
	return Config{
		FlashBase: 0x00000000,
		FlashSize: 256 * 1024,
		RAMBase:   0x20000000,
		RAMSize:   64 * 1024,
	}
}

// Event is one recorded primitive operation.
type Event struct {
	Op   string
	Addr uint32
	Arg  uint32
}

func (e Event) String() string {
	if e.Addr != 0 {
		return fmt.Sprintf("%s 0x%08X, 0x%08X", e.Op, e.Addr, e.Arg)
	}
	return e.Op
}

// Context is the register state saved in an exception frame.
type Context struct {
	R0, R1, R2, R3, R12, LR, PC, XPSR uint32
}

type Core struct {
	regions []*Region
	flash   *Region
	ram     *Region
	scs     *Region

	boot uint32

	primask bool
	spsel   bool
	msp     uint32
	psp     uint32
	ctx     Context

	active  []uint16
	pending map[uint16]bool
	enabled [16]uint32

	code map[uint32]func()

	events []Event
	trap   *machine.Trap
}

func New(cfg Config) *Core {
	c := &Core{
		flash:   NewRegion("flash", cfg.FlashBase, cfg.FlashSize),
		ram:     NewRegion("ram", cfg.RAMBase, cfg.RAMSize),
		scs:     NewRegion("scs", cortexm.SCSBase, cortexm.SCSLength),
		pending: map[uint16]bool{},
		code:    map[uint32]func(){},
		boot:    cfg.FlashBase,
	}
	if cfg.BootAddress != nil {
		c.boot = *cfg.BootAddress
	}
	c.regions = []*Region{c.flash, c.ram, c.scs}
	c.scs.words[(cortexm.VTOR-cortexm.SCSBase)/4] = c.boot
	return c
}

func (c *Core) Flash() *Region { return c.flash }
func (c *Core) RAM() *Region   { return c.ram }

// Events returns the recorded primitive operations in execution order.
func (c *Core) Events() []Event {
	return c.events
}

func (c *Core) ClearEvents() {
	c.events = nil
}

func (c *Core) record(op string, addr, arg uint32) {
	c.events = append(c.events, Event{Op: op, Addr: addr, Arg: arg})
}

// Trap returns the trap that stopped the core, if any.
func (c *Core) Trap() *machine.Trap {
	return c.trap
}

// Bind associates fn with a code address. Vector table entries holding the
// address (with or without the Thumb bit) dispatch to fn.
func (c *Core) Bind(addr uint32, fn func()) {
	c.code[addr&^1] = fn
}

func (c *Core) DisableInterrupts() {
	c.record("cpsid i", 0, 0)
	c.primask = true
}

func (c *Core) EnableInterrupts() {
	c.record("cpsie i", 0, 0)
	c.primask = false
	c.dispatch()
}

func (c *Core) InterruptsEnabled() bool {
	return !c.primask
}

func (c *Core) DSB() { c.record("dsb", 0, 0) }
func (c *Core) ISB() { c.record("isb", 0, 0) }
func (c *Core) DMB() { c.record("dmb", 0, 0) }
func (c *Core) SEV() { c.record("sev", 0, 0) }
func (c *Core) NOP() { c.record("nop", 0, 0) }

// WFE and WFI deliver pending exceptions. With nothing pending no event can
// ever arrive on the simulated core, so it halts.
func (c *Core) WFE() {
	c.record("wfe", 0, 0)
	c.wait()
}

func (c *Core) WFI() {
	c.record("wfi", 0, 0)
	c.wait()
}

func (c *Core) wait() {
	if !c.dispatch() {
		panic(machine.Trap{Kind: machine.Halted})
	}
}

func (c *Core) Breakpoint(imm uint8) {
	c.record("bkpt", 0, uint32(imm))
}

func (c *Core) Udf(imm uint8) {
	c.record("udf", 0, uint32(imm))
	panic(machine.Trap{Kind: machine.UndefinedInstruction, Imm: imm})
}

func (c *Core) MSP() uint32 { return c.msp }

func (c *Core) SetMSP(value uint32) {
	c.record("msr msp", 0, value)
	c.msp = value
}

func (c *Core) PSP() uint32 { return c.psp }

func (c *Core) SetPSP(value uint32) {
	c.record("msr psp", 0, value)
	c.psp = value
}

func (c *Core) LR() uint32 { return c.ctx.LR }

func (c *Core) SetLR(value uint32) {
	c.ctx.LR = value
}

// UseProcessStack selects the stack used in thread mode (CONTROL.SPSEL).
func (c *Core) UseProcessStack(enable bool) {
	c.spsel = enable
}

func (c *Core) activeSP() *uint32 {
	if len(c.active) == 0 && c.spsel {
		return &c.psp
	}
	return &c.msp
}

func (c *Core) Push(value uint32) {
	sp := c.activeSP()
	*sp -= 4
	c.Store32(*sp, value)
}

// Context returns the general purpose register state of the running code.
func (c *Core) Context() Context {
	return c.ctx
}

func (c *Core) SetContext(ctx Context) {
	c.ctx = ctx
}

func (c *Core) loadSpecial(addr uint32) (uint32, bool) {
	switch {
	case addr == cortexm.ICSR:
		var value uint32
		if len(c.active) > 0 {
			value = uint32(c.active[len(c.active)-1])
		}
		if c.pending[uint16(14)] {
			value |= 1 << 28
		}
		if c.pending[uint16(15)] {
			value |= 1 << 26
		}
		return value, true
	case addr >= cortexm.ISER && addr < cortexm.ISER+64:
		return c.enabled[(addr-cortexm.ISER)/4], true
	case addr >= cortexm.ICER && addr < cortexm.ICER+64:
		return c.enabled[(addr-cortexm.ICER)/4], true
	case addr >= cortexm.ISPR && addr < cortexm.ICPR+64:
		word := (addr - cortexm.ISPR) % 0x80 / 4
		var value uint32
		for bit := uint32(0); bit < 32; bit++ {
			if c.pending[uint16(16+word*32+bit)] {
				value |= 1 << bit
			}
		}
		return value, true
	}
	return 0, false
}

func (c *Core) storeSpecial(addr uint32, value uint32) bool {
	if addr >= cortexm.SCSBase && addr < cortexm.SCSBase+cortexm.SCSLength {
		c.record("str", addr, value)
	}

	switch {
	case addr == cortexm.ICSR:
		if value&(1<<28) != 0 {
			c.pending[14] = true
		}
		if value&(1<<27) != 0 {
			delete(c.pending, 14)
		}
		if value&(1<<26) != 0 {
			c.pending[15] = true
		}
		if value&(1<<25) != 0 {
			delete(c.pending, 15)
		}
		c.dispatch()
		return true
	case addr >= cortexm.ISER && addr < cortexm.ISER+64:
		c.enabled[(addr-cortexm.ISER)/4] |= value
		c.dispatch()
		return true
	case addr >= cortexm.ICER && addr < cortexm.ICER+64:
		c.enabled[(addr-cortexm.ICER)/4] &^= value
		return true
	case addr >= cortexm.ISPR && addr < cortexm.ISPR+64:
		word := (addr - cortexm.ISPR) / 4
		for bit := uint32(0); bit < 32; bit++ {
			if value&(1<<bit) != 0 {
				c.pending[uint16(16+word*32+bit)] = true
			}
		}
		c.dispatch()
		return true
	case addr >= cortexm.ICPR && addr < cortexm.ICPR+64:
		word := (addr - cortexm.ICPR) / 4
		for bit := uint32(0); bit < 32; bit++ {
			if value&(1<<bit) != 0 {
				delete(c.pending, uint16(16+word*32+bit))
			}
		}
		return true
	}
	return false
}

// Reset performs a power-on reset: the main stack pointer is loaded from the
// first word at the boot address and execution continues at the reset
// vector. Reset returns the trap that eventually stopped the core.
func (c *Core) Reset() (err error) {
	c.primask = false
	c.spsel = false
	c.active = nil
	c.pending = map[uint16]bool{}
	c.trap = nil
	c.scs.words[(cortexm.VTOR-cortexm.SCSBase)/4] = c.boot

	defer func() {
		if r := recover(); r != nil {
			trap, ok := r.(machine.Trap)
			if !ok {
				panic(r)
			}
			c.trap = &trap
			err = trap
		}
	}()

	c.msp = c.Load32(c.boot)
	reset := c.Load32(c.boot + 4)
	fn, ok := c.code[reset&^1]
	if !ok {
		return ErrNoResetVector
	}
	c.ctx.PC = reset &^ 1
	fn()

	return ErrResetReturned
}

// Run executes fn in thread mode and converts a machine trap raised during
// its execution, including inside exception handlers it triggers, into an
// error.
func (c *Core) Run(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			trap, ok := r.(machine.Trap)
			if !ok {
				panic(r)
			}
			c.trap = &trap
			err = trap
		}
	}()
	fn()
	return nil
}
