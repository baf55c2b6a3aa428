package sim

import (
	"math"

	"omibyte.io/cmrt/cortexm"
	"omibyte.io/cmrt/machine"
)

const (
	excReturnHandler   = 0xFFFFFFF1
	excReturnThreadMSP = 0xFFFFFFF9
	excReturnThreadPSP = 0xFFFFFFFD

	frameWords = 8

	nmi       = 2
	hardFault = 3
)

// Pend marks an exception (by exception number) pending without delivering
// it. Delivery happens on the next dispatch point.
func (c *Core) Pend(exception uint16) {
	c.pending[exception] = true
}

// Raise pends an exception and delivers it immediately if its priority allows
// preempting the running code.
func (c *Core) Raise(exception uint16) {
	c.Pend(exception)
	c.dispatch()
}

// RaiseIRQ raises device interrupt irqn.
func (c *Core) RaiseIRQ(irqn int) {
	c.Raise(uint16(irqn + 16))
}

// Active returns the stack of exceptions being serviced, outermost first.
func (c *Core) Active() []uint16 {
	return c.active
}

// IsPending reports whether an exception is pending.
func (c *Core) IsPending(exception uint16) bool {
	return c.pending[exception]
}

func (c *Core) priority(exception uint16) int {
	switch {
	case exception == 1:
		return -3
	case exception == nmi:
		return -2
	case exception == hardFault:
		return -1
	case exception < 16:
		return int(cortexm.NewSCB(c).SystemPriority(uint8(exception)))
	}
	return int(cortexm.NewNVIC(c).Priority(cortexm.Interrupt(exception - 16)))
}

func (c *Core) executionPriority() int {
	current := math.MaxInt
	for _, e := range c.active {
		if p := c.priority(e); p < current {
			current = p
		}
	}
	return current
}

func (c *Core) deliverable(exception uint16) bool {
	if exception >= 16 {
		irq := exception - 16
		if c.enabled[irq/32]&(1<<(irq%32)) == 0 {
			return false
		}
	}
	p := c.priority(exception)
	if c.primask && p >= 0 {
		return false
	}
	return p < c.executionPriority()
}

// dispatch delivers pending exceptions until none can preempt the running
// code. It reports whether anything was delivered.
func (c *Core) dispatch() bool {
	taken := false
	for {
		next, ok := c.nextPending()
		if !ok {
			return taken
		}
		delete(c.pending, next)
		c.enter(next)
		taken = true
	}
}

func (c *Core) nextPending() (uint16, bool) {
	var (
		best     uint16
		bestPrio = math.MaxInt
		found    bool
	)
	for e := range c.pending {
		if !c.deliverable(e) {
			continue
		}
		p := c.priority(e)
		if p < bestPrio || (p == bestPrio && e < best) {
			best, bestPrio, found = e, p, true
		}
	}
	return best, found
}

func (c *Core) handlerFor(exception uint16) (func(), bool) {
	vtor := c.Load32(cortexm.VTOR)
	target := c.Load32(vtor + uint32(exception)*4)
	if target == 0 {
		return nil, false
	}
	fn, ok := c.code[target&^1]
	return fn, ok
}

func (c *Core) enter(exception uint16) {
	fn, ok := c.handlerFor(exception)
	if !ok {
		for _, e := range c.active {
			if e == hardFault {
				panic(machine.Trap{Kind: machine.Lockup})
			}
		}
		if exception == hardFault {
			panic(machine.Trap{Kind: machine.Lockup})
		}
		// Escalate to HardFault.
		exception = hardFault
		if fn, ok = c.handlerFor(exception); !ok {
			panic(machine.Trap{Kind: machine.Lockup})
		}
	}

	var excReturn uint32
	switch {
	case len(c.active) > 0:
		excReturn = excReturnHandler
	case c.spsel:
		excReturn = excReturnThreadPSP
	default:
		excReturn = excReturnThreadMSP
	}

	// Stack the hardware frame.
	sp := c.activeSP()
	*sp -= frameWords * 4
	frame := c.Words(*sp, frameWords)
	frame[0], frame[1], frame[2], frame[3] = c.ctx.R0, c.ctx.R1, c.ctx.R2, c.ctx.R3
	frame[4], frame[5], frame[6], frame[7] = c.ctx.R12, c.ctx.LR, c.ctx.PC, c.ctx.XPSR

	c.active = append(c.active, exception)
	c.ctx.LR = excReturn
	c.ctx.XPSR = c.ctx.XPSR&^0x1FF | uint32(exception)

	fn()

	c.exit(excReturn)
}

func (c *Core) exit(excReturn uint32) {
	c.active = c.active[:len(c.active)-1]

	sp := &c.msp
	if excReturn&(1<<2) != 0 {
		sp = &c.psp
	}
	frame := c.Words(*sp, frameWords)
	c.ctx = Context{
		R0: frame[0], R1: frame[1], R2: frame[2], R3: frame[3],
		R12: frame[4], LR: frame[5], PC: frame[6], XPSR: frame[7],
	}
	*sp += frameWords * 4
}
