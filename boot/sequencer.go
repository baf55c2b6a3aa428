// Package boot implements the reset sequence that runs before the entry
// point: stack and vector table setup, the pre-init hook, static memory
// initialization and the optional FPU enable.
package boot

import (
	"omibyte.io/cmrt/cortexm"
	"omibyte.io/cmrt/machine"
)

// PoisonLR is loaded into LR at reset and pushed as the outermost frame
// marker, so a stack walk stops at the reset frame.
const PoisonLR = 0xFFFFFFFF

// Step identifies one stage of the reset sequence.
type Step int

const (
	StepPoisonLR Step = iota
	StepSetSP
	StepSetVTOR
	StepPreInit
	StepZeroInit
	StepCopyInit
	StepEnableFPU
	StepPushFrame
	StepEntry
	StepTrap
)

func (s Step) String() string {
	switch s {
	case StepPoisonLR:
		return "poison-lr"
	case StepSetSP:
		return "set-sp"
	case StepSetVTOR:
		return "set-vtor"
	case StepPreInit:
		return "pre-init"
	case StepZeroInit:
		return "zero-init"
	case StepCopyInit:
		return "copy-init"
	case StepEnableFPU:
		return "enable-fpu"
	case StepPushFrame:
		return "push-frame"
	case StepEntry:
		return "entry"
	case StepTrap:
		return "trap"
	}
	return "unknown"
}

// Observer is notified before each step executes.
type Observer func(step Step)

// Sequencer runs the reset sequence on a machine.
type Sequencer struct {
	Machine machine.Machine
	Config  Config
	Layout  Layout

	// PreInit runs before static memory is initialized. It must not touch any
	// package level variable. A nil hook behaves like the default no-op.
	PreInit func()

	// Entry is the program entry point. It must never return.
	Entry func()

	Observer Observer
}

func (s *Sequencer) step(step Step) {
	if s.Observer != nil {
		s.Observer(step)
	}
}

// Reset performs the sequence. It never returns: if the entry point returns
// the core executes a permanently undefined instruction.
func (s *Sequencer) Reset() {
	m := s.Machine

	s.step(StepPoisonLR)
	m.SetLR(PoisonLR)

	if s.Config.SetSP {
		s.step(StepSetSP)
		m.SetMSP(s.Layout.StackStart)
	}

	if s.Config.SetVTOR {
		s.step(StepSetVTOR)
		cortexm.NewSCB(m).SetVTOR(s.Layout.VectorTable)
	}

	s.step(StepPreInit)
	if s.PreInit != nil {
		s.PreInit()
	}
	m.SetLR(PoisonLR)

	s.step(StepZeroInit)
	ZeroInit(m, s.Layout.SBSS, s.Layout.EBSS)

	if !s.Config.SkipDataInit {
		s.step(StepCopyInit)
		CopyInit(m, s.Layout.SData, s.Layout.EData, s.Layout.SIData)
	}

	if s.Config.FPU {
		s.step(StepEnableFPU)
		cortexm.NewSCB(m).EnableFPU()
		m.DSB()
		m.ISB()
	}

	s.step(StepPushFrame)
	m.Push(m.LR())

	s.step(StepEntry)
	if s.Entry != nil {
		s.Entry()
	}

	s.step(StepTrap)
	m.Udf(0)
}

// ZeroInit clears [start, end) one word at a time.
func ZeroInit(mem machine.Memory, start, end uint32) {
	for addr := start; addr < end; addr += 4 {
		mem.Store32(addr, 0)
	}
}

// CopyInit copies the words of [start, end) from the image at src. The loop
// is bounded by the destination length.
func CopyInit(mem machine.Memory, start, end, src uint32) {
	if end <= start {
		return
	}
	n := (end - start) / 4
	for i := uint32(0); i < n; i++ {
		mem.Store32(start+i*4, mem.Load32(src+i*4))
	}
}
