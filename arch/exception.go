package arch

// CoreSlots is the number of core exception slots following the reset vector.
const CoreSlots = 14

// FirstInterrupt is the exception number of device interrupt 0.
const FirstInterrupt = 16

// Exception is a core exception number as used by the hardware (2..15).
type Exception uint8

const (
	NonMaskableInt   Exception = 2
	HardFault        Exception = 3
	MemoryManagement Exception = 4
	BusFault         Exception = 5
	UsageFault       Exception = 6
	SecureFault      Exception = 7
	SVCall           Exception = 11
	DebugMonitor     Exception = 12
	PendSV           Exception = 14
	SysTick          Exception = 15
)

var exceptionNames = map[Exception]string{
	NonMaskableInt:   "NonMaskableInt",
	HardFault:        "HardFault",
	MemoryManagement: "MemoryManagement",
	BusFault:         "BusFault",
	UsageFault:       "UsageFault",
	SecureFault:      "SecureFault",
	SVCall:           "SVCall",
	DebugMonitor:     "DebugMonitor",
	PendSV:           "PendSV",
	SysTick:          "SysTick",
}

func (e Exception) String() string {
	if name, ok := exceptionNames[e]; ok {
		return name
	}
	return "Reserved"
}

// IRQn returns the CMSIS interrupt number of the exception. Core exceptions
// have negative numbers.
func (e Exception) IRQn() int16 {
	return int16(e) - FirstInterrupt
}

// Slot returns the index of the exception inside the 14 entry core exception
// array (the array starts at exception number 2).
func (e Exception) Slot() int {
	return int(e) - 2
}

// Available reports whether the exception has a vector on the given tier.
// Reserved numbers are never available.
func (e Exception) Available(t Tier) bool {
	switch e {
	case NonMaskableInt, HardFault, SVCall, PendSV, SysTick:
		return true
	case MemoryManagement, BusFault, UsageFault, DebugMonitor:
		return t != ARMv6M
	case SecureFault:
		return t.IsV8()
	}
	return false
}

// LookupException resolves a handler name to the exception it overrides.
func LookupException(name string) (Exception, bool) {
	for e, n := range exceptionNames {
		if n == name {
			return e, true
		}
	}
	return 0, false
}

// Exceptions returns the 14 core slots for the tier in table order. Reserved
// and unavailable slots are reported as zero.
func Exceptions(t Tier) [CoreSlots]Exception {
	var out [CoreSlots]Exception
	for i := range out {
		e := Exception(i + 2)
		if e.Available(t) {
			out[i] = e
		}
	}
	return out
}

// Names returns the names of every exception available on the tier.
func Names(t Tier) []string {
	var names []string
	for _, e := range Exceptions(t) {
		if e != 0 {
			names = append(names, e.String())
		}
	}
	return names
}
