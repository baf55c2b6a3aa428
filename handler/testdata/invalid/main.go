package invalid

import "omibyte.io/cmrt/rt"

var state int

//rt:entry
func start() {
	if state > 0 {
		return
	}
	for {
	}
}

//rt:exception
//rt:unsafe
func HardFault() {
	for {
	}
}

//rt:exception
func DefaultHandler(irqn int16) {
}

//rt:exception
func SecureFault() {
}

//rt:interrupt
func USART1() {
}

//rt:exception
//sigo:extern SVCall SVCall
func SVCall() {
}

//rt:exception
func SysTick() {
	//rt:static
	var now = state

	now++
}

//rt:exception
func NonMaskableInt() {
}

//rt:exception
//rt:interrupt
func DebugMonitor() {
}

//rt:exception
func BusFault(x int) {
}

//rt:exception
func UsageFault() {
}

var _ = UsageFault

//rt:unsafe
func notAHandler() {
	rt.Halt()
}

//rt:exception
func PendSV() {
	state++

	//rt:static
	var pending uint32

	pending++
}

//rt:exception
func MemoryManagement() {
	if state > 0 {
		//rt:static
		var faults uint32

		faults++
	}
}
