package main

import (
	"omibyte.io/cmrt/fault"
	"omibyte.io/cmrt/rt"
)

type point struct {
	X, Y int
}

const limit = 10

//rt:entry
func main() {
	//rt:static
	var boots uint32 = 1

	boots++
	for {
		rt.Machine().WFI()
	}
}

// SysTick counts ticks.
//
//rt:exception
//go:noinline
func SysTick() {
	//rt:static
	var count uint32

	//rt:static
	var origin = point{X: limit, Y: 2}

	count++
	origin.X += int(count)
}

//rt:exception
func UsageFault() {
	var step = 2

	//rt:static
	var faults int

	faults += step
}

//rt:interrupt
//rt:section .fast
func USART1() {
	//rt:static
	var seen, dropped = 0, limit

	seen++
	if seen > dropped {
		seen = 0
	}
}

//rt:exception
//rt:unsafe
func DefaultHandler(irqn int16) {
	if irqn < 0 {
		panic("unexpected core exception")
	}
}

//rt:exception
//rt:unsafe
func HardFault(frame *fault.ExceptionFrame) {
	_ = frame.PC()
	rt.Halt()
}

//rt:pre_init
//rt:unsafe
func preInit() {
}

//rt:exception
//rt:cfg armv6m
func PendSV() {
}

func helper() {
	// Ordinary functions may share a handler's name space freely.
	PendSV()
}
