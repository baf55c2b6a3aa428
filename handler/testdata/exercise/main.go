package main

import "omibyte.io/cmrt/rt"

var (
	seen   []uint32
	active []int16
)

//rt:entry
func main() {
	rt.Halt()
}

//rt:exception
func SysTick() {
	//rt:static
	var count uint32

	seen = append(seen, count)
	count++
}

//rt:exception
func PendSV() {
	var step uint32 = 1

	//rt:static
	var count uint32 = 6

	seen = append(seen, count)
	count += step
}

//rt:exception
//rt:unsafe
func DefaultHandler(irqn int16) {
	active = append(active, irqn)
}
