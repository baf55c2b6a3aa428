package main

import "omibyte.io/cmrt/rt"

//rt:entry
func main() {
	for {
		rt.Machine().WFI()
	}
}

//rt:exception
func SysTick() {
	//rt:static
	var ticks uint32

	ticks++
}

//rt:interrupt
//rt:cfg stm32f4
//rt:section .fast
func USART1() {
}
