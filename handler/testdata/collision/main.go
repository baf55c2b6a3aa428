package main

import "omibyte.io/cmrt/rt"

//rt:entry
func main() {
	rt.Halt()
}

//rt:interrupt
func TIM1() {
	//rt:static
	var UP_count int

	UP_count++
}

//rt:interrupt
func TIM1_UP() {
	//rt:static
	var count int

	count++
}
